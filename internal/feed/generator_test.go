package feed

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/mocks"
	"garden-server/internal/models"
	"garden-server/internal/repository"
)

func TestSanitizePostText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \n  ", ""},
		{"strips double quotes", `"Space is so cool!"`, "Space is so cool!"},
		{"strips single quotes", "'hello there'", "hello there"},
		{"collapses lines", "line one\n\n  line two  \nline three", "line one line two line three"},
		{"plain text untouched", "Just a normal post.", "Just a normal post."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizePostText(tt.in, maxPostLen))
		})
	}
}

func TestSanitizePostTextTruncates(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := sanitizePostText(long, 280)
	runes := []rune(got)
	assert.Len(t, runes, 280)
	assert.Equal(t, '…', runes[len(runes)-1])
}

func testGardenAndChild() (*models.Garden, *models.Child) {
	garden := &models.Garden{ID: "garden1", ParentID: "parent1", Name: "Test Garden"}
	child := &models.Child{
		ID:        "child1",
		GardenID:  "garden1",
		ProfileID: "profile_child1",
		Config: models.ChildConfig{
			Name: "Alex",
			Age:  10,
			Interests: []models.Interest{
				{Topic: "space", Weight: 0.5},
				{Topic: "animals", Weight: 0.5},
			},
			Mode:     models.FeedModeRealistic,
			MaxPosts: 4,
		},
	}
	return garden, child
}

func newTestGenerator(t *testing.T, store *repository.Store, client *mocks.MockCompletionClient) *Generator {
	g := NewGenerator(store.Profiles, store.Posts, client, nil, nil, zap.NewNop())
	g.rng = rand.New(rand.NewSource(1))
	g.now = func() time.Time { return time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerateBuildsAndPersistsFeed(t *testing.T) {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	gen := newTestGenerator(t, store, client)
	garden, child := testGardenAndChild()

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("A fun little post!", nil).Times(4)

	posts, err := gen.Generate(context.Background(), garden, child, ai.BackendOpenAI, "")
	require.NoError(t, err)
	require.Len(t, posts, 4)

	topics := map[string]bool{}
	for _, p := range posts {
		assert.Equal(t, "child1", p.ChildID)
		assert.Equal(t, "A fun little post!", p.Text)
		assert.NotEmpty(t, p.AuthorProfileID)
		assert.NotEmpty(t, p.AuthorName)
		topics[p.Topic] = true
	}
	// Slot count covers both interests, so each appears at least once.
	assert.True(t, topics["space"])
	assert.True(t, topics["animals"])

	stored, err := store.Posts.ListByChild(context.Background(), "child1")
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	// Synthetic author profiles were created in the garden.
	profiles, err := store.Profiles.ListByGarden(context.Background(), "garden1")
	require.NoError(t, err)
	for _, p := range profiles {
		assert.Equal(t, models.RoleSynthetic, p.Role)
	}

	client.AssertExpectations(t)
}

func TestGenerateReusesAuthorPerTopic(t *testing.T) {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	gen := newTestGenerator(t, store, client)
	garden, child := testGardenAndChild()
	child.Config.Interests = []models.Interest{{Topic: "space", Weight: 1}}
	child.Config.MaxPosts = 3

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("post", nil).Times(3)

	posts, err := gen.Generate(context.Background(), garden, child, ai.BackendOpenAI, "")
	require.NoError(t, err)
	require.Len(t, posts, 3)

	author := posts[0].AuthorProfileID
	for _, p := range posts {
		assert.Equal(t, author, p.AuthorProfileID, "one synthetic author per topic")
	}

	profiles, err := store.Profiles.ListByGarden(context.Background(), "garden1")
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestGenerateUsesPlaceholderOnCompletionFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	gen := newTestGenerator(t, store, client)
	garden, child := testGardenAndChild()
	child.Config.Interests = []models.Interest{{Topic: "space", Weight: 1}}
	child.Config.MaxPosts = 1

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOllama, "llama3").
		Return("", errors.New("backend down")).Once()

	posts, err := gen.Generate(context.Background(), garden, child, ai.BackendOllama, "llama3")
	require.NoError(t, err, "a single failed post must not fail the run")
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].Text, "placeholder post about space")
}

func TestGenerateWithoutInterestsUsesGeneralTopic(t *testing.T) {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	gen := newTestGenerator(t, store, client)
	garden, child := testGardenAndChild()
	child.Config.Interests = nil
	child.Config.MaxPosts = 2

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("general post", nil).Times(2)

	posts, err := gen.Generate(context.Background(), garden, child, ai.BackendOpenAI, "")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, "general", p.Topic)
	}
}

func TestEffectiveMaxPostsQuietHours(t *testing.T) {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	gen := newTestGenerator(t, store, client)
	_, child := testGardenAndChild()
	child.Config.MaxPosts = 8
	child.Config.MaxPostsQuiet = 3

	// 17:00 is a normal hour.
	gen.now = func() time.Time { return time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC) }
	assert.Equal(t, 8, gen.effectiveMaxPosts(child))

	// 10:00 falls in the school-time quiet window.
	gen.now = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) }
	assert.Equal(t, 3, gen.effectiveMaxPosts(child))

	// 23:00 falls in the late-night quiet window.
	gen.now = func() time.Time { return time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC) }
	assert.Equal(t, 3, gen.effectiveMaxPosts(child))

	// No quiet limit configured means the base applies everywhere.
	child.Config.MaxPostsQuiet = 0
	assert.Equal(t, 8, gen.effectiveMaxPosts(child))
}
