package feed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/models"
	"garden-server/internal/repository"
)

const maxPostLen = 280

var personalityPool = []string{
	"curious", "shy", "outgoing", "creative", "thoughtful", "funny", "adventurous",
}

// Generator builds a fresh feed for a child: weighted topic sampling,
// synthetic author profiles, LLM-written post text and optional news or
// image flavoring. Each run replaces the child's previous feed.
type Generator struct {
	profiles    repository.ProfileRepository
	posts       repository.PostRepository
	completions ai.CompletionClient
	news        *NewsClient
	images      *ImageClient
	rng         *rand.Rand
	now         func() time.Time
	logger      *zap.Logger
}

func NewGenerator(
	profiles repository.ProfileRepository,
	posts repository.PostRepository,
	completions ai.CompletionClient,
	news *NewsClient,
	images *ImageClient,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		profiles:    profiles,
		posts:       posts,
		completions: completions,
		news:        news,
		images:      images,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		logger:      logger.Named("FeedGenerator"),
	}
}

// Generate produces and persists a new feed for child. A completion failure
// for a single post does not fail the run; the post gets placeholder text.
func (g *Generator) Generate(ctx context.Context, garden *models.Garden, child *models.Child, backend ai.Backend, model string) ([]*models.Post, error) {
	topics := g.sampleTopics(child)

	interests := make([]string, 0, len(child.Config.Interests))
	for _, i := range child.Config.Interests {
		interests = append(interests, i.Topic)
	}

	existing, err := g.profiles.ListByGarden(ctx, garden.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load garden profiles: %w", err)
	}

	posts := make([]*models.Post, 0, len(topics))
	for _, topic := range topics {
		author, err := g.findOrCreateAuthor(ctx, garden, existing, topic, child.Config.Mode)
		if err != nil {
			return nil, err
		}
		if !containsProfile(existing, author.ID) {
			existing = append(existing, author)
		}

		flavor := "personal update"
		if g.rng.Float64() < child.Config.NewsRatio {
			flavor = "kid-friendly news"
			if g.news != nil {
				if item := g.news.ForTopic(ctx, topic); item != nil {
					flavor = "kid-friendly news, loosely inspired by this real headline: " + item.Summary()
				}
			}
		}

		tmpl := realisticPrompt
		if child.Config.Mode == models.FeedModeGamified {
			tmpl = gamifiedPrompt
		}
		prompt, err := renderPostPrompt(tmpl, postPromptBindings{
			ChildAge:        child.Config.Age,
			Topic:           topic,
			ProfileName:     author.DisplayName,
			PersonalityTags: author.PersonalityTags,
			ChildInterests:  interests,
			PostFlavor:      flavor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render post prompt: %w", err)
		}

		raw, err := g.completions.Complete(ctx, prompt, backend, model)
		if err != nil {
			g.logger.Warn("post generation failed, using placeholder",
				zap.String("child_id", child.ID),
				zap.String("topic", topic),
				zap.Error(err))
			raw = fmt.Sprintf("This is a placeholder post about %s.", topic)
		}
		text := sanitizePostText(raw, maxPostLen)

		imageURL := ""
		if g.images != nil && g.rng.Float64() < child.Config.ImageRatio {
			imageURL = g.images.URLForTopic(ctx, topic)
		}

		posts = append(posts, &models.Post{
			ID:              models.NewID(models.IDPrefixPost),
			ChildID:         child.ID,
			AuthorProfileID: author.ID,
			AuthorName:      author.DisplayName,
			Text:            text,
			Topic:           topic,
			Mode:            child.Config.Mode,
			ImageURL:        imageURL,
			CreatedAt:       g.now().UTC(),
		})
	}

	if err := g.posts.ReplaceForChild(ctx, child.ID, posts); err != nil {
		return nil, fmt.Errorf("failed to persist feed: %w", err)
	}

	g.logger.Info("feed generated",
		zap.String("child_id", child.ID),
		zap.Int("posts", len(posts)),
		zap.String("backend", string(backend)))
	return posts, nil
}

// sampleTopics picks one topic per post slot. When the slot count covers all
// interests, every interest appears at least once and extras are drawn by
// weight; otherwise all slots are weighted draws. The result is shuffled.
func (g *Generator) sampleTopics(child *models.Child) []string {
	var interests []models.Interest
	for _, i := range child.Config.Interests {
		if i.Weight > 0 {
			interests = append(interests, i)
		}
	}

	maxPosts := g.effectiveMaxPosts(child)
	if len(interests) == 0 {
		topics := make([]string, maxPosts)
		for i := range topics {
			topics[i] = "general"
		}
		return topics
	}

	var sampled []string
	if maxPosts >= len(interests) {
		for _, i := range interests {
			sampled = append(sampled, i.Topic)
		}
		for len(sampled) < maxPosts {
			sampled = append(sampled, g.weightedPick(interests))
		}
	} else {
		for len(sampled) < maxPosts {
			sampled = append(sampled, g.weightedPick(interests))
		}
	}

	g.rng.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	return sampled
}

func (g *Generator) weightedPick(interests []models.Interest) string {
	var total float64
	for _, i := range interests {
		total += i.Weight
	}
	if total <= 0 {
		return interests[g.rng.Intn(len(interests))].Topic
	}
	r := g.rng.Float64() * total
	for _, i := range interests {
		r -= i.Weight
		if r <= 0 {
			return i.Topic
		}
	}
	return interests[len(interests)-1].Topic
}

// effectiveMaxPosts shrinks the feed during quiet hours (roughly school time
// and late night) when a quiet limit is configured.
func (g *Generator) effectiveMaxPosts(child *models.Child) int {
	base := child.Config.MaxPosts
	quiet := child.Config.MaxPostsQuiet
	if quiet <= 0 {
		quiet = base
	}
	hour := g.now().Hour()
	inQuiet := (hour >= 8 && hour < 15) || hour >= 21 || hour < 7
	if inQuiet {
		return quiet
	}
	return base
}

// findOrCreateAuthor returns an existing synthetic profile covering topic,
// or creates one with a generated username and random personality.
func (g *Generator) findOrCreateAuthor(ctx context.Context, garden *models.Garden, existing []*models.Profile, topic string, mode models.FeedMode) (*models.Profile, error) {
	var taken []string
	for _, p := range existing {
		taken = append(taken, p.DisplayName)
		if p.Role != models.RoleSynthetic {
			continue
		}
		for _, t := range p.Topics {
			if t == topic {
				return p, nil
			}
		}
	}

	tags := pickPersonality(g.rng, 2)
	avatarStyle := "realistic"
	if mode == models.FeedModeGamified {
		avatarStyle = "cartoony"
	}

	profile := &models.Profile{
		ID:                 models.NewID(models.IDPrefixProfile),
		GardenID:           garden.ID,
		Role:               models.RoleSynthetic,
		DisplayName:        GenerateUsername(g.rng, mode, []string{topic}, taken),
		AvatarStyle:        avatarStyle,
		PersonalityTags:    tags,
		Topics:             []string{topic},
		IsParentControlled: false,
		AvatarHueShift:     g.rng.Float64(),
		CreatedAt:          g.now().UTC(),
	}
	if err := g.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create author profile: %w", err)
	}
	return profile, nil
}

func pickPersonality(rng *rand.Rand, n int) []string {
	idx := rng.Perm(len(personalityPool))
	tags := make([]string, 0, n)
	for _, i := range idx[:n] {
		tags = append(tags, personalityPool[i])
	}
	return tags
}

func containsProfile(profiles []*models.Profile, id string) bool {
	for _, p := range profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}

// sanitizePostText cleans raw LLM output: strips wrapping quotes, collapses
// lines into one, and truncates with an ellipsis at maxLen runes.
func sanitizePostText(text string, maxLen int) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	if len(t) >= 2 {
		if (strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`)) ||
			(strings.HasPrefix(t, "'") && strings.HasSuffix(t, "'")) {
			t = strings.TrimSpace(t[1 : len(t)-1])
		}
	}

	var parts []string
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	t = strings.Join(parts, " ")

	runes := []rune(t)
	if len(runes) > maxLen {
		t = strings.TrimRight(string(runes[:maxLen-1]), " ") + "…"
	}
	return t
}
