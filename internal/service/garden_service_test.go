package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/feed"
	"garden-server/internal/mocks"
	"garden-server/internal/models"
	"garden-server/internal/repository"
	"garden-server/internal/scenario"
	"garden-server/internal/simulation"
)

type fixture struct {
	store       *repository.Store
	client      *mocks.MockCompletionClient
	gardens     *GardenService
	simulations *SimulationService
}

func newFixture(t *testing.T) *fixture {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	logger := zap.NewNop()

	generator := feed.NewGenerator(store.Profiles, store.Posts, client, nil, nil, logger)
	gardens := NewGardenService(store, generator, logger)

	catalog := scenario.Default()
	engine := simulation.NewEngine(catalog, store.Messages, store.Sessions, client, logger)
	simulations := NewSimulationService(gardens, store, catalog, engine, logger)

	return &fixture{store: store, client: client, gardens: gardens, simulations: simulations}
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "conv_child1_profile9", ConversationID("child1", "profile9"))
}

func TestCreateGardenSeedsDefaultChild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	garden, child, err := f.gardens.CreateGarden(ctx, "parent1", "")
	require.NoError(t, err)
	assert.Equal(t, "Default Garden", garden.Name)
	assert.Equal(t, "parent1", garden.ParentID)

	require.NotNil(t, child)
	assert.Equal(t, "Alex", child.Config.Name)
	assert.Equal(t, 10, child.Config.Age)
	assert.Equal(t, models.FeedModeRealistic, child.Config.Mode)
	assert.NotEmpty(t, child.ProfileID)

	// The child's own profile exists in the garden.
	profile, err := f.store.Profiles.GetByID(ctx, child.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleChild, profile.Role)
	assert.Equal(t, "Alex", profile.DisplayName)
}

func TestOwnershipChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	garden, child, err := f.gardens.CreateGarden(ctx, "parent1", "Mine")
	require.NoError(t, err)

	_, err = f.gardens.GetGarden(ctx, "intruder", garden.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, _, err = f.gardens.GetChild(ctx, "intruder", child.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = f.gardens.UpdateChildConfig(ctx, "intruder", child.ID, child.Config)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestSendChildMessageLinksActiveSessionReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, child, err := f.gardens.CreateGarden(ctx, "parent1", "")
	require.NoError(t, err)

	// Start a simulation; the stranger profile is created on the fly.
	f.client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("Hey Alex, what city do you live in?", nil).Once()
	session, _, err := f.simulations.Start(ctx, "parent1", child.ID, "stranger_asking_address", "", ai.BackendOpenAI, "")
	require.NoError(t, err)
	require.True(t, session.IsActive)
	assert.Empty(t, session.ChildReplyMsgID)

	// The child's answer is linked as the session's reply.
	msg, err := f.gardens.SendChildMessage(ctx, "parent1", child.ID, session.PartnerProfileID, "I'm not telling you that.")
	require.NoError(t, err)

	stored, err := f.store.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, stored.ChildReplyMsgID)

	// A second message does not overwrite the recorded reply.
	_, err = f.gardens.SendChildMessage(ctx, "parent1", child.ID, session.PartnerProfileID, "Stop asking.")
	require.NoError(t, err)
	stored, err = f.store.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, stored.ChildReplyMsgID)

	f.client.AssertExpectations(t)
}

func TestSendChildMessageWithoutSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	garden, child, err := f.gardens.CreateGarden(ctx, "parent1", "")
	require.NoError(t, err)

	partner := &models.Profile{
		ID:          models.NewID(models.IDPrefixProfile),
		GardenID:    garden.ID,
		Role:        models.RoleSynthetic,
		DisplayName: "PixelPal19",
	}
	require.NoError(t, f.store.Profiles.Create(ctx, partner))

	msg, err := f.gardens.SendChildMessage(ctx, "parent1", child.ID, partner.ID, "hi!")
	require.NoError(t, err)
	assert.Equal(t, child.ProfileID, msg.SenderProfileID)
	assert.Equal(t, partner.ID, msg.ReceiverProfileID)
	assert.False(t, msg.IsSimulation)

	history, err := f.gardens.ListConversation(ctx, "parent1", child.ID, partner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi!", history[0].Text)
}

func TestScenariosForChildFiltersByAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, child, err := f.gardens.CreateGarden(ctx, "parent1", "")
	require.NoError(t, err)

	// Default child is 10: all three built-in scenarios apply.
	defs, err := f.simulations.ScenariosForChild(ctx, "parent1", child.ID)
	require.NoError(t, err)
	assert.Len(t, defs, 3)

	cfg := child.Config
	cfg.Age = 8
	require.NoError(t, f.gardens.UpdateChildConfig(ctx, "parent1", child.ID, cfg))

	defs, err = f.simulations.ScenariosForChild(ctx, "parent1", child.ID)
	require.NoError(t, err)
	assert.Len(t, defs, 2, "photo-pressure scenario starts at age 10")
}

func TestSimulationTurnThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, child, err := f.gardens.CreateGarden(ctx, "parent1", "")
	require.NoError(t, err)

	f.client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("opening message", nil).Once()
	session, _, err := f.simulations.Start(ctx, "parent1", child.ID, "stranger_asking_address", "", ai.BackendOpenAI, "")
	require.NoError(t, err)

	f.client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("Message: So, which school do you go to?\nEndState: CONTINUE\nReason: keep probing", nil).Once()
	updated, msg, err := f.simulations.Turn(ctx, "parent1", session.ID, ai.BackendOpenAI, "")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "So, which school do you go to?", msg.Text)
	assert.True(t, updated.IsActive)

	_, _, err = f.simulations.Turn(ctx, "intruder", session.ID, ai.BackendOpenAI, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	f.client.AssertExpectations(t)
}
