package simulation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/mocks"
	"garden-server/internal/models"
	"garden-server/internal/repository"
	"garden-server/internal/scenario"
)

const testConversationID = "conv_child1_partner1"

func testChild() *models.Child {
	return &models.Child{
		ID:        "child1",
		GardenID:  "garden1",
		ProfileID: "profile_child1",
		Config: models.ChildConfig{
			Name: "Alex",
			Age:  10,
			Mode: models.FeedModeRealistic,
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *repository.Store, *mocks.MockCompletionClient) {
	store := repository.NewMemoryStore()
	client := mocks.NewMockCompletionClient(t)
	engine := NewEngine(scenario.Default(), store.Messages, store.Sessions, client, zap.NewNop())
	return engine, store, client
}

func TestStartSessionSuccess(t *testing.T) {
	engine, store, client := newTestEngine(t)
	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "gpt-test").
		Return("Hey Alex! What city do you live in?", nil).Once()

	session, msg, err := engine.StartSession(context.Background(), testChild(), "stranger_asking_address", "partner1", ai.BackendOpenAI, "gpt-test", testConversationID)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotNil(t, msg)

	assert.True(t, session.IsActive)
	assert.False(t, session.UsedFallback)
	assert.Equal(t, "openai", session.BackendUsed)
	assert.Equal(t, "gpt-test", session.ModelUsed)
	assert.Equal(t, msg.ID, session.IncomingMsgID)

	assert.Equal(t, "partner1", msg.SenderProfileID)
	assert.Equal(t, "profile_child1", msg.ReceiverProfileID)
	assert.True(t, msg.IsSimulation)
	assert.Equal(t, "stranger_asking_address", msg.SimulationTag)

	// Both the message and the session are persisted.
	msgs, err := store.Messages.ListByConversation(context.Background(), testConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	stored, err := store.Sessions.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	client.AssertExpectations(t)
}

func TestStartSessionUnknownScenario(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	session, msg, err := engine.StartSession(context.Background(), testChild(), "no_such_scenario", "partner1", ai.BackendOpenAI, "", testConversationID)
	assert.ErrorIs(t, err, models.ErrUnknownScenario)
	assert.Nil(t, session)
	assert.Nil(t, msg)
}

func TestStartSessionFallsBackToCannedMessage(t *testing.T) {
	engine, _, client := newTestEngine(t)
	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOllama, "llama3").
		Return("", errors.New("backend unreachable")).Once()

	session, msg, err := engine.StartSession(context.Background(), testChild(), "stranger_asking_address", "partner1", ai.BackendOllama, "llama3", testConversationID)
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.True(t, session.UsedFallback)
	assert.Equal(t, "ollama", session.BackendUsed)
	assert.Equal(t, "", session.ModelUsed)
	assert.True(t, session.IsActive)
	// The canned opener is the rendered template, with the child's name in.
	assert.Contains(t, msg.Text, "Alex")

	client.AssertExpectations(t)
}

func TestNextTurnAppendsPartnerMessage(t *testing.T) {
	engine, store, client := newTestEngine(t)
	child := testChild()

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("opening", nil).Once()
	session, _, err := engine.StartSession(context.Background(), child, "stranger_asking_address", "partner1", ai.BackendOpenAI, "", testConversationID)
	require.NoError(t, err)

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("Message: Hey there!\nEndState: CONTINUE\nReason: testing", nil).Once()
	msg, err := engine.NextTurn(context.Background(), child, session, ai.BackendOpenAI, "", testConversationID)
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, "Hey there!", msg.Text)
	assert.Equal(t, "partner1", msg.SenderProfileID)
	assert.True(t, msg.IsSimulation)
	assert.True(t, session.IsActive)

	msgs, err := store.Messages.ListByConversation(context.Background(), testConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	client.AssertExpectations(t)
}

func TestNextTurnEndEvaluatesAndDeactivates(t *testing.T) {
	engine, store, client := newTestEngine(t)
	child := testChild()

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("opening", nil).Once()
	session, _, err := engine.StartSession(context.Background(), child, "stranger_asking_address", "partner1", ai.BackendOpenAI, "", testConversationID)
	require.NoError(t, err)

	// First call decides END with no message, second is the evaluation.
	client.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return !isEvaluationPrompt(prompt)
	}), ai.BackendOpenAI, "").
		Return("Message: NONE\nEndState: END\nReason: done", nil).Once()
	client.On("Complete", mock.Anything, mock.MatchedBy(isEvaluationPrompt), ai.BackendOpenAI, "").
		Return("Label: SAFE\nSummary: The child did well.", nil).Once()

	msg, err := engine.NextTurn(context.Background(), child, session, ai.BackendOpenAI, "", testConversationID)
	require.NoError(t, err)
	assert.Nil(t, msg, "NONE message must not produce a DM")

	assert.False(t, session.IsActive)
	assert.Equal(t, models.OutcomeSafe, session.OutcomeLabel)
	assert.Equal(t, "The child did well.", session.EvaluationSummary)

	// The deactivated, evaluated session is persisted atomically.
	stored, err := store.Sessions.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, models.OutcomeSafe, stored.OutcomeLabel)

	client.AssertExpectations(t)
}

func TestNextTurnOnTerminatedSession(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	session := &models.SimulationSession{ID: "sim1", ScenarioID: "stranger_asking_address", IsActive: false}

	msg, err := engine.NextTurn(context.Background(), testChild(), session, ai.BackendOpenAI, "", testConversationID)
	assert.ErrorIs(t, err, models.ErrSessionNotActive)
	assert.Nil(t, msg)
}

func TestNextTurnCompletionFailureIsSkipped(t *testing.T) {
	engine, store, client := newTestEngine(t)
	child := testChild()

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("opening", nil).Once()
	session, _, err := engine.StartSession(context.Background(), child, "stranger_asking_address", "partner1", ai.BackendOpenAI, "", testConversationID)
	require.NoError(t, err)

	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("", errors.New("timeout")).Once()
	msg, err := engine.NextTurn(context.Background(), child, session, ai.BackendOpenAI, "", testConversationID)
	assert.NoError(t, err)
	assert.Nil(t, msg)

	// Nothing changed: session still active, no extra messages.
	assert.True(t, session.IsActive)
	msgs, err := store.Messages.ListByConversation(context.Background(), testConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	client.AssertExpectations(t)
}

func TestNextTurnEmptyHistoryIsNoop(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	session := &models.SimulationSession{ID: "sim1", ScenarioID: "stranger_asking_address", PartnerProfileID: "partner1", IsActive: true}

	// No messages were ever appended for this conversation.
	msg, err := engine.NextTurn(context.Background(), testChild(), session, ai.BackendOpenAI, "", "conv_empty")
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.True(t, session.IsActive)
}

func TestNextTurnUnresolvedScenarioIsNoop(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	session := &models.SimulationSession{ID: "sim1", ScenarioID: "retired_scenario", IsActive: true}

	msg, err := engine.NextTurn(context.Background(), testChild(), session, ai.BackendOpenAI, "", testConversationID)
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.True(t, session.IsActive)
}

func TestEvaluateNeverErrors(t *testing.T) {
	engine, _, client := newTestEngine(t)
	child := testChild()

	// Unknown scenario degrades to NEEDS_REVIEW with a diagnostic summary.
	session := &models.SimulationSession{ID: "sim1", ScenarioID: "gone", IsActive: false}
	label, summary := engine.Evaluate(context.Background(), child, session, ai.BackendOpenAI, "", testConversationID)
	assert.Equal(t, models.OutcomeNeedsReview, label)
	assert.NotEmpty(t, summary)

	// Completion failure degrades the same way.
	session = &models.SimulationSession{ID: "sim2", ScenarioID: "stranger_asking_address", IsActive: false}
	client.On("Complete", mock.Anything, mock.Anything, ai.BackendOpenAI, "").
		Return("", errors.New("unavailable")).Once()
	label, summary = engine.Evaluate(context.Background(), child, session, ai.BackendOpenAI, "", testConversationID)
	assert.Equal(t, models.OutcomeNeedsReview, label)
	assert.NotEmpty(t, summary)

	client.AssertExpectations(t)
}

func isEvaluationPrompt(prompt string) bool {
	// The evaluation prompt asks for a Label: line; turn prompts ask for
	// EndState.
	return strings.Contains(prompt, "Label:") && !strings.Contains(prompt, "EndState:")
}
