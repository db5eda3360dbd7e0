// Package simulation owns the risk-scenario session lifecycle: starting a
// scenario conversation, generating adversarial partner turns, deciding
// termination, and producing the safety evaluation a parent reviews.
package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/models"
	"garden-server/internal/repository"
	"garden-server/internal/scenario"
	"garden-server/internal/schemas"
)

// Engine drives simulation sessions. It is stateless: all session and
// message state lives in the repositories it is given.
type Engine struct {
	catalog     *scenario.Catalog
	messages    repository.MessageRepository
	sessions    repository.SessionRepository
	completions ai.CompletionClient
	logger      *zap.Logger
}

// NewEngine creates a simulation engine.
func NewEngine(
	catalog *scenario.Catalog,
	messages repository.MessageRepository,
	sessions repository.SessionRepository,
	completions ai.CompletionClient,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		catalog:     catalog,
		messages:    messages,
		sessions:    sessions,
		completions: completions,
		logger:      logger.Named("SimulationEngine"),
	}
}

// StartSession opens a new scenario conversation: it generates (or cans)
// the partner's opening message, appends it to the conversation and creates
// an active session. An unknown scenario or an unrenderable template is a
// configuration error and fails hard; a completion failure is not, the
// scenario's canned message is used instead.
func (e *Engine) StartSession(
	ctx context.Context,
	child *models.Child,
	scenarioID string,
	partnerProfileID string,
	backend ai.Backend,
	model string,
	conversationID string,
) (*models.SimulationSession, *models.DirectedMessage, error) {
	def := e.catalog.ByID(scenarioID)
	if def == nil {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrUnknownScenario, scenarioID)
	}

	bindings := scenario.Bindings{ChildAge: child.Config.Age, ChildName: child.Config.Name}
	prompt, err := buildStartPrompt(def, bindings)
	if err != nil {
		return nil, nil, err
	}

	usedFallback := false
	text, err := e.completions.Complete(ctx, prompt, backend, model)
	if err != nil {
		// Session start must survive completion outages: fall back to
		// the canned opener. A render failure here is still fatal, a
		// broken canned template is a configuration defect.
		e.logger.Warn("opening message generation failed, using canned fallback",
			zap.String("scenario_id", scenarioID),
			zap.String("backend", string(backend)),
			zap.Error(err))
		text, err = scenario.Render(def.CannedMessageTemplate, bindings)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to render canned template for scenario %s: %w", def.ID, err)
		}
		usedFallback = true
	}

	now := time.Now().UTC()
	msg := &models.DirectedMessage{
		ID:                models.NewID(models.IDPrefixMessage),
		ChildID:           child.ID,
		ConversationID:    conversationID,
		SenderProfileID:   partnerProfileID,
		ReceiverProfileID: child.ProfileID,
		Text:              strings.TrimSpace(text),
		CreatedAt:         now,
		IsSimulation:      true,
		SimulationTag:     def.ID,
	}
	if err := e.messages.Append(ctx, msg); err != nil {
		return nil, nil, fmt.Errorf("failed to append opening message: %w", err)
	}

	session := &models.SimulationSession{
		ID:               models.NewID(models.IDPrefixSession),
		ChildID:          child.ID,
		ScenarioID:       def.ID,
		PartnerProfileID: partnerProfileID,
		CreatedAt:        now,
		IncomingMsgID:    msg.ID,
		BackendUsed:      string(backend),
		ModelUsed:        model,
		UsedFallback:     usedFallback,
		IsActive:         true,
	}
	if usedFallback {
		session.ModelUsed = ""
	}
	if err := e.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	e.logger.Info("simulation session started",
		zap.String("session_id", session.ID),
		zap.String("scenario_id", def.ID),
		zap.String("child_id", child.ID),
		zap.Bool("used_fallback", usedFallback))
	return session, msg, nil
}

// NextTurn asks the agent for its next message in an active session and
// applies its termination decision.
//
// It returns (nil, nil) without touching any state when the scenario no
// longer resolves, when the conversation has no history yet, or when the
// completion call fails: all recoverable, expected conditions. Requesting a
// turn on a terminated session is a caller error.
//
// When the agent decides to END, the session is deactivated and evaluated
// in the same call, so callers never observe an inactive session without
// an outcome.
func (e *Engine) NextTurn(
	ctx context.Context,
	child *models.Child,
	session *models.SimulationSession,
	backend ai.Backend,
	model string,
	conversationID string,
) (*models.DirectedMessage, error) {
	if !session.IsActive {
		return nil, models.ErrSessionNotActive
	}

	def := e.catalog.ByID(session.ScenarioID)
	if def == nil {
		e.logger.Warn("turn skipped: scenario no longer in catalog",
			zap.String("session_id", session.ID),
			zap.String("scenario_id", session.ScenarioID))
		return nil, nil
	}

	msgs, err := e.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	history := RenderHistory(msgs, child.ProfileID, DefaultHistoryWindow)
	if history == "" {
		// A turn cannot be generated with zero context.
		return nil, nil
	}

	bindings := scenario.Bindings{ChildAge: child.Config.Age, ChildName: child.Config.Name}
	prompt, err := buildContinuationPrompt(def, bindings, history)
	if err != nil {
		return nil, err
	}

	raw, err := e.completions.Complete(ctx, prompt, backend, model)
	if err != nil {
		// Transient: skip this turn, leave the session untouched.
		e.logger.Warn("turn generation failed, skipping turn",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return nil, nil
	}

	reply := schemas.ParseTurnReply(raw)
	if reply.Reason != "" {
		e.logger.Debug("agent turn decision",
			zap.String("session_id", session.ID),
			zap.Bool("end", reply.End),
			zap.String("reason", reply.Reason))
	}

	var msg *models.DirectedMessage
	if reply.Message != "" {
		msg = &models.DirectedMessage{
			ID:                models.NewID(models.IDPrefixMessage),
			ChildID:           child.ID,
			ConversationID:    conversationID,
			SenderProfileID:   session.PartnerProfileID,
			ReceiverProfileID: child.ProfileID,
			Text:              reply.Message,
			CreatedAt:         time.Now().UTC(),
			IsSimulation:      true,
			SimulationTag:     session.ScenarioID,
		}
		if err := e.messages.Append(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to append turn message: %w", err)
		}
	}

	if reply.End {
		// Deactivation and evaluation are one atomic step from the
		// caller's point of view.
		session.IsActive = false
		label, summary := e.Evaluate(ctx, child, session, backend, model, conversationID)
		session.OutcomeLabel = label
		session.EvaluationSummary = summary
		if err := e.sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to finalize session: %w", err)
		}
		e.logger.Info("simulation session ended",
			zap.String("session_id", session.ID),
			zap.String("outcome", string(label)))
	}

	return msg, nil
}

// Evaluate scores the child's behavior in the session's conversation. It
// never fails: every error path degrades to (NEEDS_REVIEW, diagnostic).
// The session itself is not mutated; the caller decides what to persist.
func (e *Engine) Evaluate(
	ctx context.Context,
	child *models.Child,
	session *models.SimulationSession,
	backend ai.Backend,
	model string,
	conversationID string,
) (models.OutcomeLabel, string) {
	def := e.catalog.ByID(session.ScenarioID)
	if def == nil {
		return models.OutcomeNeedsReview, "Scenario data missing; unable to evaluate."
	}

	msgs, err := e.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return models.OutcomeNeedsReview, fmt.Sprintf("Could not load the conversation for evaluation: %v", err)
	}
	history := RenderHistory(msgs, child.ProfileID, DefaultHistoryWindow)

	prompt := buildEvaluationPrompt(def, child.Config.Age, history)
	raw, err := e.completions.Complete(ctx, prompt, backend, model)
	if err != nil {
		return models.OutcomeNeedsReview, fmt.Sprintf("Could not run evaluation (%s %s): %v", backend, model, err)
	}

	reply := schemas.ParseEvaluationReply(raw)
	if !reply.LabelFound {
		e.logger.Warn("evaluation reply had no label line",
			zap.String("session_id", session.ID))
	}
	return reply.Label, reply.Summary
}
