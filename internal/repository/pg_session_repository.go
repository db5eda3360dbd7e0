package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"garden-server/internal/models"
)

const sessionFields = `id, child_id, scenario_id, partner_profile_id, created_at, incoming_message_id, child_reply_message_id, outcome_label, evaluation_summary, backend_used, model_used, used_fallback, is_active`

// PgSessionRepository is the PostgreSQL SessionRepository.
type PgSessionRepository struct {
	db *pgxpool.Pool
}

func NewPgSessionRepository(db *pgxpool.Pool) *PgSessionRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgSessionRepository")
	}
	return &PgSessionRepository{db: db}
}

func (r *PgSessionRepository) Create(ctx context.Context, session *models.SimulationSession) error {
	query := `INSERT INTO simulation_sessions (id, child_id, scenario_id, partner_profile_id, created_at, incoming_message_id, child_reply_message_id, outcome_label, evaluation_summary, backend_used, model_used, used_fallback, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.Exec(ctx, query,
		session.ID, session.ChildID, session.ScenarioID, session.PartnerProfileID, session.CreatedAt,
		session.IncomingMsgID, session.ChildReplyMsgID, session.OutcomeLabel, session.EvaluationSummary,
		session.BackendUsed, session.ModelUsed, session.UsedFallback, session.IsActive)
	if err != nil {
		log.Error().Err(err).Str("scenario_id", session.ScenarioID).Msg("failed to create simulation session")
		return fmt.Errorf("failed to create simulation session: %w", err)
	}
	log.Info().Str("id", session.ID).Str("scenario_id", session.ScenarioID).Msg("simulation session created")
	return nil
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (*models.SimulationSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM simulation_sessions WHERE id = $1`, sessionFields)
	var s models.SimulationSession
	if err := pgxscan.Get(ctx, r.db, &s, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get simulation session: %w", err)
	}
	return &s, nil
}

func (r *PgSessionRepository) ListByChild(ctx context.Context, childID string) ([]*models.SimulationSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM simulation_sessions WHERE child_id = $1 ORDER BY created_at DESC`, sessionFields)
	var sessions []*models.SimulationSession
	if err := pgxscan.Select(ctx, r.db, &sessions, query, childID); err != nil {
		return nil, fmt.Errorf("failed to list simulation sessions: %w", err)
	}
	return sessions, nil
}

func (r *PgSessionRepository) ActiveForPartner(ctx context.Context, childID, partnerProfileID string) (*models.SimulationSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM simulation_sessions
		WHERE child_id = $1 AND partner_profile_id = $2 AND is_active
		ORDER BY created_at DESC LIMIT 1`, sessionFields)
	var s models.SimulationSession
	if err := pgxscan.Get(ctx, r.db, &s, query, childID, partnerProfileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to resolve active session: %w", err)
	}
	return &s, nil
}

func (r *PgSessionRepository) Update(ctx context.Context, session *models.SimulationSession) error {
	query := `UPDATE simulation_sessions
		SET child_reply_message_id = $1, outcome_label = $2, evaluation_summary = $3, is_active = $4
		WHERE id = $5`
	tag, err := r.db.Exec(ctx, query,
		session.ChildReplyMsgID, session.OutcomeLabel, session.EvaluationSummary, session.IsActive, session.ID)
	if err != nil {
		log.Error().Err(err).Str("id", session.ID).Msg("failed to update simulation session")
		return fmt.Errorf("failed to update simulation session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}
