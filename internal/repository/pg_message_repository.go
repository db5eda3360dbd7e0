package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"garden-server/internal/models"
)

const messageFields = `id, child_id, conversation_id, sender_profile_id, receiver_profile_id, text, created_at, is_simulation, simulation_tag`

// PgMessageRepository is the PostgreSQL MessageRepository. The table is
// append-only; there is no update or delete path.
type PgMessageRepository struct {
	db *pgxpool.Pool
}

func NewPgMessageRepository(db *pgxpool.Pool) *PgMessageRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgMessageRepository")
	}
	return &PgMessageRepository{db: db}
}

func (r *PgMessageRepository) Append(ctx context.Context, msg *models.DirectedMessage) error {
	query := `INSERT INTO dm_messages (id, child_id, conversation_id, sender_profile_id, receiver_profile_id, text, created_at, is_simulation, simulation_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.ChildID, msg.ConversationID, msg.SenderProfileID, msg.ReceiverProfileID,
		msg.Text, msg.CreatedAt, msg.IsSimulation, msg.SimulationTag)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", msg.ConversationID).Msg("failed to append message")
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.DirectedMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM dm_messages WHERE conversation_id = $1 ORDER BY created_at`, messageFields)
	var msgs []*models.DirectedMessage
	if err := pgxscan.Select(ctx, r.db, &msgs, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to list conversation messages: %w", err)
	}
	return msgs, nil
}

func (r *PgMessageRepository) ListByChild(ctx context.Context, childID string) ([]*models.DirectedMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM dm_messages WHERE child_id = $1 ORDER BY created_at`, messageFields)
	var msgs []*models.DirectedMessage
	if err := pgxscan.Select(ctx, r.db, &msgs, query, childID); err != nil {
		return nil, fmt.Errorf("failed to list child messages: %w", err)
	}
	return msgs, nil
}
