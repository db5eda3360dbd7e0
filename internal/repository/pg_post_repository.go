package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"garden-server/internal/models"
)

const postFields = `id, child_id, author_profile_id, author_name, text, topic, mode, image_url, created_at`

// PgPostRepository is the PostgreSQL PostRepository.
type PgPostRepository struct {
	db *pgxpool.Pool
}

func NewPgPostRepository(db *pgxpool.Pool) *PgPostRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgPostRepository")
	}
	return &PgPostRepository{db: db}
}

// ReplaceForChild deletes the child's previous feed and inserts the new one
// in a single transaction.
func (r *PgPostRepository) ReplaceForChild(ctx context.Context, childID string, posts []*models.Post) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE child_id = $1`, childID); err != nil {
		return fmt.Errorf("failed to clear previous feed: %w", err)
	}

	for _, p := range posts {
		_, err := tx.Exec(ctx,
			`INSERT INTO posts (id, child_id, author_profile_id, author_name, text, topic, mode, image_url, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.ChildID, p.AuthorProfileID, p.AuthorName, p.Text, p.Topic, p.Mode, p.ImageURL, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit feed replacement: %w", err)
	}
	log.Info().Str("child_id", childID).Int("posts", len(posts)).Msg("feed replaced")
	return nil
}

func (r *PgPostRepository) ListByChild(ctx context.Context, childID string) ([]*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE child_id = $1 ORDER BY created_at`, postFields)
	var posts []*models.Post
	if err := pgxscan.Select(ctx, r.db, &posts, query, childID); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}
