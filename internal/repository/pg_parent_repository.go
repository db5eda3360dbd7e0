package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"garden-server/internal/models"
)

const parentFields = `id, username, email, password_hash, created_at`

// PgParentRepository is the PostgreSQL ParentRepository.
type PgParentRepository struct {
	db *pgxpool.Pool
}

func NewPgParentRepository(db *pgxpool.Pool) *PgParentRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgParentRepository")
	}
	return &PgParentRepository{db: db}
}

func (r *PgParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	query := `INSERT INTO parents (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, parent.ID, parent.Username, parent.Email, parent.PasswordHash, parent.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return models.ErrParentExists
		}
		log.Error().Err(err).Str("username", parent.Username).Msg("failed to create parent")
		return fmt.Errorf("failed to create parent: %w", err)
	}
	log.Info().Str("id", parent.ID).Str("username", parent.Username).Msg("parent created")
	return nil
}

func (r *PgParentRepository) GetByUsername(ctx context.Context, username string) (*models.Parent, error) {
	query := fmt.Sprintf(`SELECT %s FROM parents WHERE username = $1`, parentFields)
	return r.scanOne(ctx, query, username)
}

func (r *PgParentRepository) GetByID(ctx context.Context, id string) (*models.Parent, error) {
	query := fmt.Sprintf(`SELECT %s FROM parents WHERE id = $1`, parentFields)
	return r.scanOne(ctx, query, id)
}

func (r *PgParentRepository) scanOne(ctx context.Context, query string, arg any) (*models.Parent, error) {
	var p models.Parent
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrParentNotFound
		}
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	return &p, nil
}
