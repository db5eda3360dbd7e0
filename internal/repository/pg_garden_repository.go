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

const gardenFields = `id, parent_id, name, created_at`

// PgGardenRepository is the PostgreSQL GardenRepository.
type PgGardenRepository struct {
	db *pgxpool.Pool
}

func NewPgGardenRepository(db *pgxpool.Pool) *PgGardenRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgGardenRepository")
	}
	return &PgGardenRepository{db: db}
}

func (r *PgGardenRepository) Create(ctx context.Context, garden *models.Garden) error {
	query := `INSERT INTO gardens (id, parent_id, name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, garden.ID, garden.ParentID, garden.Name, garden.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("name", garden.Name).Msg("failed to create garden")
		return fmt.Errorf("failed to create garden: %w", err)
	}
	return nil
}

func (r *PgGardenRepository) GetByID(ctx context.Context, id string) (*models.Garden, error) {
	query := fmt.Sprintf(`SELECT %s FROM gardens WHERE id = $1`, gardenFields)
	var g models.Garden
	err := r.db.QueryRow(ctx, query, id).Scan(&g.ID, &g.ParentID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGardenNotFound
		}
		return nil, fmt.Errorf("failed to get garden: %w", err)
	}
	return &g, nil
}

func (r *PgGardenRepository) ListByParent(ctx context.Context, parentID string) ([]*models.Garden, error) {
	query := fmt.Sprintf(`SELECT %s FROM gardens WHERE parent_id = $1 ORDER BY created_at`, gardenFields)
	var gardens []*models.Garden
	if err := pgxscan.Select(ctx, r.db, &gardens, query, parentID); err != nil {
		return nil, fmt.Errorf("failed to list gardens: %w", err)
	}
	return gardens, nil
}
