package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"garden-server/internal/models"
)

// PgChildRepository is the PostgreSQL ChildRepository. The child config is
// stored as a JSONB blob since its shape changes often and is only ever
// read whole.
type PgChildRepository struct {
	db *pgxpool.Pool
}

func NewPgChildRepository(db *pgxpool.Pool) *PgChildRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgChildRepository")
	}
	return &PgChildRepository{db: db}
}

func (r *PgChildRepository) Create(ctx context.Context, child *models.Child) error {
	cfg, err := json.Marshal(child.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal child config: %w", err)
	}
	query := `INSERT INTO children (id, garden_id, profile_id, config, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Exec(ctx, query, child.ID, child.GardenID, child.ProfileID, cfg, child.CreatedAt); err != nil {
		log.Error().Err(err).Str("garden_id", child.GardenID).Msg("failed to create child")
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

func (r *PgChildRepository) GetByID(ctx context.Context, id string) (*models.Child, error) {
	query := `SELECT id, garden_id, profile_id, config, created_at FROM children WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	child, err := scanChild(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChildNotFound
		}
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

func (r *PgChildRepository) ListByGarden(ctx context.Context, gardenID string) ([]*models.Child, error) {
	query := `SELECT id, garden_id, profile_id, config, created_at FROM children WHERE garden_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, gardenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []*models.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (r *PgChildRepository) UpdateConfig(ctx context.Context, childID string, cfg models.ChildConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal child config: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE children SET config = $1 WHERE id = $2`, data, childID)
	if err != nil {
		return fmt.Errorf("failed to update child config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrChildNotFound
	}
	return nil
}

func scanChild(row pgx.Row) (*models.Child, error) {
	var child models.Child
	var cfg []byte
	if err := row.Scan(&child.ID, &child.GardenID, &child.ProfileID, &cfg, &child.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &child.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal child config: %w", err)
	}
	return &child, nil
}
