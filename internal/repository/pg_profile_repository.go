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

const profileFields = `id, garden_id, role, display_name, avatar_style, personality_tags, topics, is_parent_controlled, avatar_hue_shift, created_at`

// PgProfileRepository is the PostgreSQL ProfileRepository.
type PgProfileRepository struct {
	db *pgxpool.Pool
}

func NewPgProfileRepository(db *pgxpool.Pool) *PgProfileRepository {
	if db == nil {
		log.Fatal().Msg("database pool is nil for PgProfileRepository")
	}
	return &PgProfileRepository{db: db}
}

func (r *PgProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `INSERT INTO profiles (id, garden_id, role, display_name, avatar_style, personality_tags, topics, is_parent_controlled, avatar_hue_shift, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		profile.ID, profile.GardenID, profile.Role, profile.DisplayName, profile.AvatarStyle,
		profile.PersonalityTags, profile.Topics, profile.IsParentControlled, profile.AvatarHueShift, profile.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("display_name", profile.DisplayName).Msg("failed to create profile")
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileFields)
	var p models.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.GardenID, &p.Role, &p.DisplayName, &p.AvatarStyle,
		&p.PersonalityTags, &p.Topics, &p.IsParentControlled, &p.AvatarHueShift, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *PgProfileRepository) ListByGarden(ctx context.Context, gardenID string) ([]*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE garden_id = $1 ORDER BY created_at`, profileFields)
	var profiles []*models.Profile
	if err := pgxscan.Select(ctx, r.db, &profiles, query, gardenID); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}
