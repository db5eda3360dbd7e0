// Package repository defines the storage interfaces for the garden server
// and provides PostgreSQL and in-memory implementations.
package repository

import (
	"context"

	"garden-server/internal/models"
)

// ParentRepository stores parent accounts.
type ParentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
	GetByUsername(ctx context.Context, username string) (*models.Parent, error)
	GetByID(ctx context.Context, id string) (*models.Parent, error)
}

// GardenRepository stores gardens.
type GardenRepository interface {
	Create(ctx context.Context, garden *models.Garden) error
	GetByID(ctx context.Context, id string) (*models.Garden, error)
	ListByParent(ctx context.Context, parentID string) ([]*models.Garden, error)
}

// ChildRepository stores children and their configs.
type ChildRepository interface {
	Create(ctx context.Context, child *models.Child) error
	GetByID(ctx context.Context, id string) (*models.Child, error)
	ListByGarden(ctx context.Context, gardenID string) ([]*models.Child, error)
	UpdateConfig(ctx context.Context, childID string, cfg models.ChildConfig) error
}

// ProfileRepository stores garden profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListByGarden(ctx context.Context, gardenID string) ([]*models.Profile, error)
}

// PostRepository stores feed posts. A feed generation replaces the child's
// previous feed wholesale.
type PostRepository interface {
	ReplaceForChild(ctx context.Context, childID string, posts []*models.Post) error
	ListByChild(ctx context.Context, childID string) ([]*models.Post, error)
}

// MessageRepository is the append-only per-child message store. Messages
// are never deleted; conversation listings are ordered by created_at
// ascending.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.DirectedMessage) error
	ListByConversation(ctx context.Context, conversationID string) ([]*models.DirectedMessage, error)
	ListByChild(ctx context.Context, childID string) ([]*models.DirectedMessage, error)
}

// SessionRepository stores simulation sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.SimulationSession) error
	GetByID(ctx context.Context, id string) (*models.SimulationSession, error)
	ListByChild(ctx context.Context, childID string) ([]*models.SimulationSession, error)
	// ActiveForPartner resolves "the active session for a partner": the
	// most recently created still-active session between the child and
	// the partner profile, or models.ErrSessionNotFound.
	ActiveForPartner(ctx context.Context, childID, partnerProfileID string) (*models.SimulationSession, error)
	// Update persists outcome fields, reply linkage and the active flag.
	Update(ctx context.Context, session *models.SimulationSession) error
}

// Store bundles every repository so wiring stays in one place.
type Store struct {
	Parents  ParentRepository
	Gardens  GardenRepository
	Children ChildRepository
	Profiles ProfileRepository
	Posts    PostRepository
	Messages MessageRepository
	Sessions SessionRepository
}
