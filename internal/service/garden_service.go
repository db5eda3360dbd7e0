// Package service holds the application services that sit between the HTTP
// handlers and the repositories: ownership checks, defaults, and
// orchestration of the feed generator and simulation engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/feed"
	"garden-server/internal/models"
	"garden-server/internal/repository"
)

// GardenService manages gardens, children, profiles, feeds and DMs on
// behalf of an authenticated parent.
type GardenService struct {
	store     *repository.Store
	generator *feed.Generator
	logger    *zap.Logger
}

func NewGardenService(store *repository.Store, generator *feed.Generator, logger *zap.Logger) *GardenService {
	return &GardenService{
		store:     store,
		generator: generator,
		logger:    logger.Named("GardenService"),
	}
}

// defaultChildConfig matches the starter child every new garden gets.
func defaultChildConfig() models.ChildConfig {
	return models.ChildConfig{
		Name: "Alex",
		Age:  10,
		Interests: []models.Interest{
			{Topic: "space", Weight: 0.5},
			{Topic: "animals", Weight: 0.3},
			{Topic: "drawing", Weight: 0.2},
		},
		Mode:          models.FeedModeRealistic,
		MaxPosts:      8,
		MaxPostsQuiet: 3,
		NewsRatio:     0.3,
		ImageRatio:    0.25,
	}
}

// ConversationID is the deterministic DM thread key between a child and a
// partner profile.
func ConversationID(childID, partnerProfileID string) string {
	return fmt.Sprintf("conv_%s_%s", childID, partnerProfileID)
}

// CreateGarden creates a garden with one default child.
func (s *GardenService) CreateGarden(ctx context.Context, parentID, name string) (*models.Garden, *models.Child, error) {
	if name == "" {
		name = "Default Garden"
	}
	garden := &models.Garden{
		ID:        models.NewID(models.IDPrefixGarden),
		ParentID:  parentID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Gardens.Create(ctx, garden); err != nil {
		return nil, nil, err
	}

	child, err := s.createChild(ctx, garden, defaultChildConfig())
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("garden created",
		zap.String("garden_id", garden.ID),
		zap.String("parent_id", parentID))
	return garden, child, nil
}

// ListGardens returns the parent's gardens.
func (s *GardenService) ListGardens(ctx context.Context, parentID string) ([]*models.Garden, error) {
	return s.store.Gardens.ListByParent(ctx, parentID)
}

// GetGarden returns a garden after checking the parent owns it.
func (s *GardenService) GetGarden(ctx context.Context, parentID, gardenID string) (*models.Garden, error) {
	garden, err := s.store.Gardens.GetByID(ctx, gardenID)
	if err != nil {
		return nil, err
	}
	if garden.ParentID != parentID {
		return nil, models.ErrForbidden
	}
	return garden, nil
}

// CreateChild adds a child (and its profile) to a garden the parent owns.
func (s *GardenService) CreateChild(ctx context.Context, parentID, gardenID string, cfg models.ChildConfig) (*models.Child, error) {
	garden, err := s.GetGarden(ctx, parentID, gardenID)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg = defaultChildConfig()
	}
	return s.createChild(ctx, garden, cfg)
}

func (s *GardenService) createChild(ctx context.Context, garden *models.Garden, cfg models.ChildConfig) (*models.Child, error) {
	avatarStyle := "realistic"
	if cfg.Mode == models.FeedModeGamified {
		avatarStyle = "cartoony"
	}
	profile := &models.Profile{
		ID:              models.NewID(models.IDPrefixProfile),
		GardenID:        garden.ID,
		Role:            models.RoleChild,
		DisplayName:     cfg.Name,
		AvatarStyle:     avatarStyle,
		PersonalityTags: []string{},
		Topics:          []string{},
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create child profile: %w", err)
	}

	child := &models.Child{
		ID:        models.NewID(models.IDPrefixChild),
		GardenID:  garden.ID,
		ProfileID: profile.ID,
		Config:    cfg,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Children.Create(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// ListChildren returns the children of a garden the parent owns.
func (s *GardenService) ListChildren(ctx context.Context, parentID, gardenID string) ([]*models.Child, error) {
	if _, err := s.GetGarden(ctx, parentID, gardenID); err != nil {
		return nil, err
	}
	return s.store.Children.ListByGarden(ctx, gardenID)
}

// GetChild loads a child and its garden, verifying parent ownership.
func (s *GardenService) GetChild(ctx context.Context, parentID, childID string) (*models.Child, *models.Garden, error) {
	child, err := s.store.Children.GetByID(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	garden, err := s.store.Gardens.GetByID(ctx, child.GardenID)
	if err != nil {
		return nil, nil, err
	}
	if garden.ParentID != parentID {
		return nil, nil, models.ErrForbidden
	}
	return child, garden, nil
}

// UpdateChildConfig replaces a child's config.
func (s *GardenService) UpdateChildConfig(ctx context.Context, parentID, childID string, cfg models.ChildConfig) error {
	if _, _, err := s.GetChild(ctx, parentID, childID); err != nil {
		return err
	}
	return s.store.Children.UpdateConfig(ctx, childID, cfg)
}

// ListProfiles returns the profiles of a garden the parent owns.
func (s *GardenService) ListProfiles(ctx context.Context, parentID, gardenID string) ([]*models.Profile, error) {
	if _, err := s.GetGarden(ctx, parentID, gardenID); err != nil {
		return nil, err
	}
	return s.store.Profiles.ListByGarden(ctx, gardenID)
}

// GenerateFeed builds a fresh feed for a child.
func (s *GardenService) GenerateFeed(ctx context.Context, parentID, childID string, backend ai.Backend, model string) ([]*models.Post, error) {
	child, garden, err := s.GetChild(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, garden, child, backend, model)
}

// ListFeed returns the child's current feed.
func (s *GardenService) ListFeed(ctx context.Context, parentID, childID string) ([]*models.Post, error) {
	if _, _, err := s.GetChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	return s.store.Posts.ListByChild(ctx, childID)
}

// SendChildMessage appends a DM sent as the child. If the partner has an
// active simulation session whose child reply is not yet recorded, the new
// message is linked as that reply.
func (s *GardenService) SendChildMessage(ctx context.Context, parentID, childID, partnerProfileID, text string) (*models.DirectedMessage, error) {
	child, _, err := s.GetChild(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Profiles.GetByID(ctx, partnerProfileID); err != nil {
		return nil, err
	}

	msg := &models.DirectedMessage{
		ID:                models.NewID(models.IDPrefixMessage),
		ChildID:           child.ID,
		ConversationID:    ConversationID(child.ID, partnerProfileID),
		SenderProfileID:   child.ProfileID,
		ReceiverProfileID: partnerProfileID,
		Text:              text,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.Messages.Append(ctx, msg); err != nil {
		return nil, err
	}

	session, err := s.store.Sessions.ActiveForPartner(ctx, child.ID, partnerProfileID)
	if err != nil {
		if !errors.Is(err, models.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to check active session: %w", err)
		}
		return msg, nil
	}
	if session.ChildReplyMsgID == "" {
		session.ChildReplyMsgID = msg.ID
		if err := s.store.Sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to link child reply: %w", err)
		}
	}
	return msg, nil
}

// ListConversation returns the DM history between a child and a partner,
// oldest first.
func (s *GardenService) ListConversation(ctx context.Context, parentID, childID, partnerProfileID string) ([]*models.DirectedMessage, error) {
	if _, _, err := s.GetChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	return s.store.Messages.ListByConversation(ctx, ConversationID(childID, partnerProfileID))
}
