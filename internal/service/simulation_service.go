package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/models"
	"garden-server/internal/repository"
	"garden-server/internal/scenario"
	"garden-server/internal/simulation"
)

// SimulationService exposes the scenario catalog and simulation engine
// with parent ownership checks applied.
type SimulationService struct {
	gardens *GardenService
	store   *repository.Store
	catalog *scenario.Catalog
	engine  *simulation.Engine
	logger  *zap.Logger
}

func NewSimulationService(
	gardens *GardenService,
	store *repository.Store,
	catalog *scenario.Catalog,
	engine *simulation.Engine,
	logger *zap.Logger,
) *SimulationService {
	return &SimulationService{
		gardens: gardens,
		store:   store,
		catalog: catalog,
		engine:  engine,
		logger:  logger.Named("SimulationService"),
	}
}

// ScenariosForChild lists the scenarios applicable to a child's age.
func (s *SimulationService) ScenariosForChild(ctx context.Context, parentID, childID string) ([]scenario.Definition, error) {
	child, _, err := s.gardens.GetChild(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}
	return s.catalog.ForAge(child.Config.Age), nil
}

// Start opens a simulation session against a synthetic partner profile.
// When partnerProfileID is empty a fresh stranger profile is created.
func (s *SimulationService) Start(ctx context.Context, parentID, childID, scenarioID, partnerProfileID string, backend ai.Backend, model string) (*models.SimulationSession, *models.DirectedMessage, error) {
	child, garden, err := s.gardens.GetChild(ctx, parentID, childID)
	if err != nil {
		return nil, nil, err
	}

	if partnerProfileID == "" {
		partner, err := s.createStrangerProfile(ctx, garden, child.Config.Mode)
		if err != nil {
			return nil, nil, err
		}
		partnerProfileID = partner.ID
	} else if _, err := s.store.Profiles.GetByID(ctx, partnerProfileID); err != nil {
		return nil, nil, err
	}

	conversationID := ConversationID(child.ID, partnerProfileID)
	return s.engine.StartSession(ctx, child, scenarioID, partnerProfileID, backend, model, conversationID)
}

// Turn advances an active session by one partner turn.
func (s *SimulationService) Turn(ctx context.Context, parentID, sessionID string, backend ai.Backend, model string) (*models.SimulationSession, *models.DirectedMessage, error) {
	child, session, err := s.loadOwnedSession(ctx, parentID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	conversationID := ConversationID(child.ID, session.PartnerProfileID)
	msg, err := s.engine.NextTurn(ctx, child, session, backend, model, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return session, msg, nil
}

// Evaluate runs an ad-hoc evaluation of a session's conversation without
// changing the session.
func (s *SimulationService) Evaluate(ctx context.Context, parentID, sessionID string, backend ai.Backend, model string) (models.OutcomeLabel, string, error) {
	child, session, err := s.loadOwnedSession(ctx, parentID, sessionID)
	if err != nil {
		return "", "", err
	}
	conversationID := ConversationID(child.ID, session.PartnerProfileID)
	label, summary := s.engine.Evaluate(ctx, child, session, backend, model, conversationID)
	return label, summary, nil
}

// ListSessions returns a child's sessions, newest first.
func (s *SimulationService) ListSessions(ctx context.Context, parentID, childID string) ([]*models.SimulationSession, error) {
	if _, _, err := s.gardens.GetChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	return s.store.Sessions.ListByChild(ctx, childID)
}

// GetSession returns one session after an ownership check.
func (s *SimulationService) GetSession(ctx context.Context, parentID, sessionID string) (*models.SimulationSession, error) {
	_, session, err := s.loadOwnedSession(ctx, parentID, sessionID)
	return session, err
}

func (s *SimulationService) loadOwnedSession(ctx context.Context, parentID, sessionID string) (*models.Child, *models.SimulationSession, error) {
	session, err := s.store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	child, _, err := s.gardens.GetChild(ctx, parentID, session.ChildID)
	if err != nil {
		return nil, nil, err
	}
	return child, session, nil
}

func (s *SimulationService) createStrangerProfile(ctx context.Context, garden *models.Garden, mode models.FeedMode) (*models.Profile, error) {
	avatarStyle := "realistic"
	if mode == models.FeedModeGamified {
		avatarStyle = "cartoony"
	}
	profile := &models.Profile{
		ID:              models.NewID(models.IDPrefixProfile),
		GardenID:        garden.ID,
		Role:            models.RoleSynthetic,
		DisplayName:     "NewFriend" + profileSuffix(),
		AvatarStyle:     avatarStyle,
		PersonalityTags: []string{"friendly"},
		Topics:          []string{},
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Debug("created stranger profile for simulation",
		zap.String("profile_id", profile.ID),
		zap.String("garden_id", garden.ID))
	return profile, nil
}

func profileSuffix() string {
	// Short numeric tail keeps generated stranger names distinct enough.
	return time.Now().UTC().Format("0405")
}
