package repository

import (
	"context"
	"sort"
	"sync"

	"garden-server/internal/models"
)

// memoryDB is a process-local store. The service's request model is
// single-writer per child, so a single RWMutex over the whole store is
// enough; the lock also makes the store safe for concurrent tests.
type memoryDB struct {
	mu       sync.RWMutex
	parents  map[string]models.Parent
	gardens  map[string]models.Garden
	children map[string]models.Child
	profiles map[string]models.Profile
	posts    map[string][]models.Post // keyed by child id
	messages []models.DirectedMessage // append-only
	sessions map[string]models.SimulationSession
}

// NewMemoryStore returns a Store backed by in-process maps. Used for demo
// mode (STORAGE=memory) and for tests.
func NewMemoryStore() *Store {
	db := &memoryDB{
		parents:  make(map[string]models.Parent),
		gardens:  make(map[string]models.Garden),
		children: make(map[string]models.Child),
		profiles: make(map[string]models.Profile),
		posts:    make(map[string][]models.Post),
		sessions: make(map[string]models.SimulationSession),
	}
	return &Store{
		Parents:  &memoryParentRepo{db: db},
		Gardens:  &memoryGardenRepo{db: db},
		Children: &memoryChildRepo{db: db},
		Profiles: &memoryProfileRepo{db: db},
		Posts:    &memoryPostRepo{db: db},
		Messages: &memoryMessageRepo{db: db},
		Sessions: &memorySessionRepo{db: db},
	}
}

type memoryParentRepo struct{ db *memoryDB }

func (r *memoryParentRepo) Create(_ context.Context, parent *models.Parent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.parents {
		if p.Username == parent.Username || p.Email == parent.Email {
			return models.ErrParentExists
		}
	}
	r.db.parents[parent.ID] = *parent
	return nil
}

func (r *memoryParentRepo) GetByUsername(_ context.Context, username string) (*models.Parent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.parents {
		if p.Username == username {
			out := p
			return &out, nil
		}
	}
	return nil, models.ErrParentNotFound
}

func (r *memoryParentRepo) GetByID(_ context.Context, id string) (*models.Parent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if p, ok := r.db.parents[id]; ok {
		out := p
		return &out, nil
	}
	return nil, models.ErrParentNotFound
}

type memoryGardenRepo struct{ db *memoryDB }

func (r *memoryGardenRepo) Create(_ context.Context, garden *models.Garden) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.gardens[garden.ID] = *garden
	return nil
}

func (r *memoryGardenRepo) GetByID(_ context.Context, id string) (*models.Garden, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if g, ok := r.db.gardens[id]; ok {
		out := g
		return &out, nil
	}
	return nil, models.ErrGardenNotFound
}

func (r *memoryGardenRepo) ListByParent(_ context.Context, parentID string) ([]*models.Garden, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.Garden
	for _, g := range r.db.gardens {
		if g.ParentID == parentID {
			copied := g
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memoryChildRepo struct{ db *memoryDB }

func (r *memoryChildRepo) Create(_ context.Context, child *models.Child) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.children[child.ID] = *child
	return nil
}

func (r *memoryChildRepo) GetByID(_ context.Context, id string) (*models.Child, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if c, ok := r.db.children[id]; ok {
		out := c
		return &out, nil
	}
	return nil, models.ErrChildNotFound
}

func (r *memoryChildRepo) ListByGarden(_ context.Context, gardenID string) ([]*models.Child, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.Child
	for _, c := range r.db.children {
		if c.GardenID == gardenID {
			copied := c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryChildRepo) UpdateConfig(_ context.Context, childID string, cfg models.ChildConfig) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	child, ok := r.db.children[childID]
	if !ok {
		return models.ErrChildNotFound
	}
	child.Config = cfg
	r.db.children[childID] = child
	return nil
}

type memoryProfileRepo struct{ db *memoryDB }

func (r *memoryProfileRepo) Create(_ context.Context, profile *models.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.profiles[profile.ID] = *profile
	return nil
}

func (r *memoryProfileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if p, ok := r.db.profiles[id]; ok {
		out := p
		return &out, nil
	}
	return nil, models.ErrProfileNotFound
}

func (r *memoryProfileRepo) ListByGarden(_ context.Context, gardenID string) ([]*models.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.Profile
	for _, p := range r.db.profiles {
		if p.GardenID == gardenID {
			copied := p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memoryPostRepo struct{ db *memoryDB }

func (r *memoryPostRepo) ReplaceForChild(_ context.Context, childID string, posts []*models.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	replaced := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		replaced = append(replaced, *p)
	}
	r.db.posts[childID] = replaced
	return nil
}

func (r *memoryPostRepo) ListByChild(_ context.Context, childID string) ([]*models.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	stored := r.db.posts[childID]
	out := make([]*models.Post, 0, len(stored))
	for i := range stored {
		copied := stored[i]
		out = append(out, &copied)
	}
	return out, nil
}

type memoryMessageRepo struct{ db *memoryDB }

func (r *memoryMessageRepo) Append(_ context.Context, msg *models.DirectedMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.messages = append(r.db.messages, *msg)
	return nil
}

func (r *memoryMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]*models.DirectedMessage, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.DirectedMessage
	for i := range r.db.messages {
		if r.db.messages[i].ConversationID == conversationID {
			copied := r.db.messages[i]
			out = append(out, &copied)
		}
	}
	sortMessages(out)
	return out, nil
}

func (r *memoryMessageRepo) ListByChild(_ context.Context, childID string) ([]*models.DirectedMessage, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.DirectedMessage
	for i := range r.db.messages {
		if r.db.messages[i].ChildID == childID {
			copied := r.db.messages[i]
			out = append(out, &copied)
		}
	}
	sortMessages(out)
	return out, nil
}

// sortMessages orders by created_at ascending; insertion order breaks ties
// so two messages appended within the same clock tick keep their order.
func sortMessages(msgs []*models.DirectedMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

type memorySessionRepo struct{ db *memoryDB }

func (r *memorySessionRepo) Create(_ context.Context, session *models.SimulationSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[session.ID] = *session
	return nil
}

func (r *memorySessionRepo) GetByID(_ context.Context, id string) (*models.SimulationSession, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if s, ok := r.db.sessions[id]; ok {
		out := s
		return &out, nil
	}
	return nil, models.ErrSessionNotFound
}

func (r *memorySessionRepo) ListByChild(_ context.Context, childID string) ([]*models.SimulationSession, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.SimulationSession
	for _, s := range r.db.sessions {
		if s.ChildID == childID {
			copied := s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memorySessionRepo) ActiveForPartner(_ context.Context, childID, partnerProfileID string) (*models.SimulationSession, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var latest *models.SimulationSession
	for _, s := range r.db.sessions {
		if !s.IsActive || s.ChildID != childID || s.PartnerProfileID != partnerProfileID {
			continue
		}
		copied := s
		if latest == nil || copied.CreatedAt.After(latest.CreatedAt) {
			latest = &copied
		}
	}
	if latest == nil {
		return nil, models.ErrSessionNotFound
	}
	return latest, nil
}

func (r *memorySessionRepo) Update(_ context.Context, session *models.SimulationSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.sessions[session.ID]; !ok {
		return models.ErrSessionNotFound
	}
	r.db.sessions[session.ID] = *session
	return nil
}
