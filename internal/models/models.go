package models

import "time"

// FeedMode selects the presentation style of a child's feed.
type FeedMode string

const (
	FeedModeRealistic FeedMode = "realistic"
	FeedModeGamified  FeedMode = "gamified"
)

// ProfileRole tells who is behind a profile.
type ProfileRole string

const (
	RoleChild     ProfileRole = "child"
	RoleSynthetic ProfileRole = "synthetic"
	RoleParent    ProfileRole = "parent"
)

// OutcomeLabel is the verdict of a simulation evaluation.
type OutcomeLabel string

const (
	OutcomeSafe        OutcomeLabel = "SAFE"
	OutcomeUnsafe      OutcomeLabel = "UNSAFE"
	OutcomeNeedsReview OutcomeLabel = "NEEDS_REVIEW"
)

// Parent is an account that owns gardens.
type Parent struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Garden is a parent-curated space holding children and profiles.
type Garden struct {
	ID        string    `json:"id" db:"id"`
	ParentID  string    `json:"parent_id" db:"parent_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Interest is one weighted topic in a child's config. Weight is relative;
// the feed generator normalizes across all interests.
type Interest struct {
	Topic  string  `json:"topic"`
	Weight float64 `json:"weight"`
}

// ChildConfig is the parent-editable part of a child. Stored as JSONB.
type ChildConfig struct {
	Name          string     `json:"name"`
	Age           int        `json:"age"`
	Interests     []Interest `json:"interests"`
	Mode          FeedMode   `json:"mode"`
	MaxPosts      int        `json:"max_posts"`
	MaxPostsQuiet int        `json:"max_posts_quiet"`
	NewsRatio     float64    `json:"news_ratio"`
	ImageRatio    float64    `json:"image_ratio"`
}

// Child is one child within a garden. ProfileID is the child's own profile,
// used as the sender of their messages.
type Child struct {
	ID        string      `json:"id" db:"id"`
	GardenID  string      `json:"garden_id" db:"garden_id"`
	ProfileID string      `json:"profile_id" db:"profile_id"`
	Config    ChildConfig `json:"config" db:"config"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// Profile is an account visible inside a garden: the child themselves,
// a parent-controlled persona, or a synthetic feed author.
type Profile struct {
	ID                 string      `json:"id" db:"id"`
	GardenID           string      `json:"garden_id" db:"garden_id"`
	Role               ProfileRole `json:"role" db:"role"`
	DisplayName        string      `json:"display_name" db:"display_name"`
	AvatarStyle        string      `json:"avatar_style" db:"avatar_style"`
	PersonalityTags    []string    `json:"personality_tags" db:"personality_tags"`
	Topics             []string    `json:"topics" db:"topics"`
	IsParentControlled bool        `json:"is_parent_controlled" db:"is_parent_controlled"`
	AvatarHueShift     float64     `json:"avatar_hue_shift" db:"avatar_hue_shift"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
}

// Post is one generated feed item for a child.
type Post struct {
	ID              string    `json:"id" db:"id"`
	ChildID         string    `json:"child_id" db:"child_id"`
	AuthorProfileID string    `json:"author_profile_id" db:"author_profile_id"`
	AuthorName      string    `json:"author_name" db:"author_name"`
	Text            string    `json:"text" db:"text"`
	Topic           string    `json:"topic" db:"topic"`
	Mode            FeedMode  `json:"mode" db:"mode"`
	ImageURL        string    `json:"image_url" db:"image_url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// DirectedMessage is one DM between two profiles of a child's garden.
// Messages are append-only; edits and deletes do not exist.
type DirectedMessage struct {
	ID                string    `json:"id" db:"id"`
	ChildID           string    `json:"child_id" db:"child_id"`
	ConversationID    string    `json:"conversation_id" db:"conversation_id"`
	SenderProfileID   string    `json:"sender_profile_id" db:"sender_profile_id"`
	ReceiverProfileID string    `json:"receiver_profile_id" db:"receiver_profile_id"`
	Text              string    `json:"text" db:"text"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	IsSimulation      bool      `json:"is_simulation" db:"is_simulation"`
	SimulationTag     string    `json:"simulation_tag" db:"simulation_tag"`
}

// SimulationSession tracks one risk-scenario conversation from the opening
// message to its evaluated outcome.
type SimulationSession struct {
	ID                string       `json:"id" db:"id"`
	ChildID           string       `json:"child_id" db:"child_id"`
	ScenarioID        string       `json:"scenario_id" db:"scenario_id"`
	PartnerProfileID  string       `json:"partner_profile_id" db:"partner_profile_id"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	IncomingMsgID     string       `json:"incoming_message_id" db:"incoming_message_id"`
	ChildReplyMsgID   string       `json:"child_reply_message_id" db:"child_reply_message_id"`
	OutcomeLabel      OutcomeLabel `json:"outcome_label" db:"outcome_label"`
	EvaluationSummary string       `json:"evaluation_summary" db:"evaluation_summary"`
	BackendUsed       string       `json:"backend_used" db:"backend_used"`
	ModelUsed         string       `json:"model_used" db:"model_used"`
	UsedFallback      bool         `json:"used_fallback" db:"used_fallback"`
	IsActive          bool         `json:"is_active" db:"is_active"`
}
