// Package scenario holds the static catalog of risk-training scenarios and
// their prompt templates.
package scenario

// Definition is one immutable risk scenario. Templates use {child_age} and
// {child_name} placeholders only; every template must render given just
// those two bindings.
type Definition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RiskType    string `json:"risk_type"`
	AgeMin      int    `json:"recommended_age_min"`
	AgeMax      int    `json:"recommended_age_max"`

	SystemPromptTemplate  string `json:"-"`
	UserMessageTemplate   string `json:"-"`
	CannedMessageTemplate string `json:"-"`
}

// Catalog is a lookup over a fixed, source-ordered set of definitions.
type Catalog struct {
	defs []Definition
}

// NewCatalog builds a catalog preserving the given order.
func NewCatalog(defs []Definition) *Catalog {
	return &Catalog{defs: defs}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(defaultDefinitions)
}

// ForAge returns every scenario whose recommended age range contains age,
// inclusive on both ends, in source order.
func (c *Catalog) ForAge(age int) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.AgeMin <= age && age <= d.AgeMax {
			out = append(out, d)
		}
	}
	return out
}

// ByID returns the scenario with the given id, or nil.
func (c *Catalog) ByID(id string) *Definition {
	for i := range c.defs {
		if c.defs[i].ID == id {
			return &c.defs[i]
		}
	}
	return nil
}

// All returns every definition in source order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

var defaultDefinitions = []Definition{
	{
		ID:          "stranger_asking_address",
		Title:       "Stranger asking for your address",
		Description: "A new online 'friend' asks the child where they live or wants them to share their address/location. This tests how the child responds to sharing private information.",
		RiskType:    "privacy",
		AgeMin:      8,
		AgeMax:      15,
		SystemPromptTemplate: `You are role-playing a kid-safe but slightly risky message in a digital literacy training simulation.

Your role:
- You are an online acquaintance the child has just met.
- You are curious and friendly, but you ask for the child's address or where they live.
- The message MUST NOT be explicit, frightening, or aggressive.
- It should be subtle enough to seem like a normal chat, but clearly request location info.
- The child is around {child_age} years old.
- Do NOT mention AI, simulation, or training.
Return ONE short message only (1-2 sentences).`,
		UserMessageTemplate: `The child's name is {child_name}.
Write the message you send to them in the chat.`,
		CannedMessageTemplate: "Hey {child_name}, you seem really cool! What city do you live in? \U0001F60A",
	},
	{
		ID:          "peer_pressure_share_photo",
		Title:       "Peer pressure to share a photo",
		Description: "A peer or online friend encourages the child to send a photo. This tests how the child handles pressure to share personal images.",
		RiskType:    "privacy",
		AgeMin:      10,
		AgeMax:      17,
		SystemPromptTemplate: `You are role-playing a classmate or online friend asking the child to send a photo.

Your role:
- You are friendly and casual.
- You encourage the child to send a picture of themselves or their face.
- The message must stay kid-safe and not sexualized or explicit in any way.
- The child is around {child_age} years old.
- Do NOT mention AI, simulation, or training.
Return ONE short message only (1-2 sentences).`,
		UserMessageTemplate: `The child's name is {child_name}.
Write the message you send to them in the chat.`,
		CannedMessageTemplate: "Everyone is sending selfies in the group \U0001F604 you should send one too, {child_name}!",
	},
	{
		ID:          "unfriendly_comment",
		Title:       "Unfriendly or teasing comment",
		Description: "Someone leaves a slightly mean or teasing comment about something the child likes. This tests how the child responds to low-level negativity.",
		RiskType:    "bullying",
		AgeMin:      8,
		AgeMax:      17,
		SystemPromptTemplate: `You are role-playing a peer making a slightly unfriendly or teasing comment.

Your role:
- You are not extremely cruel, but you are unkind or dismissive about something the child likes.
- The message should be mild enough to be age-appropriate but clearly not friendly.
- Avoid slurs, explicit content, or intense bullying.
- The child is around {child_age} years old.
- Do NOT mention AI, simulation, or training.
Return ONE short message only (1-2 sentences).`,
		UserMessageTemplate: `The child's name is {child_name}.
Write the message you send to them in the chat.`,
		CannedMessageTemplate: "You post about that game a lot, {child_name}... it's kind of lame tbh.",
	},
}
