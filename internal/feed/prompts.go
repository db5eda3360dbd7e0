package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

const gamifiedPrompt = `You are generating a social media style post for a CHILD-FRIENDLY, CARTOONY digital world.

Context:
- The child is {child_age} years old.
- The main topic is: {topic}.
- The profile posting this is:
  - Name: {profile_name}
  - Personality: {personality_tags}
  - Avatar style: cartoony
- The child's broader interests: {child_interests}.
- Post flavor: {post_flavor}.

Requirements:
- Write 1 short, fun, positive post this profile might share.
- Use very simple language appropriate for a {child_age}-year-old.
- Include 1-2 emojis that match the tone.
- Do NOT mention that this is a simulation or that you are AI.
- Avoid anything scary, violent, or adult.

Respond with ONLY the text of the post.`

const realisticPrompt = `You are generating a social media style post for a CHILD-SAFE but REALISTIC social feed.

Context:
- The child is {child_age} years old.
- The main topic is: {topic}.
- The profile posting this is:
  - Name: {profile_name}
  - Personality: {personality_tags}
  - Avatar style: realistic
- The child's broader interests: {child_interests}.
- Post flavor: {post_flavor}.

Requirements:
- Write 1 short, natural-sounding post that a real kid around {child_age} might share.
- Keep it friendly, encouraging, and appropriate for children.
- You may include 1 emoji, but do not overdo it.
- Do NOT mention AI, simulations, or anything meta.
- Avoid complex or negative topics; stay curious and kind.

Respond with ONLY the text of the post.`

type postPromptBindings struct {
	ChildAge        int
	Topic           string
	ProfileName     string
	PersonalityTags []string
	ChildInterests  []string
	PostFlavor      string
}

func renderPostPrompt(tmpl string, b postPromptBindings) (string, error) {
	return fasttemplate.ExecuteFuncStringWithErr(tmpl, "{", "}", func(w io.Writer, tag string) (int, error) {
		switch tag {
		case "child_age":
			return fmt.Fprintf(w, "%d", b.ChildAge)
		case "topic":
			return io.WriteString(w, b.Topic)
		case "profile_name":
			return io.WriteString(w, b.ProfileName)
		case "personality_tags":
			return io.WriteString(w, strings.Join(b.PersonalityTags, ", "))
		case "child_interests":
			return io.WriteString(w, strings.Join(b.ChildInterests, ", "))
		case "post_flavor":
			return io.WriteString(w, b.PostFlavor)
		default:
			return 0, fmt.Errorf("unknown placeholder %q in post prompt", tag)
		}
	})
}
