// Package schemas parses the plain-text labeled-line protocols used by the
// simulation prompts. The model output is never trusted to be well formed:
// every field has an explicit default.
package schemas

import "strings"

// noneSentinel in the Message field means "send nothing this turn".
const noneSentinel = "NONE"

// TurnReply is the parsed agent reply for one simulation turn.
type TurnReply struct {
	// Message is the next partner message; empty means no message is sent.
	Message string
	// End reports the agent's termination decision. Missing or malformed
	// EndState lines default to continue.
	End bool
	// Reason is the agent's internal note; it is logged, never shown to
	// the child.
	Reason string
}

// ParseTurnReply scans the reply top to bottom and takes the first line
// matching each label, case-insensitively. Expected shape:
//
//	Message: <text or NONE>
//	EndState: CONTINUE or END
//	Reason: <free text>
//
// Label order is not required and extra lines are ignored.
func ParseTurnReply(text string) TurnReply {
	var reply TurnReply
	var haveMessage, haveEnd, haveReason bool

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case !haveMessage && strings.HasPrefix(lower, "message:"):
			haveMessage = true
			reply.Message = strings.TrimSpace(line[len("message:"):])
		case !haveEnd && strings.HasPrefix(lower, "endstate:"):
			haveEnd = true
			value := strings.ToUpper(strings.TrimSpace(line[len("endstate:"):]))
			reply.End = value == "END"
		case !haveReason && strings.HasPrefix(lower, "reason:"):
			haveReason = true
			reply.Reason = strings.TrimSpace(line[len("reason:"):])
		}
	}

	if strings.EqualFold(reply.Message, noneSentinel) {
		reply.Message = ""
	}
	return reply
}
