package schemas

import (
	"strings"

	"garden-server/internal/models"
)

// EvaluationReply is the parsed safety verdict for a finished session.
type EvaluationReply struct {
	Label models.OutcomeLabel
	// Summary is the parent-facing rationale: every line except the label
	// line, with a leading "Summary:" prefix stripped.
	Summary string
	// LabelFound reports whether a Label: line was present at all.
	LabelFound bool
}

// ParseEvaluationReply parses the evaluation protocol:
//
//	Label: SAFE/UNSAFE/NEEDS_REVIEW
//	Summary: <2-4 sentences for the parent>
//
// The label value is matched by substring containment, UNSAFE before SAFE
// because "SAFE" is a substring of "UNSAFE". A missing or unrecognized
// label leaves the default NEEDS_REVIEW; a missing label line makes the
// raw reply the summary.
func ParseEvaluationReply(text string) EvaluationReply {
	reply := EvaluationReply{
		Label:   models.OutcomeNeedsReview,
		Summary: strings.TrimSpace(text),
	}

	lines := strings.Split(text, "\n")
	for _, rawLine := range lines {
		lower := strings.ToLower(strings.TrimSpace(rawLine))
		if !strings.HasPrefix(lower, "label:") {
			continue
		}
		reply.LabelFound = true

		value := strings.ToUpper(strings.TrimSpace(strings.SplitN(rawLine, ":", 2)[1]))
		switch {
		case strings.Contains(value, "UNSAFE"):
			reply.Label = models.OutcomeUnsafe
		case strings.Contains(value, "SAFE"):
			reply.Label = models.OutcomeSafe
		case strings.Contains(value, "NEEDS_REVIEW"), strings.Contains(value, "NEEDS REVIEW"):
			reply.Label = models.OutcomeNeedsReview
		}

		reply.Summary = summaryWithoutLabelLines(lines)
		break
	}

	if reply.Summary == "" {
		reply.Summary = strings.TrimSpace(text)
	}
	return reply
}

func summaryWithoutLabelLines(lines []string) string {
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "label:") {
			continue
		}
		kept = append(kept, line)
	}
	summary := strings.TrimSpace(strings.Join(kept, "\n"))
	if strings.HasPrefix(strings.ToLower(summary), "summary:") {
		summary = strings.TrimSpace(summary[len("summary:"):])
	}
	return summary
}
