package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"garden-server/internal/models"
)

func TestParseEvaluationReply(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantLabel   models.OutcomeLabel
		wantSummary string
		wantFound   bool
	}{
		{
			name:        "safe verdict",
			text:        "Label: SAFE\nSummary: The child refused to share their address and told the stranger no.",
			wantLabel:   models.OutcomeSafe,
			wantSummary: "The child refused to share their address and told the stranger no.",
			wantFound:   true,
		},
		{
			name:        "unsafe verdict",
			text:        "Label: UNSAFE\nSummary: The child shared their street name.",
			wantLabel:   models.OutcomeUnsafe,
			wantSummary: "The child shared their street name.",
			wantFound:   true,
		},
		{
			name:        "needs review verdict",
			text:        "Label: NEEDS_REVIEW\nSummary: The conversation was ambiguous.",
			wantLabel:   models.OutcomeNeedsReview,
			wantSummary: "The conversation was ambiguous.",
			wantFound:   true,
		},
		{
			name:        "unsafe checked before safe substring",
			text:        "Label: definitely UNSAFE behavior\nSummary: Shared a phone number.",
			wantLabel:   models.OutcomeUnsafe,
			wantSummary: "Shared a phone number.",
			wantFound:   true,
		},
		{
			name:        "safe inside a sentence",
			text:        "Label: This seems mostly SAFE to me\nSummary: Good refusal.",
			wantLabel:   models.OutcomeSafe,
			wantSummary: "Good refusal.",
			wantFound:   true,
		},
		{
			name:        "missing label line falls back to needs review with raw text",
			text:        "The child did fine, nothing to report here.",
			wantLabel:   models.OutcomeNeedsReview,
			wantSummary: "The child did fine, nothing to report here.",
			wantFound:   false,
		},
		{
			name:        "unrecognized label value keeps needs review",
			text:        "Label: EXCELLENT\nSummary: Great job.",
			wantLabel:   models.OutcomeNeedsReview,
			wantSummary: "Great job.",
			wantFound:   true,
		},
		{
			name:        "summary without its own prefix",
			text:        "Label: SAFE\nThe child handled this well over several turns.",
			wantLabel:   models.OutcomeSafe,
			wantSummary: "The child handled this well over several turns.",
			wantFound:   true,
		},
		{
			name:        "multi-line summary survives",
			text:        "Label: UNSAFE\nSummary: The child agreed to meet.\nThey also shared a photo.",
			wantLabel:   models.OutcomeUnsafe,
			wantSummary: "The child agreed to meet.\nThey also shared a photo.",
			wantFound:   true,
		},
		{
			name:        "lowercase label line",
			text:        "label: safe\nsummary: fine",
			wantLabel:   models.OutcomeSafe,
			wantSummary: "fine",
			wantFound:   true,
		},
		{
			name:        "only a label line keeps raw text as summary",
			text:        "Label: SAFE",
			wantLabel:   models.OutcomeSafe,
			wantSummary: "Label: SAFE",
			wantFound:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEvaluationReply(tt.text)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantSummary, got.Summary)
			assert.Equal(t, tt.wantFound, got.LabelFound)
		})
	}
}

func TestParseEvaluationReplyEmpty(t *testing.T) {
	got := ParseEvaluationReply("")
	assert.Equal(t, models.OutcomeNeedsReview, got.Label)
	assert.False(t, got.LabelFound)
}
