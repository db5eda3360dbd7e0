package simulation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"garden-server/internal/models"
)

func msg(sender, text string) *models.DirectedMessage {
	return &models.DirectedMessage{SenderProfileID: sender, Text: text}
}

func TestRenderHistoryEmpty(t *testing.T) {
	assert.Equal(t, "", RenderHistory(nil, "profile_child", DefaultHistoryWindow))
	assert.Equal(t, "", RenderHistory([]*models.DirectedMessage{}, "profile_child", DefaultHistoryWindow))
}

func TestRenderHistoryLabels(t *testing.T) {
	msgs := []*models.DirectedMessage{
		msg("profile_partner", "hey, what's up?"),
		msg("profile_child", "nothing much"),
		msg("profile_partner", "where do you live?"),
	}
	got := RenderHistory(msgs, "profile_child", DefaultHistoryWindow)
	want := "PARTNER: hey, what's up?\nCHILD: nothing much\nPARTNER: where do you live?"
	assert.Equal(t, want, got)
}

func TestRenderHistoryWindowKeepsMostRecent(t *testing.T) {
	var msgs []*models.DirectedMessage
	for i := 0; i < 20; i++ {
		msgs = append(msgs, msg("profile_child", fmt.Sprintf("m%d", i)))
	}

	got := RenderHistory(msgs, "profile_child", 12)
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 12)
	assert.Equal(t, "CHILD: m8", lines[0])
	assert.Equal(t, "CHILD: m19", lines[11])
}

func TestRenderHistoryNonPositiveWindowUsesDefault(t *testing.T) {
	var msgs []*models.DirectedMessage
	for i := 0; i < 20; i++ {
		msgs = append(msgs, msg("profile_partner", fmt.Sprintf("m%d", i)))
	}
	got := RenderHistory(msgs, "profile_child", 0)
	assert.Len(t, strings.Split(got, "\n"), DefaultHistoryWindow)
}
