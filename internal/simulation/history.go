package simulation

import (
	"strings"

	"garden-server/internal/models"
)

// DefaultHistoryWindow is the number of most recent messages given to the
// model as conversation context.
const DefaultHistoryWindow = 12

// RenderHistory renders the most recent maxMessages of a conversation as
// newline-joined "CHILD: ..."/"PARTNER: ..." lines, oldest first. Messages
// must already be ordered by created_at ascending, which is what the
// message store guarantees. Returns "" for an empty conversation.
//
// This rendering is the only context the completion backend ever sees for
// continuation and evaluation, so it must stay deterministic for a given
// message list.
func RenderHistory(msgs []*models.DirectedMessage, childProfileID string, maxMessages int) string {
	if maxMessages <= 0 {
		maxMessages = DefaultHistoryWindow
	}
	if len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		label := "PARTNER"
		if m.SenderProfileID == childProfileID {
			label = "CHILD"
		}
		lines = append(lines, label+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}
