package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTurnReply(t *testing.T) {
	tests := []struct {
		name string
		text string
		want TurnReply
	}{
		{
			name: "full well-formed reply",
			text: "Message: Hey, what's your address?\nEndState: CONTINUE\nReason: probing for personal info",
			want: TurnReply{Message: "Hey, what's your address?", End: false, Reason: "probing for personal info"},
		},
		{
			name: "end with none message",
			text: "Message: NONE\nEndState: END\nReason: child refused twice",
			want: TurnReply{Message: "", End: true, Reason: "child refused twice"},
		},
		{
			name: "lowercase none sentinel",
			text: "Message: none\nEndState: END\nReason: done",
			want: TurnReply{Message: "", End: true, Reason: "done"},
		},
		{
			name: "missing endstate defaults to continue",
			text: "Message: hi there",
			want: TurnReply{Message: "hi there", End: false},
		},
		{
			name: "malformed endstate defaults to continue",
			text: "Message: hi\nEndState: maybe?",
			want: TurnReply{Message: "hi", End: false},
		},
		{
			name: "case-insensitive labels",
			text: "MESSAGE: hello\nendstate: end\nREASON: why not",
			want: TurnReply{Message: "hello", End: true, Reason: "why not"},
		},
		{
			name: "first matching line wins",
			text: "Message: first\nMessage: second\nEndState: CONTINUE\nEndState: END",
			want: TurnReply{Message: "first", End: false},
		},
		{
			name: "labels in any order",
			text: "Reason: testing\nEndState: END\nMessage: bye",
			want: TurnReply{Message: "bye", End: true, Reason: "testing"},
		},
		{
			name: "unlabeled text is ignored",
			text: "Sure, here is my reply:\nMessage: ok\nsome trailing note",
			want: TurnReply{Message: "ok", End: false},
		},
		{
			name: "empty reply",
			text: "",
			want: TurnReply{},
		},
		{
			name: "whitespace around labels and values",
			text: "  Message:   spaced out  \n  EndState:  END  ",
			want: TurnReply{Message: "spaced out", End: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTurnReply(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}
