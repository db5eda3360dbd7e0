package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ID prefixes keep identifiers self-describing in logs and API payloads.
const (
	IDPrefixParent  = "parent"
	IDPrefixGarden  = "garden"
	IDPrefixChild   = "child"
	IDPrefixProfile = "profile"
	IDPrefixPost    = "post"
	IDPrefixMessage = "dm"
	IDPrefixSession = "sim"
)

// NewID returns a prefixed random identifier like "sim_8f14e45f...".
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
