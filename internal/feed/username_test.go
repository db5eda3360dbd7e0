package feed

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"garden-server/internal/models"
)

func TestGenerateUsernameIsNonEmptyAndSafe(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		name := GenerateUsername(rng, models.FeedModeRealistic, []string{"space"}, nil)
		assert.NotEmpty(t, name)
		assert.NotContains(t, name, " ")
	}
}

func TestGenerateUsernameAvoidsTakenNames(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var taken []string
	for i := 0; i < 50; i++ {
		name := GenerateUsername(rng, models.FeedModeGamified, []string{"animals"}, taken)
		for _, prev := range taken {
			assert.NotEqual(t, strings.ToLower(prev), strings.ToLower(name))
		}
		taken = append(taken, name)
	}
}

func TestGenerateUsernameUnknownTopicFallsBack(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	name := GenerateUsername(rng, models.FeedModeRealistic, []string{"basket weaving"}, nil)
	assert.NotEmpty(t, name)
}

func TestGenerateUsernameDeterministicForSeed(t *testing.T) {
	a := GenerateUsername(rand.New(rand.NewSource(42)), models.FeedModeRealistic, []string{"space"}, nil)
	b := GenerateUsername(rand.New(rand.NewSource(42)), models.FeedModeRealistic, []string{"space"}, nil)
	assert.Equal(t, a, b)
}
