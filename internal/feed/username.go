package feed

import (
	"fmt"
	"math/rand"
	"strings"

	"garden-server/internal/models"
)

// Kid-safe vocabulary for generated display names.
var (
	usernameAdjectives = []string{
		"Bright", "Curious", "Calm", "Brave", "Kind",
		"Quiet", "Lucky", "Happy", "Swift", "Gentle",
		"Cozy", "Sunny", "Foggy", "Mellow", "Steady",
	}
	usernameNeutralNouns = []string{
		"Sky", "River", "Forest", "Comet", "Star", "Planet", "Moon", "Cloud",
		"Pixel", "Echo", "Signal", "Circuit", "Trail", "Bridge", "Garden",
		"Story", "Quest", "Snow", "Breeze", "Spark",
	}
	usernameGamifiedNouns = []string{
		"Wizard", "Knight", "Ninja", "Dragon", "Robot",
		"Ranger", "Pilot", "Mage", "Explorer", "Captain",
		"Fox", "Panda", "Otter", "Wolf", "Phoenix",
	}
	// Topic stems are used when one of the profile's topics matches.
	usernameTopicStems = map[string][]string{
		"space":   {"Galaxy", "Nova", "Orbit", "Astro", "Comet", "Starship"},
		"animals": {"Paws", "Feather", "Whisker", "Roamer", "Tracker"},
		"drawing": {"Sketch", "Doodle", "Canvas", "Ink", "Palette"},
		"science": {"Neuron", "Photon", "Atom", "PixelLab", "Vector"},
		"history": {"Chronicle", "Archive", "Scroll", "Relic"},
		"music":   {"Melody", "Rhythm", "Chord", "EchoBeat"},
		"sports":  {"Striker", "Runner", "Keeper", "Sprinter"},
	}
)

// GenerateUsername produces a kid-friendly, semi-realistic display name
// like "CuriousComet42" or "GalaxyRanger_19", avoiding names already in
// existing.
func GenerateUsername(rng *rand.Rand, mode models.FeedMode, topics []string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[strings.ToLower(n)] = true
	}

	topicStem := topicStemFor(rng, topics)
	stem := topicStem

	const maxTries = 20
	for i := 0; i < maxTries; i++ {
		if topicStem != "" {
			stem = topicStem
		} else {
			stem = usernameNeutralNouns[rng.Intn(len(usernameNeutralNouns))]
		}

		var base string
		if rng.Float64() < 0.6 {
			base = usernameAdjectives[rng.Intn(len(usernameAdjectives))] + stem
		} else {
			noun2Pool := usernameNeutralNouns
			if mode == models.FeedModeGamified {
				noun2Pool = usernameGamifiedNouns
			}
			base = stem + noun2Pool[rng.Intn(len(noun2Pool))]
		}

		username := base
		if rng.Float64() < 0.85 {
			sep := ""
			if rng.Float64() >= 0.7 {
				if rng.Float64() < 0.5 {
					sep = "_"
				} else {
					sep = "."
				}
			}
			username = base + sep + numericSuffix(rng)
		}

		if !taken[strings.ToLower(username)] {
			return username
		}
	}

	return stem + numericSuffix(rng)
}

func topicStemFor(rng *rand.Rand, topics []string) string {
	shuffled := make([]string, len(topics))
	copy(shuffled, topics)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	for _, t := range shuffled {
		if stems, ok := usernameTopicStems[strings.ToLower(t)]; ok {
			return stems[rng.Intn(len(stems))]
		}
	}
	return ""
}

// numericSuffix biases toward 2-3 digits, occasionally 4.
func numericSuffix(rng *rand.Rand) string {
	roll := rng.Float64()
	switch {
	case roll < 0.6:
		return fmt.Sprintf("%d", 10+rng.Intn(90))
	case roll < 0.95:
		return fmt.Sprintf("%d", 100+rng.Intn(900))
	default:
		return fmt.Sprintf("%d", 1000+rng.Intn(9000))
	}
}
