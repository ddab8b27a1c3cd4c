// Package avatars picks a daily mascot and quote from a YAML roster.
// Purely cosmetic; a missing or empty roster disables the feature.
package avatars

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Avatar is one roster entry.
type Avatar struct {
	Name       string   `yaml:"name" json:"name"`
	Emoji      string   `yaml:"emoji,omitempty" json:"emoji,omitempty"`
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	Quotes     []string `yaml:"quotes,omitempty" json:"quotes,omitempty"`
}

// Roster is the loaded avatar set.
type Roster struct {
	avatars []Avatar
	rng     *rand.Rand
}

// Load reads the roster file. A missing file yields an empty roster, not
// an error. rng may be nil for a time-seeded one.
func Load(path string, rng *rand.Rand) (*Roster, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Roster{rng: rng}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read avatars: %w", err)
	}

	var avatars []Avatar
	if err := yaml.Unmarshal(data, &avatars); err != nil {
		return nil, fmt.Errorf("parse avatars: %w", err)
	}

	return &Roster{avatars: avatars, rng: rng}, nil
}

// Empty reports whether the roster has no avatars. Safe on a nil roster.
func (r *Roster) Empty() bool { return r == nil || len(r.avatars) == 0 }

// PickForDay returns the avatar for a seed. The same seed always yields
// the same avatar, so one avatar fronts the whole day.
func (r *Roster) PickForDay(seed int64) (Avatar, bool) {
	if r.Empty() {
		return Avatar{}, false
	}
	day := rand.New(rand.NewSource(seed))
	return r.avatars[day.Intn(len(r.avatars))], true
}

// DaySeed derives the per-day seed from a date.
func DaySeed(day time.Time) int64 {
	return int64(day.Year())*10000 + int64(day.Month())*100 + int64(day.Day())
}

// PickForGroup returns the first avatar whose categories mention the
// group, falling back to the first avatar in the roster.
func (r *Roster) PickForGroup(group string) (Avatar, bool) {
	if r.Empty() {
		return Avatar{}, false
	}
	needle := strings.ToLower(group)
	for _, avatar := range r.avatars {
		for _, cat := range avatar.Categories {
			if strings.Contains(strings.ToLower(cat), needle) {
				return avatar, true
			}
		}
	}
	return r.avatars[0], true
}

// Quote returns a random quote from the avatar, or "" if it has none.
func (r *Roster) Quote(avatar Avatar) string {
	if r == nil || len(avatar.Quotes) == 0 {
		return ""
	}
	return avatar.Quotes[r.rng.Intn(len(avatar.Quotes))]
}
