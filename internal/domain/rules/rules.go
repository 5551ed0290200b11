// Package rules holds the points catalog: the tier × stage × mode table and
// the free-form rule classification used when awarding PR points.
package rules

import (
	"fmt"
	"strings"
)

// Tier is the prestige class of an event, not a participant's placement.
type Tier string

// Stage is the achievement level within an event.
type Stage string

// Mode distinguishes online and offline registration legs.
type Mode string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

const (
	StageParticipation Stage = "participation"
	StageQualification Stage = "qualification"
	StageFirst         Stage = "1st"
	StageSecond        Stage = "2nd"
	StageThird         Stage = "3rd"
)

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Well-known free-form rule names.
const (
	ExtraActivity    = "extra_activity"
	NegativeActivity = "negative_activity"
)

// Tiers, Stages and Modes list the valid values in table order.
var (
	Tiers  = []Tier{TierGold, TierSilver, TierBronze}
	Stages = []Stage{StageParticipation, StageQualification, StageFirst, StageSecond, StageThird}
	Modes  = []Mode{ModeOnline, ModeOffline}
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	for _, v := range Tiers {
		if v == t {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, v := range Stages {
		if v == s {
			return true
		}
	}
	return false
}

// IsPlacement reports whether the stage is a 1st/2nd/3rd finish.
func (s Stage) IsPlacement() bool {
	return s == StageFirst || s == StageSecond || s == StageThird
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeOnline || m == ModeOffline
}

// Tiered selects a cell of the points table.
type Tiered struct {
	Tier  Tier
	Stage Stage
	Mode  Mode
}

func (t Tiered) String() string {
	return fmt.Sprintf("tiered:%s:%s:%s", t.Tier, t.Stage, t.Mode)
}

// FreeForm names a rule whose points are supplied by the awarder.
type FreeForm struct {
	Name string
}

func (f FreeForm) String() string {
	return "free:" + f.Name
}

type keyKind uint8

const (
	kindNone keyKind = iota
	kindTiered
	kindFreeForm
)

// Key identifies a scoring rule. Exactly one of the two variants is set;
// construct values with TieredKey or FreeFormKey. Keys are comparable.
type Key struct {
	kind     keyKind
	tiered   Tiered
	freeForm FreeForm
}

// TieredKey builds a Key from a table cell.
func TieredKey(tier Tier, stage Stage, mode Mode) Key {
	return Key{kind: kindTiered, tiered: Tiered{Tier: tier, Stage: stage, Mode: mode}}
}

// FreeFormKey builds a Key for a named free-form rule.
func FreeFormKey(name string) Key {
	return Key{kind: kindFreeForm, freeForm: FreeForm{Name: name}}
}

// Tiered returns the table cell and true when k is tiered.
func (k Key) Tiered() (Tiered, bool) {
	return k.tiered, k.kind == kindTiered
}

// FreeForm returns the free-form rule and true when k is free-form.
func (k Key) FreeForm() (FreeForm, bool) {
	return k.freeForm, k.kind == kindFreeForm
}

// IsZero reports whether k carries no rule at all.
func (k Key) IsZero() bool {
	return k.kind == kindNone
}

// String returns the canonical form stored by persistence layers.
func (k Key) String() string {
	switch k.kind {
	case kindTiered:
		return k.tiered.String()
	case kindFreeForm:
		return k.freeForm.String()
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, ErrInvalidKey
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses the canonical string form produced by Key.String.
func ParseKey(s string) (Key, error) {
	switch {
	case strings.HasPrefix(s, "tiered:"):
		parts := strings.Split(strings.TrimPrefix(s, "tiered:"), ":")
		if len(parts) != 3 {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
		}
		tier, stage, mode := Tier(parts[0]), Stage(parts[1]), Mode(parts[2])
		if !tier.Valid() || !stage.Valid() || !mode.Valid() {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
		}
		return TieredKey(tier, stage, mode), nil
	case strings.HasPrefix(s, "free:"):
		name := strings.TrimPrefix(s, "free:")
		if strings.TrimSpace(name) == "" {
			return Key{}, fmt.Errorf("%w: empty free-form name", ErrInvalidKey)
		}
		return FreeFormKey(name), nil
	default:
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
}
