package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Table maps tier × stage × mode to a non-negative point value. A Table is
// immutable after construction.
type Table struct {
	cells map[Tiered]int
}

// Cell is one row of the flattened table.
type Cell struct {
	Tier   Tier  `json:"tier"`
	Stage  Stage `json:"stage"`
	Mode   Mode  `json:"mode"`
	Points int   `json:"points"`
}

// defaultPoints is the reference table: tier -> stage -> {online, offline}.
var defaultPoints = map[Tier]map[Stage][2]int{ //nolint:gochecknoglobals // read-only reference data
	TierGold: {
		StageParticipation: {100, 50},
		StageQualification: {200, 100},
		StageFirst:         {800, 400},
		StageSecond:        {600, 300},
		StageThird:         {400, 200},
	},
	TierSilver: {
		StageParticipation: {75, 40},
		StageQualification: {150, 75},
		StageFirst:         {600, 300},
		StageSecond:        {450, 225},
		StageThird:         {300, 150},
	},
	TierBronze: {
		StageParticipation: {50, 25},
		StageQualification: {100, 50},
		StageFirst:         {400, 200},
		StageSecond:        {300, 150},
		StageThird:         {200, 100},
	},
}

// DefaultTable returns the reference points table.
func DefaultTable() Table {
	cells := make(map[Tiered]int, len(Tiers)*len(Stages)*len(Modes))
	for tier, stages := range defaultPoints {
		for stage, pts := range stages {
			cells[Tiered{Tier: tier, Stage: stage, Mode: ModeOnline}] = pts[0]
			cells[Tiered{Tier: tier, Stage: stage, Mode: ModeOffline}] = pts[1]
		}
	}
	return Table{cells: cells}
}

// DefaultTableConfig renders the reference table in the nested shape
// accepted by NewTable, which is also the configuration file shape.
func DefaultTableConfig() map[string]map[string]map[string]int {
	out := make(map[string]map[string]map[string]int, len(defaultPoints))
	for tier, stages := range defaultPoints {
		byStage := make(map[string]map[string]int, len(stages))
		for stage, pts := range stages {
			byStage[string(stage)] = map[string]int{
				string(ModeOnline):  pts[0],
				string(ModeOffline): pts[1],
			}
		}
		out[string(tier)] = byStage
	}
	return out
}

// NewTable builds a Table from a nested tier -> stage -> mode map. Cells may
// be omitted (they then resolve to ErrRuleNotFound), but every cell present
// must name a known tier, stage and mode and hold a non-negative value, and
// the online and offline legs of one stage may not be equal.
func NewTable(in map[string]map[string]map[string]int) (Table, error) {
	cells := make(map[Tiered]int)
	for tierName, stages := range in {
		tier := Tier(strings.ToLower(strings.TrimSpace(tierName)))
		if !tier.Valid() {
			return Table{}, fmt.Errorf("%w: unknown tier %q", ErrInvalidTable, tierName)
		}
		for stageName, modes := range stages {
			stage := Stage(strings.ToLower(strings.TrimSpace(stageName)))
			if !stage.Valid() {
				return Table{}, fmt.Errorf("%w: unknown stage %q", ErrInvalidTable, stageName)
			}
			for modeName, pts := range modes {
				mode := Mode(strings.ToLower(strings.TrimSpace(modeName)))
				if !mode.Valid() {
					return Table{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidTable, modeName)
				}
				if pts < 0 {
					return Table{}, fmt.Errorf("%w: %s/%s/%s is negative", ErrInvalidTable, tier, stage, mode)
				}
				cells[Tiered{Tier: tier, Stage: stage, Mode: mode}] = pts
			}
			on, okOn := cells[Tiered{Tier: tier, Stage: stage, Mode: ModeOnline}]
			off, okOff := cells[Tiered{Tier: tier, Stage: stage, Mode: ModeOffline}]
			if okOn && okOff && on == off {
				return Table{}, fmt.Errorf("%w: %s/%s online and offline both %d", ErrInvalidTable, tier, stage, on)
			}
		}
	}
	return Table{cells: cells}, nil
}

// Resolve looks up the points for a cell. A missing cell is a configuration
// gap and yields ErrRuleNotFound, never zero.
func (t Table) Resolve(tier Tier, stage Stage, mode Mode) (int, error) {
	pts, ok := t.cells[Tiered{Tier: tier, Stage: stage, Mode: mode}]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s/%s", ErrRuleNotFound, tier, stage, mode)
	}
	return pts, nil
}

// Len returns the number of configured cells.
func (t Table) Len() int {
	return len(t.cells)
}

// Cells returns every configured cell ordered by tier, stage, then mode in
// declaration order.
func (t Table) Cells() []Cell {
	out := make([]Cell, 0, len(t.cells))
	for k, v := range t.cells {
		out = append(out, Cell{Tier: k.Tier, Stage: k.Stage, Mode: k.Mode, Points: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Tier != b.Tier {
			return indexOf(Tiers, a.Tier) < indexOf(Tiers, b.Tier)
		}
		if a.Stage != b.Stage {
			return indexOf(Stages, a.Stage) < indexOf(Stages, b.Stage)
		}
		return indexOf(Modes, a.Mode) < indexOf(Modes, b.Mode)
	})
	return out
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return len(list)
}

// Catalog combines the points table with the free-form rule classification.
type Catalog struct {
	table    Table
	negative map[string]struct{}
}

// CatalogOption applies a configuration option to a Catalog.
type CatalogOption func(*Catalog)

// WithTable replaces the reference table.
func WithTable(t Table) CatalogOption {
	return func(c *Catalog) {
		if t.cells != nil {
			c.table = t
		}
	}
}

// WithNegativeRules sets the free-form rule names whose points are
// subtracted from the final score.
func WithNegativeRules(names ...string) CatalogOption {
	return func(c *Catalog) {
		if len(names) == 0 {
			return
		}
		c.negative = make(map[string]struct{}, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				c.negative[n] = struct{}{}
			}
		}
	}
}

// NewCatalog creates a catalog over the reference table where only
// negative_activity counts as negative.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		table:    DefaultTable(),
		negative: map[string]struct{}{NegativeActivity: {}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve delegates to the underlying table.
func (c *Catalog) Resolve(tier Tier, stage Stage, mode Mode) (int, error) {
	return c.table.Resolve(tier, stage, mode)
}

// IsNegative reports whether a free-form rule is a penalty.
func (c *Catalog) IsNegative(name string) bool {
	_, ok := c.negative[name]
	return ok
}

// NegativeRules returns the penalty rule names in sorted order.
func (c *Catalog) NegativeRules() []string {
	out := make([]string, 0, len(c.negative))
	for n := range c.negative {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Entries lists every table cell.
func (c *Catalog) Entries() []Cell {
	return c.table.Cells()
}

// Listing is the read-only view of a catalog served to clients.
type Listing struct {
	Table         []Cell   `json:"table"`
	NegativeRules []string `json:"negative_rules"`
}

// Listing returns every table cell and the penalty rule names.
func (c *Catalog) Listing() Listing {
	return Listing{Table: c.Entries(), NegativeRules: c.NegativeRules()}
}
