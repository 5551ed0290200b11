package repository

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/internal/domain/model"
)

// DirectoryFile is the YAML layout of a directory file.
type DirectoryFile struct {
	Contingents []model.Contingent `yaml:"contingents"`
	Events      []model.Event      `yaml:"events"`
}

// Directory is a read-only, in-memory registry of contingents and events.
type Directory struct {
	contingents map[string]model.Contingent
	order       []string
	events      map[string]model.Event
}

// NewDirectory builds a directory from already loaded data. Duplicate or
// empty ids are rejected.
func NewDirectory(contingents []model.Contingent, events []model.Event) (*Directory, error) {
	d := &Directory{
		contingents: make(map[string]model.Contingent, len(contingents)),
		events:      make(map[string]model.Event, len(events)),
	}
	for _, c := range contingents {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: contingent without id", ErrInvalidDirectory)
		}
		if _, dup := d.contingents[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate contingent %q", ErrInvalidDirectory, c.ID)
		}
		seen := make(map[string]struct{}, len(c.Members))
		for _, m := range c.Members {
			if _, dup := seen[m.ID]; dup || m.ID == "" {
				return nil, fmt.Errorf("%w: contingent %q has an empty or duplicate member id %q", ErrInvalidDirectory, c.ID, m.ID)
			}
			seen[m.ID] = struct{}{}
		}
		d.contingents[c.ID] = c
		d.order = append(d.order, c.ID)
	}
	sort.Strings(d.order)
	for _, e := range events {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: event without id", ErrInvalidDirectory)
		}
		if _, dup := d.events[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate event %q", ErrInvalidDirectory, e.ID)
		}
		d.events[e.ID] = e
	}
	return d, nil
}

// LoadDirectory reads a DirectoryFile from path.
func LoadDirectory(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var f DirectoryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDirectory, path, err)
	}
	return NewDirectory(f.Contingents, f.Events)
}

func (d *Directory) Contingent(ctx context.Context, clID string) (model.Contingent, error) {
	c, ok := d.contingents[clID]
	if !ok {
		return model.Contingent{}, ledger.ErrUnknownSubject
	}
	return cloneContingent(c), nil
}

// Contingents returns every contingent ordered by id.
func (d *Directory) Contingents(ctx context.Context) ([]model.Contingent, error) {
	out := make([]model.Contingent, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, cloneContingent(d.contingents[id]))
	}
	return out, nil
}

func (d *Directory) Event(ctx context.Context, eventID string) (model.Event, error) {
	e, ok := d.events[eventID]
	if !ok {
		return model.Event{}, ledger.ErrUnknownEvent
	}
	return e, nil
}

func cloneContingent(c model.Contingent) model.Contingent {
	c.Members = append([]model.Member(nil), c.Members...)
	return c
}
