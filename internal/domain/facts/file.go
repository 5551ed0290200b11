package facts

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/prscore/internal/domain/model"
)

// FileProvider serves static facts loaded once from a YAML file mapping CL
// ids to event lists.
type FileProvider struct {
	byCL map[string][]model.EventFacts
}

// NewFileProvider wraps already loaded facts.
func NewFileProvider(byCL map[string][]model.EventFacts) *FileProvider {
	return &FileProvider{byCL: byCL}
}

// LoadFileProvider reads facts from path.
func LoadFileProvider(path string) (*FileProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	var byCL map[string][]model.EventFacts
	if err := yaml.Unmarshal(b, &byCL); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFacts, path, err)
	}
	for cl, events := range byCL {
		for i, ev := range events {
			if ev.EventID == "" {
				return nil, fmt.Errorf("%w: %s: event %d of %q has no event_id", ErrInvalidFacts, path, i, cl)
			}
		}
	}
	return NewFileProvider(byCL), nil
}

func (p *FileProvider) Facts(_ context.Context, clID string) (map[string][]model.EventFacts, error) {
	var b builder
	for _, ev := range p.byCL[clID] {
		b.merge(ev.Category, ev)
	}
	return b.result(), nil
}

// Version is fixed: the file is read once.
func (p *FileProvider) Version(context.Context) (int64, error) {
	return 0, nil
}
