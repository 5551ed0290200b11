// Package seed generates fake directory and fact fixtures for demos, load
// tests and offline audits.
package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"github.com/okian/prscore/internal/adapters/repository"
	"github.com/okian/prscore/internal/domain/model"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/okian/prscore/pkg/logger"
)

// File names written by Write.
const (
	DirectoryFile = "directory.yaml"
	FactsFile     = "facts.yaml"
)

// categories seeded events are spread over.
var categories = []string{"technical", "cultural", "literary", "sports"} //nolint:gochecknoglobals // fixture vocabulary

var eventNames = []string{ //nolint:gochecknoglobals // fixture vocabulary
	"Hackathon", "Quiz", "Debate", "Dance", "Battle of Bands", "Robo Race",
	"Poetry Slam", "Chess", "Treasure Hunt", "Film Making", "Code Golf", "Football",
}

// Generator builds reproducible fixtures from a seed.
type Generator struct {
	faker   *gofakeit.Faker
	catalog *rules.Catalog

	contingents int
	members     int
	events      int
	seed        int64
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		catalog:     rules.NewCatalog(),
		contingents: 10,
		members:     5,
		events:      8,
		seed:        time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.faker = gofakeit.New(uint64(g.seed)) //nolint:gosec // seed reinterpretation
	return g
}

// Seed returns the seed in use.
func (g *Generator) Seed() int64 { return g.seed }

// Directory generates contingents with rosters and a set of events.
func (g *Generator) Directory() repository.DirectoryFile {
	out := repository.DirectoryFile{
		Contingents: make([]model.Contingent, g.contingents),
		Events:      make([]model.Event, g.events),
	}

	for i := range out.Events {
		out.Events[i] = model.Event{
			ID:       fmt.Sprintf("ev-%02d", i+1),
			Name:     fmt.Sprintf("%s %d", g.faker.RandomString(eventNames), i+1),
			Category: categories[i%len(categories)],
			Tier:     string(rules.Tiers[g.faker.Number(0, len(rules.Tiers)-1)]),
		}
	}

	for i := range out.Contingents {
		id := fmt.Sprintf("CL%03d", i+1)
		members := make([]model.Member, g.members)
		for j := range members {
			first, last := g.faker.FirstName(), g.faker.LastName()
			members[j] = model.Member{
				ID:    fmt.Sprintf("%s-m%02d", id, j+1),
				Name:  first + " " + last,
				Email: strings.ToLower(first+"."+last) + "@example.com",
			}
		}
		out.Contingents[i] = model.Contingent{
			ID:          id,
			DisplayName: g.faker.Name(),
			Affiliation: g.faker.Company(),
			Alias:       g.faker.Username(),
			Members:     members,
		}
	}
	return out
}

// Facts generates per-event results for every contingent in dir. Points
// come from the catalog so seeded facts agree with live awards.
func (g *Generator) Facts(dir repository.DirectoryFile) (map[string][]model.EventFacts, error) {
	out := make(map[string][]model.EventFacts, len(dir.Contingents))
	for _, cl := range dir.Contingents {
		var list []model.EventFacts
		for _, ev := range dir.Events {
			if len(cl.Members) == 0 || !g.faker.Bool() {
				continue
			}
			ef, err := g.eventFacts(cl, ev)
			if err != nil {
				return nil, err
			}
			list = append(list, ef)
		}
		out[cl.ID] = list
	}
	return out, nil
}

func (g *Generator) eventFacts(cl model.Contingent, ev model.Event) (model.EventFacts, error) {
	tier := rules.Tier(ev.Tier)
	points := func(stage rules.Stage, mode rules.Mode) (int, error) {
		p, err := g.catalog.Resolve(tier, stage, mode)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", ev.ID, err)
		}
		return p, nil
	}

	ef := model.EventFacts{EventID: ev.ID, EventName: ev.Name, Category: ev.Category}
	mode := rules.ModeOnline
	if g.faker.Bool() {
		mode = rules.ModeOffline
	}

	n := g.faker.Number(1, len(cl.Members))
	for _, m := range cl.Members[:n] {
		p, err := points(rules.StageParticipation, mode)
		if err != nil {
			return model.EventFacts{}, err
		}
		part := participant(m, p)
		if mode == rules.ModeOnline {
			ef.Registrations.Online = append(ef.Registrations.Online, part)
		} else {
			ef.Registrations.Offline = append(ef.Registrations.Offline, part)
		}
	}

	if g.faker.Number(0, 2) == 0 {
		m := cl.Members[g.faker.Number(0, n-1)]
		p, err := points(rules.StageQualification, mode)
		if err != nil {
			return model.EventFacts{}, err
		}
		ef.Rounds.Round1Qualified = append(ef.Rounds.Round1Qualified, participant(m, p))
	}

	if g.faker.Number(0, 3) == 0 {
		placements := []rules.Stage{rules.StageFirst, rules.StageSecond, rules.StageThird}
		stage := placements[g.faker.Number(0, len(placements)-1)]
		m := cl.Members[g.faker.Number(0, n-1)]
		p, err := points(stage, mode)
		if err != nil {
			return model.EventFacts{}, err
		}
		part := participant(m, p)
		part.Rank = string(stage)
		ef.Ranks = append(ef.Ranks, part)
	}
	return ef, nil
}

func participant(m model.Member, points int) model.Participant {
	return model.Participant{ID: m.ID, Name: m.Name, Email: m.Email, Points: points}
}

// Write generates both fixtures into dir and returns their paths.
func (g *Generator) Write(ctx context.Context, dir string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("seed: %w", err)
	}

	directory := g.Directory()
	facts, err := g.Facts(directory)
	if err != nil {
		return "", "", err
	}

	dirPath := filepath.Join(dir, DirectoryFile)
	if err := writeYAML(dirPath, directory); err != nil {
		return "", "", err
	}
	factsPath := filepath.Join(dir, FactsFile)
	if err := writeYAML(factsPath, facts); err != nil {
		return "", "", err
	}

	logger.Get().Info(ctx, "seed fixtures written",
		logger.String("directory", dirPath),
		logger.String("facts", factsPath),
		logger.Int("contingents", len(directory.Contingents)),
		logger.Int("events", len(directory.Events)),
		logger.Int64("seed", g.seed),
	)
	return dirPath, factsPath, nil
}

func writeYAML(path string, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("seed: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
