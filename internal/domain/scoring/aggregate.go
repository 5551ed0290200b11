package scoring

import (
	"fmt"
	"sort"

	"github.com/okian/prscore/internal/domain/model"
)

// Classifier reports whether a free-form rule name is a penalty.
type Classifier func(name string) bool

// Aggregate builds the ScoreReport for clID. It is a pure integer fold: the
// same facts and records always produce an identical report. Records of
// other CLs and tiered records are ignored here; tiered awards reach the
// report through the event facts.
func Aggregate(clID string, facts map[string][]model.EventFacts, records []model.AwardRecord, isNegative Classifier) ScoreReport {
	report := ScoreReport{
		CLID:       clID,
		Categories: make(map[string][]EventReport, len(facts)),
		Summary: Summary{
			CategoryTotals: make(map[string]int, len(facts)),
			FreeForm:       make(map[string]int),
		},
	}

	categoriesTotal := 0
	for category, events := range facts {
		reports := make([]EventReport, 0, len(events))
		total := 0
		for _, ev := range events {
			er := aggregateEvent(ev)
			total += er.TotalEventScore
			reports = append(reports, er)
		}
		sort.SliceStable(reports, func(i, j int) bool {
			if reports[i].EventName != reports[j].EventName {
				return reports[i].EventName < reports[j].EventName
			}
			return reports[i].EventID < reports[j].EventID
		})
		report.Categories[category] = reports
		report.Summary.CategoryTotals[category] = total
		categoriesTotal += total
	}

	for _, rec := range records {
		if rec.CLID != clID {
			continue
		}
		ff, ok := rec.Rule.FreeForm()
		if !ok {
			continue
		}
		if isNegative != nil && isNegative(ff.Name) {
			mag := abs(rec.Points)
			report.Summary.NegativeActivitiesScore += mag
			report.Summary.FreeForm[ff.Name] += mag
			continue
		}
		report.Summary.ExtraActivitiesScore += rec.Points
		report.Summary.FreeForm[ff.Name] += rec.Points
	}

	report.Summary.FinalScore = categoriesTotal +
		report.Summary.ExtraActivitiesScore -
		report.Summary.NegativeActivitiesScore
	return report
}

func aggregateEvent(ev model.EventFacts) EventReport {
	er := EventReport{
		EventID:   ev.EventID,
		EventName: ev.EventName,
		Registrations: RegistrationReport{
			Online:  group(ev.Registrations.Online),
			Offline: group(ev.Registrations.Offline),
		},
	}

	if len(ev.Rounds.Round1Qualified) > 0 {
		g := group(ev.Rounds.Round1Qualified)
		er.Rounds.Round1Qualified = &g
		er.Rounds.Bonus += g.Bonus
	}
	if len(ev.Rounds.Round2Qualified) > 0 {
		g := group(ev.Rounds.Round2Qualified)
		er.Rounds.Round2Qualified = &g
		er.Rounds.Bonus += g.Bonus
	}
	if len(ev.Rounds.RunnerUps) > 0 {
		g := group(ev.Rounds.RunnerUps)
		er.Rounds.RunnerUps = &g
		er.Rounds.Bonus += g.Bonus
	}

	er.Ranks.Achieved = make([]string, 0, len(ev.Ranks))
	er.Ranks.Participants = make([]model.Participant, 0, len(ev.Ranks))
	for _, p := range ev.Ranks {
		er.Ranks.Bonus += p.Points
		er.Ranks.Achieved = append(er.Ranks.Achieved, p.Rank)
		er.Ranks.Participants = append(er.Ranks.Participants, p)
	}

	er.TotalEventScore = er.Registrations.Online.Bonus +
		er.Registrations.Offline.Bonus +
		er.Rounds.Bonus +
		er.Ranks.Bonus
	return er
}

func group(list []model.Participant) Group {
	g := Group{
		Count:        len(list),
		Participants: make([]model.Participant, 0, len(list)),
	}
	for _, p := range list {
		g.Bonus += p.Points
		g.Participants = append(g.Participants, p)
	}
	return g
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Verify recomputes every derived total in r from its leaves and reports
// the first mismatch.
func Verify(r ScoreReport) error {
	sumTotals := 0
	for category, events := range r.Categories {
		catTotal := 0
		for _, ev := range events {
			if err := verifyEvent(category, ev); err != nil {
				return err
			}
			catTotal += ev.TotalEventScore
		}
		if got := r.Summary.CategoryTotals[category]; got != catTotal {
			return fmt.Errorf("%w: category %q total %d, events sum to %d", ErrInvariant, category, got, catTotal)
		}
		sumTotals += catTotal
	}
	if len(r.Summary.CategoryTotals) != len(r.Categories) {
		return fmt.Errorf("%w: %d category totals for %d categories", ErrInvariant, len(r.Summary.CategoryTotals), len(r.Categories))
	}
	want := sumTotals + r.Summary.ExtraActivitiesScore - r.Summary.NegativeActivitiesScore
	if r.Summary.FinalScore != want {
		return fmt.Errorf("%w: final score %d, expected %d", ErrInvariant, r.Summary.FinalScore, want)
	}
	return nil
}

func verifyEvent(category string, ev EventReport) error {
	checks := []struct {
		name string
		g    *Group
	}{
		{"online", &ev.Registrations.Online},
		{"offline", &ev.Registrations.Offline},
		{"round_1_qualified", ev.Rounds.Round1Qualified},
		{"round_2_qualified", ev.Rounds.Round2Qualified},
		{"runner_ups", ev.Rounds.RunnerUps},
	}
	roundSum := 0
	for i, c := range checks {
		if c.g == nil {
			continue
		}
		sum := 0
		for _, p := range c.g.Participants {
			sum += p.Points
		}
		if sum != c.g.Bonus || len(c.g.Participants) != c.g.Count {
			return fmt.Errorf("%w: %s/%s group %s does not match its participants", ErrInvariant, category, ev.EventID, c.name)
		}
		if i >= 2 {
			roundSum += sum
		}
	}
	if roundSum != ev.Rounds.Bonus {
		return fmt.Errorf("%w: %s/%s round subtotal %d, expected %d", ErrInvariant, category, ev.EventID, ev.Rounds.Bonus, roundSum)
	}
	rankSum := 0
	for _, p := range ev.Ranks.Participants {
		rankSum += p.Points
	}
	if rankSum != ev.Ranks.Bonus {
		return fmt.Errorf("%w: %s/%s rank score %d, expected %d", ErrInvariant, category, ev.EventID, ev.Ranks.Bonus, rankSum)
	}
	want := ev.Registrations.Online.Bonus + ev.Registrations.Offline.Bonus + ev.Rounds.Bonus + ev.Ranks.Bonus
	if ev.TotalEventScore != want {
		return fmt.Errorf("%w: %s/%s total %d, expected %d", ErrInvariant, category, ev.EventID, ev.TotalEventScore, want)
	}
	return nil
}
