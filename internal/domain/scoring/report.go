// Package scoring folds event facts and ledger free-form awards into a
// per-CL ScoreReport.
package scoring

import "github.com/okian/prscore/internal/domain/model"

// Group is a counted list of participants with their summed points.
type Group struct {
	Count        int                 `json:"count"`
	Bonus        int                 `json:"bonus"`
	Participants []model.Participant `json:"participants"`
}

// RegistrationReport splits registrations by mode.
type RegistrationReport struct {
	Online  Group `json:"online"`
	Offline Group `json:"offline"`
}

// RoundReport holds each advancement list plus the round subtotal.
type RoundReport struct {
	Round1Qualified *Group `json:"round_1_qualified,omitempty"`
	Round2Qualified *Group `json:"round_2_qualified,omitempty"`
	RunnerUps       *Group `json:"runner_ups,omitempty"`
	Bonus           int    `json:"bonus"`
}

// RankReport holds placement results.
type RankReport struct {
	Achieved     []string            `json:"achieved"`
	Bonus        int                 `json:"bonus"`
	Participants []model.Participant `json:"participants"`
}

// EventReport is the per-event breakdown. TotalEventScore is derived from
// the groups and never set independently.
type EventReport struct {
	EventID         string             `json:"event_id"`
	EventName       string             `json:"event_name"`
	Registrations   RegistrationReport `json:"registrations"`
	Rounds          RoundReport        `json:"rounds"`
	Ranks           RankReport         `json:"ranks"`
	TotalEventScore int                `json:"total_event_score"`
}

// Summary rolls the categories and free-form awards into the final score.
type Summary struct {
	CategoryTotals          map[string]int `json:"category_totals"`
	ExtraActivitiesScore    int            `json:"extra_activities_score"`
	NegativeActivitiesScore int            `json:"negative_activities_score"`
	FreeForm                map[string]int `json:"free_form"`
	FinalScore              int            `json:"final_score"`
}

// ScoreReport is the complete, self-contained score view for one CL.
type ScoreReport struct {
	CLID       string                   `json:"cl_id"`
	Categories map[string][]EventReport `json:"categories"`
	Summary    Summary                  `json:"summary"`
}
