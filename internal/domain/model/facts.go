package model

// Participant is a person listed in an event fact group.
type Participant struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Points   int    `json:"points" yaml:"points"`
	Rank     string `json:"rank,omitempty" yaml:"rank,omitempty"`
	AwardUID string `json:"award_uid,omitempty" yaml:"award_uid,omitempty"`
}

// Registrations splits registered participants by mode.
type Registrations struct {
	Online  []Participant `json:"online" yaml:"online"`
	Offline []Participant `json:"offline" yaml:"offline"`
}

// Rounds lists who advanced in an event.
type Rounds struct {
	Round1Qualified []Participant `json:"round_1_qualified,omitempty" yaml:"round_1_qualified,omitempty"`
	Round2Qualified []Participant `json:"round_2_qualified,omitempty" yaml:"round_2_qualified,omitempty"`
	RunnerUps       []Participant `json:"runner_ups,omitempty" yaml:"runner_ups,omitempty"`
}

// EventFacts is the raw per-event input to aggregation.
type EventFacts struct {
	EventID       string        `json:"event_id" yaml:"event_id"`
	EventName     string        `json:"event_name" yaml:"event_name"`
	Category      string        `json:"category" yaml:"category"`
	Registrations Registrations `json:"registrations" yaml:"registrations"`
	Rounds        Rounds        `json:"rounds" yaml:"rounds"`
	Ranks         []Participant `json:"ranks" yaml:"ranks"`
}
