package model

// Member is a student on a contingent's roster.
type Member struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email,omitempty" yaml:"email,omitempty"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// Contingent is a delegation headed by a Contingent Leader (CL).
type Contingent struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Affiliation string   `json:"affiliation" yaml:"affiliation"`
	Alias       string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Members     []Member `json:"members" yaml:"members"`
}

// Member returns the roster member with the given id.
func (c Contingent) Member(id string) (Member, bool) {
	for _, m := range c.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Event is a festival event as known to the registry.
type Event struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Tier     string `json:"tier" yaml:"tier"`
}
