// Package ranking orders contingent leaders by final score.
package ranking

import "sort"

// Candidate is one CL's final score plus display metadata.
type Candidate struct {
	ID          string
	DisplayName string
	Affiliation string
	Alias       string
	FinalScore  int
}

// Entry is a leaderboard row. It is derived per request and never stored.
type Entry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Affiliation string `json:"affiliation"`
	Alias       string `json:"alias,omitempty"`
	Points      int    `json:"points"`
}

// Rank sorts candidates by score DESC, then ID ASC, and assigns standard
// competition ranks ("1224"): tied scores share a rank and the next
// distinct score resumes at its 1-based position. The input is not mutated.
func Rank(candidates []Candidate) []Entry {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FinalScore != sorted[j].FinalScore {
			return sorted[i].FinalScore > sorted[j].FinalScore
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]Entry, len(sorted))
	for i, c := range sorted {
		rank := i + 1
		if i > 0 && c.FinalScore == sorted[i-1].FinalScore {
			rank = out[i-1].Rank
		}
		out[i] = Entry{
			Rank:        rank,
			ID:          c.ID,
			DisplayName: c.DisplayName,
			Affiliation: c.Affiliation,
			Alias:       c.Alias,
			Points:      c.FinalScore,
		}
	}
	return out
}

// Find returns the entry for id.
func Find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Top returns at most n entries; n <= 0 means all. Ties straddling the cut
// keep their shared rank.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
