package fixtures

import "github.com/Dosada05/league-draw/models"

// roundRobinFallback deals matches into rounds by index modulo the round
// count. Every match gets a round but a team may appear twice in the same
// round, so the result must be reported as degraded.
func roundRobinFallback(matches []models.Match, rounds int) []models.Round {
	out := make([]models.Round, rounds)
	for i := range out {
		out[i] = models.Round{Number: i + 1, Matches: make([]models.Match, 0, len(matches)/rounds+1)}
	}
	for i, m := range matches {
		r := i % rounds
		m.Round = r + 1
		out[r].Matches = append(out[r].Matches, m)
	}
	return out
}
