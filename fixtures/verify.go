package fixtures

import (
	"fmt"
	"strings"

	"github.com/Dosada05/league-draw/models"
)

// VerifyRounds checks rounds against the full match set without trusting the
// scheduler: rounds are numbered 1..len(rounds), every match is placed in
// exactly one round with a matching Round field, and each of the teamCount
// teams plays exactly once per round.
func VerifyRounds(rounds []models.Round, matches []models.Match, teamCount int) error {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	known := make(map[string]models.Match, len(matches))
	for _, m := range matches {
		known[m.ID] = m
	}
	placed := make(map[string]int, len(matches))

	for i, r := range rounds {
		if r.Number != i+1 {
			report("round at position %d has number %d", i+1, r.Number)
		}
		playing := make(map[int]int, teamCount)
		for _, m := range r.Matches {
			if _, ok := known[m.ID]; !ok {
				report("round %d: unknown match %s", r.Number, m.ID)
			}
			if m.Round != r.Number {
				report("round %d: match %s carries round %d", r.Number, m.ID, m.Round)
			}
			if prev, dup := placed[m.ID]; dup {
				report("match %s placed in rounds %d and %d", m.ID, prev, r.Number)
			}
			placed[m.ID] = r.Number
			playing[m.HomeTeamID]++
			playing[m.AwayTeamID]++
		}
		if len(playing) != teamCount {
			report("round %d: %d of %d teams play", r.Number, len(playing), teamCount)
		}
		for id, n := range playing {
			if n > 1 {
				report("round %d: team %d plays %d times", r.Number, id, n)
			}
		}
	}

	for _, m := range matches {
		if _, ok := placed[m.ID]; !ok {
			report("match %s is not scheduled", m.ID)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	shown := problems
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return fmt.Errorf("%w: %d problems: %s", ErrInvalidSchedule, len(problems), strings.Join(shown, "; "))
}

// FilterRound returns round number n, if present.
func FilterRound(rounds []models.Round, n int) (models.Round, bool) {
	for _, r := range rounds {
		if r.Number == n {
			return r, true
		}
	}
	return models.Round{}, false
}
