package fixtures

import (
	"github.com/Dosada05/league-draw/models"
)

// ExtractMatches turns a draw into its list of matches. Only home-side
// pairings are materialized: the away side of every match is the mirror of
// the opponent's home pairing. Matches come out in roster order of the home
// team with Round set to 0.
//
// The draw must be regular: every team has exactly OpponentsPerTeam
// pairings, every home pairing is mirrored by an away pairing on the
// opponent, and the total is teams*OpponentsPerTeam/2. Anything else is
// reported as an *UpstreamError.
func ExtractMatches(draws []models.TeamDraw) ([]models.Match, error) {
	index := make(map[int]*models.TeamDraw, len(draws))
	for i := range draws {
		d := &draws[i]
		if _, dup := index[d.Team.ID]; dup {
			return nil, teamError(d.Team.ID, "team listed more than once", 1, 2)
		}
		if len(d.Opponents) != models.OpponentsPerTeam {
			return nil, teamError(d.Team.ID, "wrong number of pairings", models.OpponentsPerTeam, len(d.Opponents))
		}
		index[d.Team.ID] = d
	}

	expected := len(draws) * models.OpponentsPerTeam / 2
	matches := make([]models.Match, 0, expected)
	seen := make(map[string]struct{}, expected)

	for _, d := range draws {
		for _, p := range d.Opponents {
			if !p.IsHome {
				continue
			}
			other, ok := index[p.Opponent.ID]
			if !ok {
				return nil, teamError(d.Team.ID, "opponent missing from draw", 1, 0)
			}
			if n := countMirrors(other, d.Team.ID); n != 1 {
				return nil, teamError(d.Team.ID, "home pairing not mirrored as away", 1, n)
			}

			id := models.MatchID(d.Team.ID, p.Opponent.ID)
			if _, dup := seen[id]; dup {
				return nil, teamError(d.Team.ID, "match "+id+" drawn twice", 1, 2)
			}
			seen[id] = struct{}{}
			matches = append(matches, models.Match{ID: id, HomeTeamID: d.Team.ID, AwayTeamID: p.Opponent.ID})
		}
	}

	if len(matches) != expected {
		return nil, &UpstreamError{Reason: "match count", Expected: expected, Found: len(matches)}
	}
	return matches, nil
}

// countMirrors counts the away pairings of d against homeID.
func countMirrors(d *models.TeamDraw, homeID int) int {
	n := 0
	for _, q := range d.Opponents {
		if q.Opponent.ID == homeID && !q.IsHome {
			n++
		}
	}
	return n
}
