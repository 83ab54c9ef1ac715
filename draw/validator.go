package draw

import (
	"fmt"

	"github.com/Dosada05/league-draw/models"
)

// Rule names one pairing invariant.
type Rule string

const (
	RuleDuplicateTeam     Rule = "duplicate_team"
	RuleOpponentCount     Rule = "opponent_count"
	RuleSelfPairing       Rule = "self_pairing"
	RuleDuplicateOpponent Rule = "duplicate_opponent"
	RuleHomeAwayBalance   Rule = "home_away_balance"
	RulePotBalance        Rule = "pot_balance"
	RuleSameCountry       Rule = "same_country"
	RuleAssociationLimit  Rule = "association_limit"
	RuleUnknownOpponent   Rule = "unknown_opponent"
	RuleAsymmetric        Rule = "asymmetric_pairing"
)

type Violation struct {
	TeamID int    `json:"team_id"`
	Rule   Rule   `json:"rule"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("team %d: %s: %s", v.TeamID, v.Rule, v.Detail)
}

// Report lists every violated invariant of a draw. An empty report means the
// draw is valid.
type Report struct {
	Violations []Violation `json:"violations"`
}

func (r Report) Valid() bool {
	return len(r.Violations) == 0
}

// Err returns nil for a valid report, otherwise an error wrapping
// ErrInvalidDraw that names the first violation.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %d violations, first: %s", ErrInvalidDraw, len(r.Violations), r.Violations[0])
}

// ByRule returns the violations of rule.
func (r Report) ByRule(rule Rule) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Rule == rule {
			out = append(out, v)
		}
	}
	return out
}

func (r *Report) add(teamID int, rule Rule, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{TeamID: teamID, Rule: rule, Detail: fmt.Sprintf(format, args...)})
}

type ValidateOptions struct {
	AssociationLimit int
}

// IsValid checks results with the default association limit.
func IsValid(results []models.TeamDraw) bool {
	return Validate(results, ValidateOptions{}).Valid()
}

// Validate re-checks every pairing invariant of results from scratch:
//
//   - exactly OpponentsPerTeam distinct opponents, none of them the team itself;
//   - half of them at home;
//   - one home and one away opponent from every pot;
//   - no opponent from the team's own country;
//   - no country more than AssociationLimit times among the opponents;
//   - every pairing is mirrored on the opponent with the opposite side.
//
// It keeps no state and shares nothing with the generator.
func Validate(results []models.TeamDraw, opts ValidateOptions) Report {
	limit := opts.AssociationLimit
	if limit <= 0 {
		limit = models.DefaultAssociationLimit
	}

	var report Report
	index := make(map[int]*models.TeamDraw, len(results))
	for i := range results {
		id := results[i].Team.ID
		if _, dup := index[id]; dup {
			report.add(id, RuleDuplicateTeam, "team appears more than once")
			continue
		}
		index[id] = &results[i]
	}

	for _, r := range results {
		checkTeam(&report, r, limit)
	}

	for _, r := range results {
		for _, p := range r.Opponents {
			other, ok := index[p.Opponent.ID]
			if !ok {
				report.add(r.Team.ID, RuleUnknownOpponent, "opponent %d is not in the draw", p.Opponent.ID)
				continue
			}
			mirrors := 0
			for _, q := range other.Opponents {
				if q.Opponent.ID == r.Team.ID && q.IsHome != p.IsHome {
					mirrors++
				}
			}
			if mirrors != 1 {
				report.add(r.Team.ID, RuleAsymmetric, "pairing with %d (home=%t) has %d mirrored entries, want 1",
					p.Opponent.ID, p.IsHome, mirrors)
			}
		}
	}

	return report
}

func checkTeam(report *Report, r models.TeamDraw, limit int) {
	team := r.Team
	if len(r.Opponents) != models.OpponentsPerTeam {
		report.add(team.ID, RuleOpponentCount, "has %d opponents, want %d", len(r.Opponents), models.OpponentsPerTeam)
	}

	seen := make(map[int]bool, len(r.Opponents))
	var countries []string
	countryCount := make(map[string]int)
	var potHome, potAway [models.PotCount]int
	home := 0

	for _, p := range r.Opponents {
		opp := p.Opponent
		if opp.ID == team.ID {
			report.add(team.ID, RuleSelfPairing, "paired with itself")
		}
		if seen[opp.ID] {
			report.add(team.ID, RuleDuplicateOpponent, "opponent %d drawn more than once", opp.ID)
		}
		seen[opp.ID] = true

		if opp.Country == team.Country {
			report.add(team.ID, RuleSameCountry, "opponent %d shares country %s", opp.ID, team.Country)
		}
		if countryCount[opp.Country] == 0 {
			countries = append(countries, opp.Country)
		}
		countryCount[opp.Country]++

		if p.IsHome {
			home++
		}
		if opp.Pot < 1 || opp.Pot > models.PotCount {
			report.add(team.ID, RulePotBalance, "opponent %d has pot %d", opp.ID, opp.Pot)
			continue
		}
		if p.IsHome {
			potHome[opp.Pot-1]++
		} else {
			potAway[opp.Pot-1]++
		}
	}

	wantHome := models.OpponentsPerTeam / 2
	if away := len(r.Opponents) - home; home != wantHome || away != wantHome {
		report.add(team.ID, RuleHomeAwayBalance, "%d home / %d away, want %d / %d", home, away, wantHome, wantHome)
	}

	for i := 0; i < models.PotCount; i++ {
		if potHome[i] != 1 || potAway[i] != 1 {
			report.add(team.ID, RulePotBalance, "pot %d: %d home / %d away, want 1 / 1", i+1, potHome[i], potAway[i])
		}
	}

	for _, c := range countries {
		if countryCount[c] > limit {
			report.add(team.ID, RuleAssociationLimit, "%d opponents from %s, limit %d", countryCount[c], c, limit)
		}
	}
}
