package models

import "fmt"

// Match is the undirected form of a pairing. Round 0 means unassigned.
type Match struct {
	ID         string `json:"id"`
	HomeTeamID int    `json:"home_team_id"`
	AwayTeamID int    `json:"away_team_id"`
	Round      int    `json:"round"`
}

// Round (matchday) groups the matches played on the same date. In a valid
// schedule every team appears exactly once.
type Round struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}

// MatchID builds the canonical id of a pairing between a and b, independent
// of argument order.
func MatchID(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

// Involves reports whether teamID plays in m.
func (m Match) Involves(teamID int) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}
