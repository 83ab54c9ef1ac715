package models

import "fmt"

// Параметры общего этапа: четыре корзины, восемь соперников.
const (
	PotCount                = 4
	OpponentsPerTeam        = 8
	DefaultAssociationLimit = 2
	DefaultRoundCount       = 8
)

// Team: участник жеребьёвки. Значение создаётся один раз из каталога и не меняется.
type Team struct {
	ID          int    `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Country     string `json:"country" toml:"country"`
	CountryCode string `json:"country_code" toml:"country_code"`
	Pot         int    `json:"pot" toml:"pot"`
}

func (t Team) String() string {
	return fmt.Sprintf("%s (%s, pot %d)", t.Name, t.CountryCode, t.Pot)
}

// Pairing is one side of a drawn fixture. The reciprocal side is stored on
// the opponent's TeamDraw with IsHome inverted.
type Pairing struct {
	Opponent Team `json:"opponent"`
	IsHome   bool `json:"is_home"`
}

// TeamDraw holds a team together with the opponents it was drawn against.
type TeamDraw struct {
	Team      Team      `json:"team"`
	Opponents []Pairing `json:"opponents"`
}

// HomeCount returns the number of home pairings.
func (d TeamDraw) HomeCount() int {
	n := 0
	for _, p := range d.Opponents {
		if p.IsHome {
			n++
		}
	}
	return n
}

// OpponentsFromPot returns the home and away opponents drawn from pot.
func (d TeamDraw) OpponentsFromPot(pot int) (home, away []Team) {
	for _, p := range d.Opponents {
		if p.Opponent.Pot != pot {
			continue
		}
		if p.IsHome {
			home = append(home, p.Opponent)
		} else {
			away = append(away, p.Opponent)
		}
	}
	return home, away
}
