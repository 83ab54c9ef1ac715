package draw

import (
	"math/rand"

	"github.com/Dosada05/league-draw/models"
)

const (
	sideHome = 0
	sideAway = 1
)

// attemptState is the bookkeeping of one draw attempt. It is built fresh for
// every attempt and never shared.
type attemptState struct {
	teams []models.Team
	limit int
	rng   *rand.Rand

	pot     []int   // 0-based pot per team index
	country []int   // country index per team index
	byPot   [][]int // team indices per pot, roster order
	order   []int   // shuffled processing order

	need      [][models.PotCount][2]int // remaining (home, away) per pot
	paired    [][]bool
	countries [][]int // opponents per country index
	pairings  [][]models.Pairing
}

func newAttemptState(teams []models.Team, limit int, rng *rand.Rand) *attemptState {
	n := len(teams)
	st := &attemptState{
		teams:     teams,
		limit:     limit,
		rng:       rng,
		pot:       make([]int, n),
		country:   make([]int, n),
		byPot:     make([][]int, models.PotCount),
		need:      make([][models.PotCount][2]int, n),
		paired:    make([][]bool, n),
		countries: make([][]int, n),
		pairings:  make([][]models.Pairing, n),
	}

	countryIndex := make(map[string]int)
	for i, t := range teams {
		st.pot[i] = t.Pot - 1
		st.byPot[t.Pot-1] = append(st.byPot[t.Pot-1], i)
		idx, ok := countryIndex[t.Country]
		if !ok {
			idx = len(countryIndex)
			countryIndex[t.Country] = idx
		}
		st.country[i] = idx
	}

	for i := range teams {
		for p := 0; p < models.PotCount; p++ {
			st.need[i][p] = [2]int{1, 1}
		}
		st.paired[i] = make([]bool, n)
		st.countries[i] = make([]int, len(countryIndex))
		st.pairings[i] = make([]models.Pairing, 0, models.OpponentsPerTeam)
	}

	st.order = rng.Perm(n)
	return st
}

// eligible reports whether b may be drawn as a's opponent on side (from a's
// point of view). b must still need the mirrored side from a's pot.
func (st *attemptState) eligible(a, b, side int) bool {
	if a == b || st.country[a] == st.country[b] || st.paired[a][b] {
		return false
	}
	if len(st.pairings[b]) >= models.OpponentsPerTeam {
		return false
	}
	if st.need[b][st.pot[a]][1-side] == 0 {
		return false
	}
	return st.countries[a][st.country[b]] < st.limit && st.countries[b][st.country[a]] < st.limit
}

func (st *attemptState) countCandidates(a, pot, side int) int {
	n := 0
	for _, b := range st.byPot[pot] {
		if st.eligible(a, b, side) {
			n++
		}
	}
	return n
}

// candidates returns the eligible opponents of a in pot, shuffled.
func (st *attemptState) candidates(a, pot, side int) []int {
	out := make([]int, 0, len(st.byPot[pot]))
	for _, b := range st.byPot[pot] {
		if st.eligible(a, b, side) {
			out = append(out, b)
		}
	}
	st.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// assign records a vs b on both teams at once, so the reciprocal pairing
// always exists.
func (st *attemptState) assign(a, b, side int) {
	st.pairings[a] = append(st.pairings[a], models.Pairing{Opponent: st.teams[b], IsHome: side == sideHome})
	st.pairings[b] = append(st.pairings[b], models.Pairing{Opponent: st.teams[a], IsHome: side == sideAway})

	st.need[a][st.pot[b]][side]--
	st.need[b][st.pot[a]][1-side]--

	st.paired[a][b] = true
	st.paired[b][a] = true
	st.countries[a][st.country[b]]++
	st.countries[b][st.country[a]]++
}

// fillSequential processes teams in shuffled order; for every pot the team
// still needs, it takes the first shuffled candidate for the home slot and
// then for the away slot. Slots without a candidate stay open.
func (st *attemptState) fillSequential() {
	for _, a := range st.order {
		if len(st.pairings[a]) >= models.OpponentsPerTeam {
			continue
		}
		for pot := 0; pot < models.PotCount; pot++ {
			for side := sideHome; side <= sideAway; side++ {
				if st.need[a][pot][side] == 0 {
					continue
				}
				if c := st.candidates(a, pot, side); len(c) > 0 {
					st.assign(a, c[0], side)
				}
			}
		}
	}
}

// fillMostConstrained repeatedly fills the open slot with the fewest
// candidates; ties go to the earlier team in the shuffled order. It stops as
// soon as some open slot has no candidate left; the validator then reports the
// attempt as incomplete.
func (st *attemptState) fillMostConstrained() {
	for {
		bestTeam, bestPot, bestSide, bestCount := -1, 0, 0, int(^uint(0)>>1)

	scan:
		for _, a := range st.order {
			for pot := 0; pot < models.PotCount; pot++ {
				for side := sideHome; side <= sideAway; side++ {
					if st.need[a][pot][side] == 0 {
						continue
					}
					n := st.countCandidates(a, pot, side)
					if n < bestCount {
						bestTeam, bestPot, bestSide, bestCount = a, pot, side, n
						if n == 0 {
							break scan
						}
					}
				}
			}
		}

		if bestTeam < 0 || bestCount == 0 {
			return
		}

		c := st.candidates(bestTeam, bestPot, bestSide)
		st.assign(bestTeam, c[0], bestSide)
	}
}

// results returns one TeamDraw per roster team, in roster order.
func (st *attemptState) results() []models.TeamDraw {
	out := make([]models.TeamDraw, len(st.teams))
	for i, t := range st.teams {
		out[i] = models.TeamDraw{Team: t, Opponents: st.pairings[i]}
	}
	return out
}
