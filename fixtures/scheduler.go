// Package fixtures turns a validated draw into matchdays: every drawn pairing
// becomes one match and the matches are split into rounds in which each team
// plays exactly once.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/Dosada05/league-draw/models"
)

const (
	DefaultMatchingAttempts  = 100
	DefaultRestarts          = 10
	DefaultMaxMatchingPasses = 250000
)

type Options struct {
	// Rounds must equal the number of opponents per team.
	Rounds int
	// MatchingAttempts bounds the greedy passes per round before the search
	// backtracks to the previous round.
	MatchingAttempts int
	// Restarts bounds how often the whole search starts over from round 1.
	Restarts int
	// MaxMatchingPasses caps the greedy passes across all restarts.
	MaxMatchingPasses int
	// AllowDegraded returns the modular fallback, flagged as degraded,
	// instead of a *DecompositionError.
	AllowDegraded bool
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Rounds <= 0 {
		o.Rounds = models.DefaultRoundCount
	}
	if o.MatchingAttempts <= 0 {
		o.MatchingAttempts = DefaultMatchingAttempts
	}
	if o.Restarts <= 0 {
		o.Restarts = DefaultRestarts
	}
	if o.MaxMatchingPasses <= 0 {
		o.MaxMatchingPasses = DefaultMaxMatchingPasses
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Schedule is the outcome of one scheduling run.
type Schedule struct {
	Rounds []models.Round `json:"rounds"`
	// Degraded is set when the rounds come from the modular fallback and
	// teams may play more than once in a round.
	Degraded bool `json:"degraded"`
	Restarts int  `json:"restarts"`
	Passes   int  `json:"passes"`
	// Backtracks counts how often the search stepped back to an earlier
	// round, summed over restarts.
	Backtracks int `json:"backtracks"`
}

// Scheduler decomposes the match graph of a draw into perfect matchings by
// randomized backtracking. It holds configuration only and is safe for
// concurrent use with separate random sources.
type Scheduler struct {
	opts Options
}

func NewScheduler(opts Options) *Scheduler {
	return &Scheduler{opts: opts.withDefaults()}
}

var errWorkCeiling = errors.New("work ceiling reached")

// Schedule extracts the matches of draws and assigns each to a round.
func (s *Scheduler) Schedule(ctx context.Context, draws []models.TeamDraw, rng *rand.Rand) (*Schedule, error) {
	if rng == nil {
		return nil, errors.New("fixtures: nil random source")
	}
	matches, err := ExtractMatches(draws)
	if err != nil {
		return nil, err
	}
	return s.ScheduleMatches(ctx, matches, len(draws), rng)
}

// ScheduleMatches assigns already extracted matches among teamCount teams to
// rounds.
func (s *Scheduler) ScheduleMatches(ctx context.Context, matches []models.Match, teamCount int, rng *rand.Rand) (*Schedule, error) {
	perRound := teamCount / 2
	if teamCount%2 != 0 || len(matches) != s.opts.Rounds*perRound {
		return nil, fmt.Errorf("%w: %d matches among %d teams cannot fill %d rounds",
			ErrRoundCount, len(matches), teamCount, s.opts.Rounds)
	}

	g := newGraph(matches)
	out := &Schedule{}
	var lastErr error

	for restart := 0; restart < s.opts.Restarts; restart++ {
		out.Restarts = restart
		g.reset()

		picked, err := s.decompose(ctx, g, rng, out)
		if err == nil {
			out.Rounds = buildRounds(matches, picked)
			s.opts.Logger.Debug("schedule found",
				slog.Int("restarts", restart),
				slog.Int("passes", out.Passes),
				slog.Int("backtracks", out.Backtracks))
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fixtures: stopped after %d passes: %w", out.Passes, ctxErr)
		}
		lastErr = err
		if errors.Is(err, errWorkCeiling) {
			break
		}
	}

	decompErr := &DecompositionError{
		Rounds:   s.opts.Rounds,
		Restarts: out.Restarts + 1,
		Passes:   out.Passes,
		Reason:   lastErr.Error(),
	}
	if !s.opts.AllowDegraded {
		return nil, decompErr
	}

	out.Rounds = roundRobinFallback(matches, s.opts.Rounds)
	out.Degraded = true
	s.opts.Logger.Warn("schedule degraded: using modular round assignment",
		slog.Any("error", decompErr),
		slog.Any("verify", VerifyRounds(out.Rounds, matches, teamCount)))
	return out, nil
}

// frame is the search state of one round: how many greedy passes it has used
// and the matching it currently holds.
type frame struct {
	tries  int
	chosen []int
}

// decompose runs one backtracking search from round 1 and returns, per round,
// the indices of its matches. The frame stack replaces recursion: level is the
// round being filled and frames[:level] hold the accepted matchings. Work
// counters accumulate in stats.
func (s *Scheduler) decompose(ctx context.Context, g *graph, rng *rand.Rand, stats *Schedule) ([][]int, error) {
	rounds := s.opts.Rounds
	frames := make([]frame, rounds)
	level := 0

	for level < rounds {
		f := &frames[level]
		if f.chosen != nil {
			g.release(f.chosen)
			f.chosen = nil
		}

		if f.tries >= s.opts.MatchingAttempts {
			if level == 0 {
				return nil, fmt.Errorf("round 1 exhausted %d matching attempts", s.opts.MatchingAttempts)
			}
			level--
			stats.Backtracks++
			continue
		}
		if stats.Passes >= s.opts.MaxMatchingPasses {
			return nil, fmt.Errorf("%w after %d passes", errWorkCeiling, stats.Passes)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f.tries++
		stats.Passes++
		m := g.greedyMatching(rng)
		if m == nil {
			continue
		}
		g.take(m)
		f.chosen = m

		level++
		if level < rounds {
			frames[level] = frame{}
		}
	}

	picked := make([][]int, rounds)
	for i := range frames {
		picked[i] = frames[i].chosen
	}
	return picked, nil
}

// graph is the mutable view of the match set during one search.
type graph struct {
	edges [][2]int // team indices per match
	teams int
	used  []bool // match already placed in a round

	// scratch for greedyMatching
	busy []bool
	pool []int
}

func newGraph(matches []models.Match) *graph {
	index := make(map[int]int)
	teamIndex := func(id int) int {
		i, ok := index[id]
		if !ok {
			i = len(index)
			index[id] = i
		}
		return i
	}

	g := &graph{edges: make([][2]int, len(matches))}
	for i, m := range matches {
		g.edges[i] = [2]int{teamIndex(m.HomeTeamID), teamIndex(m.AwayTeamID)}
	}
	g.teams = len(index)
	g.used = make([]bool, len(matches))
	g.busy = make([]bool, g.teams)
	g.pool = make([]int, 0, len(matches))
	return g
}

func (g *graph) reset() {
	for i := range g.used {
		g.used[i] = false
	}
}

func (g *graph) take(m []int) {
	for _, e := range m {
		g.used[e] = true
	}
}

func (g *graph) release(m []int) {
	for _, e := range m {
		g.used[e] = false
	}
}

// greedyMatching shuffles the unplaced matches and accepts every match whose
// teams are both still free. It returns the perfect matching found, or nil
// when some team was left uncovered.
func (g *graph) greedyMatching(rng *rand.Rand) []int {
	g.pool = g.pool[:0]
	for e, used := range g.used {
		if !used {
			g.pool = append(g.pool, e)
		}
	}
	rng.Shuffle(len(g.pool), func(i, j int) { g.pool[i], g.pool[j] = g.pool[j], g.pool[i] })

	for i := range g.busy {
		g.busy[i] = false
	}
	want := g.teams / 2
	out := make([]int, 0, want)
	for _, e := range g.pool {
		a, b := g.edges[e][0], g.edges[e][1]
		if g.busy[a] || g.busy[b] {
			continue
		}
		g.busy[a], g.busy[b] = true, true
		out = append(out, e)
		if len(out) == want {
			return out
		}
	}
	return nil
}

// buildRounds materializes the picked matchings; matches inside a round keep
// extraction order.
func buildRounds(matches []models.Match, picked [][]int) []models.Round {
	rounds := make([]models.Round, len(picked))
	for r, m := range picked {
		idx := append([]int(nil), m...)
		sort.Ints(idx)
		round := models.Round{Number: r + 1, Matches: make([]models.Match, len(idx))}
		for i, e := range idx {
			match := matches[e]
			match.Round = r + 1
			round.Matches[i] = match
		}
		rounds[r] = round
	}
	return rounds
}
