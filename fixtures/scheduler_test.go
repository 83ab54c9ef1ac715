package fixtures_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/fixtures"
	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/random"
	"github.com/Dosada05/league-draw/roster"
)

func drawFor(t *testing.T, slug string, seed int64) []models.TeamDraw {
	t.Helper()
	comp, err := roster.Default().Get(slug)
	require.NoError(t, err)

	results, err := draw.NewPotGenerator(draw.Options{}).Generate(context.Background(),
		draw.GenerateParams{Teams: comp.Teams, Rand: random.New(seed)})
	require.NoError(t, err)
	return results
}

func requireEveryTeamOncePerRound(t *testing.T, draws []models.TeamDraw, rounds []models.Round) {
	t.Helper()
	require.Len(t, rounds, models.DefaultRoundCount)

	all := make(map[string]bool)
	for i, r := range rounds {
		require.Equal(t, i+1, r.Number)
		require.Len(t, r.Matches, len(draws)/2, "round %d", r.Number)

		playing := make(map[int]bool)
		for _, m := range r.Matches {
			require.False(t, playing[m.HomeTeamID], "round %d: team %d twice", r.Number, m.HomeTeamID)
			require.False(t, playing[m.AwayTeamID], "round %d: team %d twice", r.Number, m.AwayTeamID)
			playing[m.HomeTeamID] = true
			playing[m.AwayTeamID] = true

			require.False(t, all[m.ID], "match %s scheduled twice", m.ID)
			all[m.ID] = true
			require.Equal(t, r.Number, m.Round)
		}
		require.Len(t, playing, len(draws))
	}
	require.Len(t, all, len(draws)*models.OpponentsPerTeam/2)
}

func TestSchedule_EightFullRounds(t *testing.T) {
	for _, slug := range []string{roster.ChampionsLeague, roster.EuropaLeague, roster.ConferenceLeague} {
		t.Run(slug, func(t *testing.T) {
			draws := drawFor(t, slug, 42)

			s := fixtures.NewScheduler(fixtures.Options{})
			schedule, err := s.Schedule(context.Background(), draws, random.New(7))
			require.NoError(t, err)
			assert.False(t, schedule.Degraded)
			assert.Positive(t, schedule.Passes)

			requireEveryTeamOncePerRound(t, draws, schedule.Rounds)

			matches, err := fixtures.ExtractMatches(draws)
			require.NoError(t, err)
			require.NoError(t, fixtures.VerifyRounds(schedule.Rounds, matches, len(draws)))
		})
	}
}

func TestSchedule_HomeSidesFollowTheDraw(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 9)
	schedule, err := fixtures.NewScheduler(fixtures.Options{}).Schedule(context.Background(), draws, random.New(9))
	require.NoError(t, err)

	home := make(map[[2]int]bool)
	for _, d := range draws {
		for _, p := range d.Opponents {
			if p.IsHome {
				home[[2]int{d.Team.ID, p.Opponent.ID}] = true
			}
		}
	}
	for _, r := range schedule.Rounds {
		for _, m := range r.Matches {
			assert.True(t, home[[2]int{m.HomeTeamID, m.AwayTeamID}], "match %s has the wrong home side", m.ID)
		}
	}
}

func TestSchedule_SameSeedSameRounds(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 2024)
	s := fixtures.NewScheduler(fixtures.Options{})

	a, err := s.Schedule(context.Background(), draws, random.New(2024))
	require.NoError(t, err)
	b, err := s.Schedule(context.Background(), draws, random.New(2024))
	require.NoError(t, err)

	ja, err := json.Marshal(a.Rounds)
	require.NoError(t, err)
	jb, err := json.Marshal(b.Rounds)
	require.NoError(t, err)
	require.Equal(t, string(ja), string(jb))
}

func TestSchedule_MalformedDrawAborts(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 3)
	draws[0].Opponents = draws[0].Opponents[:7]

	_, err := fixtures.NewScheduler(fixtures.Options{}).Schedule(context.Background(), draws, random.New(1))
	require.ErrorIs(t, err, fixtures.ErrUpstreamInvariant)

	var upstream *fixtures.UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.NotNil(t, upstream.TeamID)
	assert.Equal(t, draws[0].Team.ID, *upstream.TeamID)
	assert.Equal(t, models.OpponentsPerTeam, upstream.Expected)
	assert.Equal(t, 7, upstream.Found)
}

func TestSchedule_WorkCeiling(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 4)
	opts := fixtures.Options{MaxMatchingPasses: 1}

	_, err := fixtures.NewScheduler(opts).Schedule(context.Background(), draws, random.New(1))
	require.ErrorIs(t, err, fixtures.ErrScheduleDecomposition)

	var decomp *fixtures.DecompositionError
	require.True(t, errors.As(err, &decomp))
	assert.Equal(t, 1, decomp.Passes)
	assert.Equal(t, models.DefaultRoundCount, decomp.Rounds)
}

func TestSchedule_DegradedFallbackIsFlagged(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 4)
	opts := fixtures.Options{MaxMatchingPasses: 1, AllowDegraded: true}

	schedule, err := fixtures.NewScheduler(opts).Schedule(context.Background(), draws, random.New(1))
	require.NoError(t, err)
	require.True(t, schedule.Degraded)
	require.Len(t, schedule.Rounds, models.DefaultRoundCount)

	total := 0
	for _, r := range schedule.Rounds {
		assert.Len(t, r.Matches, 18)
		total += len(r.Matches)
	}
	assert.Equal(t, 144, total)
}

func TestSchedule_CancelledContext(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixtures.NewScheduler(fixtures.Options{AllowDegraded: true}).Schedule(ctx, draws, random.New(1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSchedule_RoundCountMismatch(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 6)
	_, err := fixtures.NewScheduler(fixtures.Options{Rounds: 6}).Schedule(context.Background(), draws, random.New(1))
	require.ErrorIs(t, err, fixtures.ErrRoundCount)
}

func TestFilterRound(t *testing.T) {
	draws := drawFor(t, roster.ChampionsLeague, 8)
	schedule, err := fixtures.NewScheduler(fixtures.Options{}).Schedule(context.Background(), draws, random.New(8))
	require.NoError(t, err)

	r, ok := fixtures.FilterRound(schedule.Rounds, 3)
	require.True(t, ok)
	assert.Equal(t, 3, r.Number)
	for _, m := range r.Matches {
		assert.Equal(t, 3, m.Round)
	}

	_, ok = fixtures.FilterRound(schedule.Rounds, 9)
	assert.False(t, ok)
}

// prismMatches builds the triangular prism: two triangles joined by three
// rungs. Taking the rungs as round 1 leaves two odd cycles, so that round
// must be undone for the schedule to complete.
func prismMatches() []models.Match {
	edges := [][2]int{{1, 2}, {2, 3}, {3, 1}, {4, 5}, {5, 6}, {6, 4}, {1, 4}, {2, 5}, {3, 6}}
	matches := make([]models.Match, len(edges))
	for i, e := range edges {
		matches[i] = models.Match{ID: fmt.Sprintf("%d-%d", e[0], e[1]), HomeTeamID: e[0], AwayTeamID: e[1]}
	}
	return matches
}

func TestScheduleMatches_StepsBackFromDeadEnd(t *testing.T) {
	matches := prismMatches()
	s := fixtures.NewScheduler(fixtures.Options{Rounds: 3, MatchingAttempts: 50, Restarts: 1})

	backtracked := 0
	for seed := int64(1); seed <= 40; seed++ {
		schedule, err := s.ScheduleMatches(context.Background(), matches, 6, random.New(seed))
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, 0, schedule.Restarts, "seed %d", seed)
		require.NoError(t, fixtures.VerifyRounds(schedule.Rounds, matches, 6), "seed %d", seed)

		if schedule.Backtracks > 0 {
			backtracked++
			// a dead-end round burns its whole budget before the search steps back
			assert.Greater(t, schedule.Passes, 50, "seed %d", seed)
		}
	}
	assert.Positive(t, backtracked)
}

func TestSchedule_TightBudgetBacktracksWithoutRestart(t *testing.T) {
	opts := fixtures.Options{MatchingAttempts: 100, Restarts: 1}
	s := fixtures.NewScheduler(opts)

	const runs = 60
	ok, backtracks := 0, 0
	for seed := int64(1); seed <= runs; seed++ {
		draws := drawFor(t, roster.ChampionsLeague, seed)
		schedule, err := s.Schedule(context.Background(), draws, random.New(seed+1000))
		if err != nil {
			require.ErrorIs(t, err, fixtures.ErrScheduleDecomposition, "seed %d", seed)
			continue
		}
		ok++
		backtracks += schedule.Backtracks

		matches, err := fixtures.ExtractMatches(draws)
		require.NoError(t, err)
		require.NoError(t, fixtures.VerifyRounds(schedule.Rounds, matches, len(draws)), "seed %d", seed)
		requireEveryTeamOncePerRound(t, draws, schedule.Rounds)
	}
	assert.GreaterOrEqual(t, ok, runs*9/10)
	assert.Positive(t, backtracks)
}
