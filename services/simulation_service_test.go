package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/roster"
)

func TestSimulate(t *testing.T) {
	svc := NewSimulationService(roster.Default(), defaultPipeline(), nil)

	report, err := svc.Simulate(context.Background(), SimulationInput{Competition: roster.ChampionsLeague, Runs: 6, Seed: 17})
	require.NoError(t, err)
	assert.Equal(t, 6, report.Runs)
	assert.Equal(t, 6, report.Succeeded+report.Failed)
	require.Positive(t, report.Succeeded)
	assert.GreaterOrEqual(t, report.AverageAttempts, 1.0)

	require.NotEmpty(t, report.TopPairings)
	assert.LessOrEqual(t, len(report.TopPairings), 10)
	for i := 1; i < len(report.TopPairings); i++ {
		assert.GreaterOrEqual(t, report.TopPairings[i-1].Count, report.TopPairings[i].Count)
	}
	for _, p := range report.TopPairings {
		assert.Less(t, p.TeamA, p.TeamB)
		assert.LessOrEqual(t, p.Count, report.Succeeded)
	}

	again, err := svc.Simulate(context.Background(), SimulationInput{Competition: roster.ChampionsLeague, Runs: 6, Seed: 17})
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestSimulate_CountsFailures(t *testing.T) {
	comp := singleCountryCompetition()
	svc := NewSimulationService(staticRosters{comp.Slug: comp},
		NewPipeline(PipelineConfig{Draw: draw.Options{MaxAttempts: 1}}, nil), nil)

	report, err := svc.Simulate(context.Background(), SimulationInput{Competition: comp.Slug, Runs: 3, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Failed)
	assert.Zero(t, report.Succeeded)
	assert.Empty(t, report.TopPairings)
}

func TestSimulate_Validation(t *testing.T) {
	svc := NewSimulationService(roster.Default(), defaultPipeline(), nil)

	_, err := svc.Simulate(context.Background(), SimulationInput{Competition: roster.ChampionsLeague, Runs: 0})
	require.ErrorIs(t, err, ErrValidationFailed)
	_, err = svc.Simulate(context.Background(), SimulationInput{Competition: roster.ChampionsLeague, Runs: MaxSimulationRuns + 1})
	require.ErrorIs(t, err, ErrValidationFailed)
	_, err = svc.Simulate(context.Background(), SimulationInput{Competition: "super-league", Runs: 1})
	require.ErrorIs(t, err, ErrCompetitionNotFound)
}
