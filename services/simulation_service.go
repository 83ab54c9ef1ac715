package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/random"
)

const (
	MaxSimulationRuns = 1000
	topPairings       = 10
)

type SimulationInput struct {
	Competition string `json:"-"`
	Runs        int    `json:"runs"`
	Seed        int64  `json:"seed"`
}

type PairingCount struct {
	TeamA int `json:"team_a"`
	TeamB int `json:"team_b"`
	Count int `json:"count"`
}

type SimulationReport struct {
	Competition     string         `json:"competition"`
	Seed            int64          `json:"seed"`
	Runs            int            `json:"runs"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	Degraded        int            `json:"degraded"`
	AverageAttempts float64        `json:"average_attempts"`
	TopPairings     []PairingCount `json:"top_pairings"`
}

// SimulationService runs many independent draws of one competition to show
// how often the engines succeed and which pairings come up most.
type SimulationService struct {
	rosters     RosterSource
	pipeline    *Pipeline
	logger      *slog.Logger
	parallelism int
}

func NewSimulationService(rosters RosterSource, pipeline *Pipeline, logger *slog.Logger) *SimulationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationService{
		rosters:     rosters,
		pipeline:    pipeline,
		logger:      logger,
		parallelism: runtime.GOMAXPROCS(0),
	}
}

type simulationRun struct {
	ok       bool
	degraded bool
	attempts int
	results  []models.TeamDraw
}

func (s *SimulationService) Simulate(ctx context.Context, input SimulationInput) (*SimulationReport, error) {
	if input.Runs < 1 || input.Runs > MaxSimulationRuns {
		return nil, fmt.Errorf("%w: runs must be between 1 and %d", ErrValidationFailed, MaxSimulationRuns)
	}
	comp, err := s.rosters.Get(input.Competition)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompetitionNotFound, input.Competition)
	}

	seed := input.Seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return nil, err
		}
	}

	runs := make([]simulationRun, input.Runs)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i := range runs {
		i := i
		g.Go(func() error {
			res, err := s.pipeline.Run(gCtx, comp.Teams, random.DeriveSeed(seed, uint64(i)))
			if err != nil {
				if ctxErr := gCtx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return err
				}
				return nil
			}
			runs[i] = simulationRun{
				ok:       true,
				degraded: res.Schedule.Degraded,
				attempts: res.Attempts,
				results:  res.Results,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation of %s interrupted: %w", comp.Slug, err)
	}

	report := summarize(comp.Slug, seed, runs)
	s.logger.Info("simulation finished",
		slog.String("competition", comp.Slug),
		slog.Int("runs", report.Runs),
		slog.Int("failed", report.Failed))
	return report, nil
}

func summarize(competition string, seed int64, runs []simulationRun) *SimulationReport {
	report := &SimulationReport{Competition: competition, Seed: seed, Runs: len(runs)}
	counts := make(map[[2]int]int)
	totalAttempts := 0

	for _, r := range runs {
		if !r.ok {
			report.Failed++
			continue
		}
		report.Succeeded++
		if r.degraded {
			report.Degraded++
		}
		totalAttempts += r.attempts
		for _, td := range r.results {
			for _, p := range td.Opponents {
				if td.Team.ID < p.Opponent.ID {
					counts[[2]int{td.Team.ID, p.Opponent.ID}]++
				}
			}
		}
	}
	if report.Succeeded > 0 {
		report.AverageAttempts = float64(totalAttempts) / float64(report.Succeeded)
	}

	pairs := make([]PairingCount, 0, len(counts))
	for k, n := range counts {
		pairs = append(pairs, PairingCount{TeamA: k[0], TeamB: k[1], Count: n})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].TeamA != pairs[j].TeamA {
			return pairs[i].TeamA < pairs[j].TeamA
		}
		return pairs[i].TeamB < pairs[j].TeamB
	})
	if len(pairs) > topPairings {
		pairs = pairs[:topPairings]
	}
	report.TopPairings = pairs
	return report
}
