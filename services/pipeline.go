package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/fixtures"
	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/random"
)

type PipelineConfig struct {
	Draw     draw.Options
	Schedule fixtures.Options
	// Retries is how many times the whole generate-then-schedule pipeline
	// runs before giving up.
	Retries int
	Timeout time.Duration
}

// PipelineResult is a validated draw together with its schedule.
type PipelineResult struct {
	Results  []models.TeamDraw
	Schedule *fixtures.Schedule
	// Attempts counts generator attempts across all runs.
	Attempts int
	Runs     int
}

// Pipeline runs generate, validate, schedule and verify as one unit and
// retries the whole unit on any engine failure.
type Pipeline struct {
	generator draw.Generator
	scheduler *fixtures.Scheduler
	cfg       PipelineConfig
	logger    *slog.Logger
}

func NewPipeline(cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	if cfg.Draw.Logger == nil {
		cfg.Draw.Logger = logger
	}
	if cfg.Schedule.Logger == nil {
		cfg.Schedule.Logger = logger
	}
	return &Pipeline{
		generator: draw.NewPotGenerator(cfg.Draw),
		scheduler: fixtures.NewScheduler(cfg.Schedule),
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes the pipeline for teams. Run i uses a random source derived
// from seed and i, so a seed always reproduces the same outcome.
func (p *Pipeline) Run(ctx context.Context, teams []models.Team, seed int64) (*PipelineResult, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	res := &PipelineResult{}
	var lastErr error
	for run := 0; run < p.cfg.Retries; run++ {
		res.Runs = run + 1
		rng := random.Derive(seed, uint64(run))

		results, err := p.generator.Generate(ctx, draw.GenerateParams{
			Teams: teams,
			Rand:  rng,
			OnAttempt: func(int, draw.Report) {
				res.Attempts++
			},
		})
		if err == nil {
			err = draw.Validate(results, draw.ValidateOptions{AssociationLimit: p.cfg.Draw.AssociationLimit}).Err()
		}

		var schedule *fixtures.Schedule
		if err == nil {
			schedule, err = p.scheduler.Schedule(ctx, results, rng)
		}
		if err == nil && !schedule.Degraded {
			err = verifySchedule(results, schedule)
		}

		if err == nil {
			res.Results = results
			res.Schedule = schedule
			return res, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("draw pipeline stopped: %w", errors.Join(ctxErr, err))
		}
		lastErr = err
		p.logger.Warn("draw pipeline run failed",
			slog.Int("run", run+1),
			slog.Int("runs", p.cfg.Retries),
			slog.Any("error", err))
	}

	return nil, fmt.Errorf("draw pipeline failed after %d runs: %w", p.cfg.Retries, lastErr)
}

func verifySchedule(results []models.TeamDraw, schedule *fixtures.Schedule) error {
	matches, err := fixtures.ExtractMatches(results)
	if err != nil {
		return err
	}
	return fixtures.VerifyRounds(schedule.Rounds, matches, len(results))
}
