// Command drawctl runs draws offline, without the database or the HTTP API,
// and prepares the organizer password hash for the server configuration.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Dosada05/league-draw/config"
	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/fixtures"
	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/random"
	"github.com/Dosada05/league-draw/roster"
	"github.com/Dosada05/league-draw/services"
	"github.com/Dosada05/league-draw/utils"
)

const usage = `usage: drawctl <command> [flags]

commands:
  draw           run one draw and print it as JSON
  simulate       run many draws and print pairing statistics
  hash-password  print the bcrypt hash for ORGANIZER_PASSWORD_HASH
  competitions   list the available rosters
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "drawctl:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	switch args[0] {
	case "draw":
		return runDraw(ctx, args[1:], stdout, stderr, logger)
	case "simulate":
		return runSimulate(ctx, args[1:], stdout, stderr, logger)
	case "hash-password":
		return runHashPassword(args[1:], stdin, stdout, stderr)
	case "competitions":
		return runCompetitions(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

// drawFlags are shared by draw and simulate.
type drawFlags struct {
	competition string
	seed        int64
	rosterDir   string
	strategy    string
}

func (f *drawFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.competition, "competition", roster.ChampionsLeague, "competition slug")
	fs.Int64Var(&f.seed, "seed", 0, "seed; 0 picks a fresh one")
	fs.StringVar(&f.rosterDir, "roster-dir", os.Getenv("ROSTER_DIR"), "directory with extra TOML roster catalogs")
	fs.StringVar(&f.strategy, "strategy", draw.StrategyMostConstrained.String(), "generator strategy: most-constrained or sequential")
}

func (f *drawFlags) setup(logger *slog.Logger) (*roster.Catalog, *services.Pipeline, error) {
	catalog := roster.Default()
	if f.rosterDir != "" {
		var err error
		if catalog, err = roster.LoadDir(f.rosterDir, catalog); err != nil {
			return nil, nil, err
		}
	}

	var strategy draw.Strategy
	switch f.strategy {
	case draw.StrategyMostConstrained.String():
		strategy = draw.StrategyMostConstrained
	case draw.StrategySequential.String():
		strategy = draw.StrategySequential
	default:
		return nil, nil, fmt.Errorf("unknown strategy %q", f.strategy)
	}

	d, err := config.LoadDraw()
	if err != nil {
		return nil, nil, err
	}
	pipeline := services.NewPipeline(services.PipelineConfig{
		Draw: draw.Options{MaxAttempts: d.MaxAttempts, Strategy: strategy},
		Schedule: fixtures.Options{
			MatchingAttempts:  d.ScheduleMatchingTries,
			Restarts:          d.ScheduleRestarts,
			MaxMatchingPasses: d.ScheduleMaxPasses,
			AllowDegraded:     d.AllowDegradedSchedule,
		},
		Retries: d.PipelineRetries,
		Timeout: d.Timeout,
	}, logger)
	return catalog, pipeline, nil
}

type drawOutput struct {
	Competition string            `json:"competition"`
	Seed        int64             `json:"seed"`
	Attempts    int               `json:"attempts"`
	Degraded    bool              `json:"degraded"`
	Results     []models.TeamDraw `json:"results"`
	Rounds      []models.Round    `json:"rounds"`
}

func runDraw(ctx context.Context, args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	var f drawFlags
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	catalog, pipeline, err := f.setup(logger)
	if err != nil {
		return err
	}
	comp, err := catalog.Get(f.competition)
	if err != nil {
		return err
	}

	seed := f.seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return err
		}
	}

	res, err := pipeline.Run(ctx, comp.Teams, seed)
	if err != nil {
		return err
	}
	return writeOutput(stdout, drawOutput{
		Competition: comp.Slug,
		Seed:        seed,
		Attempts:    res.Attempts,
		Degraded:    res.Schedule.Degraded,
		Results:     res.Results,
		Rounds:      res.Schedule.Rounds,
	})
}

func runSimulate(ctx context.Context, args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	var f drawFlags
	var runs int
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	fs.IntVar(&runs, "runs", 100, "number of draws")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	catalog, pipeline, err := f.setup(logger)
	if err != nil {
		return err
	}
	report, err := services.NewSimulationService(catalog, pipeline, logger).Simulate(ctx, services.SimulationInput{
		Competition: f.competition,
		Runs:        runs,
		Seed:        f.seed,
	})
	if err != nil {
		return err
	}
	return writeOutput(stdout, report)
}

func runHashPassword(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var password string
	if fs.NArg() > 0 {
		password = fs.Arg(0)
	} else {
		data, err := io.ReadAll(io.LimitReader(stdin, 1024))
		if err != nil {
			return err
		}
		password = strings.TrimRight(string(data), "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func runCompetitions(args []string, stdout, stderr io.Writer) error {
	var rosterDir string
	fs := flag.NewFlagSet("competitions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&rosterDir, "roster-dir", os.Getenv("ROSTER_DIR"), "directory with extra TOML roster catalogs")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	catalog := roster.Default()
	if rosterDir != "" {
		var err error
		if catalog, err = roster.LoadDir(rosterDir, catalog); err != nil {
			return err
		}
	}
	for _, c := range catalog.List() {
		fmt.Fprintf(stdout, "%-20s %-28s %d teams\n", c.Slug, c.Name, len(c.Teams))
	}
	return nil
}

func writeOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(v)
}
