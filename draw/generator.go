package draw

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Dosada05/league-draw/models"
)

// GenerateParams are the inputs of a single draw.
type GenerateParams struct {
	Teams []models.Team
	Rand  *rand.Rand

	// OnAttempt, if set, is called after every attempt with its number and
	// validation report.
	OnAttempt func(attempt int, report Report)
}

// Generator produces the opponents of every team in a roster.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]models.TeamDraw, error)

	GetName() string
}

// Strategy selects the order in which open pairing slots are filled within
// one attempt.
type Strategy int

const (
	// StrategyMostConstrained fills, at every step, the open (team, pot, side)
	// slot with the fewest candidates. It is the default because far fewer of
	// its attempts end with a slot that no team can fill, so a draw needs fewer
	// retries than with StrategySequential.
	StrategyMostConstrained Strategy = iota
	// StrategySequential walks teams in shuffled order and fills each team's
	// pots in turn.
	StrategySequential
)

func (s Strategy) String() string {
	switch s {
	case StrategyMostConstrained:
		return "most-constrained"
	case StrategySequential:
		return "sequential"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

const DefaultMaxAttempts = 100

type Options struct {
	MaxAttempts      int
	AssociationLimit int
	Strategy         Strategy
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.AssociationLimit <= 0 {
		o.AssociationLimit = models.DefaultAssociationLimit
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// PotGenerator draws eight opponents per team: one home and one away
// opponent from each pot, never from the team's own country and at most
// AssociationLimit opponents from any single country.
//
// An attempt never backtracks. A rejected attempt is discarded and the next
// one starts from empty state; only a validated draw is returned.
type PotGenerator struct {
	opts Options
}

func NewPotGenerator(opts Options) *PotGenerator {
	return &PotGenerator{opts: opts.withDefaults()}
}

func (g *PotGenerator) GetName() string {
	return "PotBalanced/" + g.opts.Strategy.String()
}

func (g *PotGenerator) Generate(ctx context.Context, params GenerateParams) ([]models.TeamDraw, error) {
	if params.Rand == nil {
		return nil, ErrNoRandSource
	}
	if err := CheckRoster(params.Teams); err != nil {
		return nil, err
	}

	logger := g.opts.Logger
	var last Report
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("draw: stopped after %d attempts: %w", attempt-1, err)
		}

		st := newAttemptState(params.Teams, g.opts.AssociationLimit, params.Rand)
		switch g.opts.Strategy {
		case StrategySequential:
			st.fillSequential()
		default:
			st.fillMostConstrained()
		}

		results := st.results()
		report := Validate(results, ValidateOptions{AssociationLimit: g.opts.AssociationLimit})
		if params.OnAttempt != nil {
			params.OnAttempt(attempt, report)
		}
		if report.Valid() {
			logger.Debug("valid draw found",
				slog.String("generator", g.GetName()),
				slog.Int("attempt", attempt),
				slog.Int("teams", len(params.Teams)))
			return results, nil
		}
		last = report

		if attempt%10 == 0 {
			logger.Debug("draw attempts rejected",
				slog.String("generator", g.GetName()),
				slog.Int("attempts", attempt),
				slog.Int("violations", len(report.Violations)))
		}
	}

	return nil, &ExhaustedError{Attempts: g.opts.MaxAttempts, LastReport: last}
}

// CheckRoster verifies the structural preconditions of a draw: unique
// non-negative ids, pots 1..PotCount, and equally sized pots of at least three
// teams each (a team needs two distinct opponents from its own pot).
func CheckRoster(teams []models.Team) error {
	if len(teams) == 0 {
		return fmt.Errorf("%w: no teams", ErrInvalidRoster)
	}

	seen := make(map[int]struct{}, len(teams))
	var potSizes [models.PotCount]int
	for _, t := range teams {
		if t.ID < 0 {
			return fmt.Errorf("%w: negative team id %d", ErrInvalidRoster, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate team id %d", ErrInvalidRoster, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Pot < 1 || t.Pot > models.PotCount {
			return fmt.Errorf("%w: team %d has pot %d, want 1..%d", ErrInvalidRoster, t.ID, t.Pot, models.PotCount)
		}
		potSizes[t.Pot-1]++
	}

	for i, size := range potSizes {
		if size < 3 {
			return fmt.Errorf("%w: pot %d has %d teams, need at least 3", ErrInvalidRoster, i+1, size)
		}
		if size != potSizes[0] {
			return fmt.Errorf("%w: pot %d has %d teams but pot 1 has %d", ErrInvalidRoster, i+1, size, potSizes[0])
		}
	}
	return nil
}
