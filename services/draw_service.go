package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/league-draw/cache"
	"github.com/Dosada05/league-draw/fixtures"
	"github.com/Dosada05/league-draw/live"
	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/random"
	"github.com/Dosada05/league-draw/repositories"
	"github.com/Dosada05/league-draw/roster"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	lockGrace        = 30 * time.Second
)

type RosterSource interface {
	Get(slug string) (*models.Competition, error)
	List() []*models.Competition
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type DrawCache interface {
	Set(ctx context.Context, record *models.DrawRecord) error
	Get(ctx context.Context, id string) (*models.DrawRecord, error)
}

type DrawExporter interface {
	Export(ctx context.Context, record *models.DrawRecord) (string, error)
	Withdraw(ctx context.Context, record *models.DrawRecord) error
}

type EventPublisher interface {
	Publish(competition string, eventType live.EventType, payload any)
}

type RunDrawInput struct {
	Competition string `json:"-"`
	// Seed reproduces an earlier draw; 0 picks a fresh one.
	Seed int64 `json:"seed"`
}

// Live event payloads.
type (
	DrawStartedEvent struct {
		Competition string `json:"competition"`
		Seed        int64  `json:"seed"`
		Teams       int    `json:"teams"`
	}
	TeamDrawnEvent struct {
		DrawID    string           `json:"draw_id"`
		Team      models.Team      `json:"team"`
		Opponents []models.Pairing `json:"opponents"`
	}
	DrawCompletedEvent struct {
		DrawID   string `json:"draw_id"`
		Attempts int    `json:"attempts"`
	}
	FixturesReadyEvent struct {
		DrawID   string `json:"draw_id"`
		Rounds   int    `json:"rounds"`
		Degraded bool   `json:"degraded"`
	}
	DrawFailedEvent struct {
		Competition string `json:"competition"`
		Error       string `json:"error"`
	}
)

// PotOpponents is the home and away opponent a team drew from one pot.
type PotOpponents struct {
	Pot  int          `json:"pot"`
	Home *models.Team `json:"home"`
	Away *models.Team `json:"away"`
}

// TeamView is one team's side of a draw.
type TeamView struct {
	DrawID   string         `json:"draw_id"`
	Team     models.Team    `json:"team"`
	ByPot    []PotOpponents `json:"by_pot"`
	Fixtures []models.Match `json:"fixtures"`
}

type DrawServiceDeps struct {
	Rosters   RosterSource
	Repo      repositories.DrawRepository
	Pipeline  *Pipeline
	Locker    Locker
	Cache     DrawCache    // optional
	Exporter  DrawExporter // optional
	Publisher EventPublisher
	Logger    *slog.Logger
	LockTTL   time.Duration
}

type DrawService struct {
	rosters   RosterSource
	repo      repositories.DrawRepository
	pipeline  *Pipeline
	locker    Locker
	cache     DrawCache
	exporter  DrawExporter
	publisher EventPublisher
	logger    *slog.Logger
	lockTTL   time.Duration
	now       func() time.Time
}

func NewDrawService(deps DrawServiceDeps) *DrawService {
	s := &DrawService{
		rosters:   deps.Rosters,
		repo:      deps.Repo,
		pipeline:  deps.Pipeline,
		locker:    deps.Locker,
		cache:     deps.Cache,
		exporter:  deps.Exporter,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		lockTTL:   deps.LockTTL,
		now:       time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.locker == nil {
		s.locker = cache.NewLocalLocker()
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.lockTTL <= 0 {
		s.lockTTL = s.pipeline.cfg.Timeout + lockGrace
	}
	return s
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, live.EventType, any) {}

func (s *DrawService) competition(slug string) (*models.Competition, error) {
	comp, err := s.rosters.Get(slug)
	if err != nil {
		if errors.Is(err, roster.ErrCompetitionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCompetitionNotFound, slug)
		}
		return nil, err
	}
	return comp, nil
}

// RunDraw draws and schedules a competition, stores the result and announces
// it on the live feed. Only one draw per competition runs at a time.
func (s *DrawService) RunDraw(ctx context.Context, input RunDrawInput) (*models.DrawRecord, error) {
	comp, err := s.competition(input.Competition)
	if err != nil {
		return nil, err
	}

	seed := input.Seed
	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			return nil, err
		}
	}

	unlock, err := s.locker.Acquire(ctx, comp.Slug, s.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, ErrDrawInProgress
		}
		return nil, fmt.Errorf("acquire draw lock: %w", err)
	}
	defer unlock()

	logger := s.logger.With(slog.String("competition", comp.Slug), slog.Int64("seed", seed))
	s.publisher.Publish(comp.Slug, live.EventDrawStarted, DrawStartedEvent{
		Competition: comp.Slug, Seed: seed, Teams: len(comp.Teams),
	})

	res, err := s.pipeline.Run(ctx, comp.Teams, seed)
	if err != nil {
		logger.Error("draw failed", slog.Any("error", err))
		s.publisher.Publish(comp.Slug, live.EventDrawFailed, DrawFailedEvent{Competition: comp.Slug, Error: err.Error()})
		return nil, err
	}

	record := &models.DrawRecord{
		ID:          uuid.New().String(),
		Competition: comp.Slug,
		Seed:        seed,
		Attempts:    res.Attempts,
		Degraded:    res.Schedule.Degraded,
		Results:     res.Results,
		Rounds:      res.Schedule.Rounds,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.persist(ctx, record); err != nil {
		logger.Error("failed to store draw", slog.Any("error", err))
		s.publisher.Publish(comp.Slug, live.EventDrawFailed, DrawFailedEvent{Competition: comp.Slug, Error: "draw could not be stored"})
		return nil, err
	}

	s.announce(record)
	s.publishSideEffects(ctx, record, logger)

	logger.Info("draw completed",
		slog.String("draw_id", record.ID),
		slog.Int("attempts", record.Attempts),
		slog.Int("pipeline_runs", res.Runs),
		slog.Bool("degraded", record.Degraded))
	return record, nil
}

func (s *DrawService) persist(ctx context.Context, record *models.DrawRecord) (txErr error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				txErr = fmt.Errorf("%w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	if err := s.repo.Create(ctx, tx, record); err != nil {
		return fmt.Errorf("failed to store draw %s: %w", record.ID, err)
	}
	return nil
}

// announce replays the draw on the live feed pot by pot, then reports the
// schedule.
func (s *DrawService) announce(record *models.DrawRecord) {
	order := make([]int, len(record.Results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return record.Results[order[a]].Team.Pot < record.Results[order[b]].Team.Pot
	})

	for _, i := range order {
		r := record.Results[i]
		s.publisher.Publish(record.Competition, live.EventTeamDrawn, TeamDrawnEvent{
			DrawID: record.ID, Team: r.Team, Opponents: r.Opponents,
		})
	}
	s.publisher.Publish(record.Competition, live.EventDrawCompleted, DrawCompletedEvent{
		DrawID: record.ID, Attempts: record.Attempts,
	})
	s.publisher.Publish(record.Competition, live.EventFixturesReady, FixturesReadyEvent{
		DrawID: record.ID, Rounds: len(record.Rounds), Degraded: record.Degraded,
	})
}

// publishSideEffects caches and exports the stored draw concurrently. Both
// are best effort: failures are logged and the draw stays valid.
func (s *DrawService) publishSideEffects(ctx context.Context, record *models.DrawRecord, logger *slog.Logger) {
	var exportURL string
	g, gCtx := errgroup.WithContext(ctx)

	if s.cache != nil {
		g.Go(func() error {
			if err := s.cache.Set(gCtx, record); err != nil {
				logger.Warn("failed to cache draw", slog.Any("error", err))
			}
			return nil
		})
	}
	if s.exporter != nil {
		g.Go(func() error {
			url, err := s.exporter.Export(gCtx, record)
			if err != nil {
				logger.Warn("failed to export draw", slog.Any("error", err))
				return nil
			}
			exportURL = url
			return nil
		})
	}
	_ = g.Wait()

	if exportURL == "" {
		return
	}
	if err := s.repo.UpdateExportURL(ctx, record.ID, exportURL); err != nil {
		logger.Warn("failed to store export url", slog.Any("error", err))
		// Документ без ссылки в базе никто не найдёт, удаляем его.
		if werr := s.exporter.Withdraw(ctx, record); werr != nil {
			logger.Warn("failed to withdraw orphaned export", slog.Any("error", werr))
		}
		return
	}
	record.ExportURL = &exportURL
}

// GetDraw returns a draw from the cache or, on a miss, from the database.
func (s *DrawService) GetDraw(ctx context.Context, id string) (*models.DrawRecord, error) {
	if s.cache != nil {
		record, err := s.cache.Get(ctx, id)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("draw cache lookup failed", slog.String("draw_id", id), slog.Any("error", err))
		}
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawNotFound) {
			return nil, ErrDrawNotFound
		}
		return nil, fmt.Errorf("failed to load draw %s: %w", id, err)
	}
	return record, nil
}

func (s *DrawService) ListDraws(ctx context.Context, competition string, limit, offset int) ([]models.DrawSummary, error) {
	if _, err := s.competition(competition); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrValidationFailed)
	}

	draws, err := s.repo.List(ctx, repositories.ListDrawsFilter{Competition: competition, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list draws of %s: %w", competition, err)
	}
	return draws, nil
}

// GetFixtures returns the rounds of a draw, or only round *round when set.
func (s *DrawService) GetFixtures(ctx context.Context, id string, round *int) ([]models.Round, error) {
	if round != nil && (*round < 1 || *round > models.DefaultRoundCount) {
		return nil, fmt.Errorf("%w: round must be between 1 and %d", ErrValidationFailed, models.DefaultRoundCount)
	}

	if s.cache != nil {
		if record, err := s.cache.Get(ctx, id); err == nil {
			return filterRounds(record.Rounds, round), nil
		}
	}

	matches, err := s.repo.ListMatches(ctx, id, round)
	if err != nil {
		if errors.Is(err, repositories.ErrDrawNotFound) {
			return nil, ErrDrawNotFound
		}
		return nil, fmt.Errorf("failed to load fixtures of draw %s: %w", id, err)
	}
	// a stored draw always has matches in every round
	if len(matches) == 0 {
		return nil, ErrDrawNotFound
	}
	return groupRounds(matches), nil
}

func filterRounds(rounds []models.Round, round *int) []models.Round {
	if round == nil {
		return rounds
	}
	r, ok := fixtures.FilterRound(rounds, *round)
	if !ok {
		return []models.Round{}
	}
	return []models.Round{r}
}

// groupRounds folds matches ordered by round into rounds.
func groupRounds(matches []models.Match) []models.Round {
	var rounds []models.Round
	for _, m := range matches {
		if len(rounds) == 0 || rounds[len(rounds)-1].Number != m.Round {
			rounds = append(rounds, models.Round{Number: m.Round})
		}
		last := &rounds[len(rounds)-1]
		last.Matches = append(last.Matches, m)
	}
	return rounds
}

func (s *DrawService) GetTeamDraw(ctx context.Context, id string, teamID int) (*TeamView, error) {
	record, err := s.GetDraw(ctx, id)
	if err != nil {
		return nil, err
	}
	td, ok := record.TeamByID(teamID)
	if !ok {
		return nil, ErrTeamNotInDraw
	}

	view := &TeamView{DrawID: record.ID, Team: td.Team, ByPot: make([]PotOpponents, 0, models.PotCount)}
	for pot := 1; pot <= models.PotCount; pot++ {
		home, away := td.OpponentsFromPot(pot)
		po := PotOpponents{Pot: pot}
		if len(home) > 0 {
			po.Home = &home[0]
		}
		if len(away) > 0 {
			po.Away = &away[0]
		}
		view.ByPot = append(view.ByPot, po)
	}

	view.Fixtures = make([]models.Match, 0, models.OpponentsPerTeam)
	for _, r := range record.Rounds {
		for _, m := range r.Matches {
			if m.Involves(teamID) {
				view.Fixtures = append(view.Fixtures, m)
			}
		}
	}
	return view, nil
}

// Competitions lists the available rosters.
func (s *DrawService) Competitions() []*models.Competition {
	return s.rosters.List()
}

func (s *DrawService) Competition(slug string) (*models.Competition, error) {
	return s.competition(slug)
}
