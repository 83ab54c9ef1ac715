package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/league-draw/cache"
	"github.com/Dosada05/league-draw/live"
	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/repositories"
	"github.com/Dosada05/league-draw/roster"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errors.New("not supported")
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.committed {
		return sql.ErrTxDone
	}
	t.rolledBack = true
	return nil
}

type fakeDrawRepo struct {
	mu         sync.Mutex
	records    map[string]*models.DrawRecord
	txs        []*fakeTx
	createErr  error
	updateErr  error
	lastFilter repositories.ListDrawsFilter
}

func newFakeDrawRepo() *fakeDrawRepo {
	return &fakeDrawRepo{records: make(map[string]*models.DrawRecord)}
}

func (r *fakeDrawRepo) BeginTx(context.Context) (repositories.Tx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &fakeTx{}
	r.txs = append(r.txs, tx)
	return tx, nil
}

func (r *fakeDrawRepo) Create(_ context.Context, _ repositories.SQLExecutor, record *models.DrawRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.records[record.ID]; ok {
		return repositories.ErrDrawIDConflict
	}
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeDrawRepo) GetByID(_ context.Context, id string) (*models.DrawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrDrawNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeDrawRepo) List(_ context.Context, filter repositories.ListDrawsFilter) ([]models.DrawSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	out := make([]models.DrawSummary, 0)
	for _, rec := range r.records {
		if rec.Competition == filter.Competition {
			out = append(out, models.DrawSummary{ID: rec.ID, Competition: rec.Competition, Seed: rec.Seed, CreatedAt: rec.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDrawRepo) ListMatches(_ context.Context, drawID string, round *int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Match, 0)
	rec, ok := r.records[drawID]
	if !ok {
		return out, nil
	}
	for _, rd := range rec.Rounds {
		if round != nil && rd.Number != *round {
			continue
		}
		out = append(out, rd.Matches...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeDrawRepo) UpdateExportURL(_ context.Context, id string, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	rec, ok := r.records[id]
	if !ok {
		return repositories.ErrDrawNotFound
	}
	rec.ExportURL = &url
	return nil
}

type event struct {
	Competition string
	Type        live.EventType
	Payload     any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *fakePublisher) Publish(competition string, eventType live.EventType, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{Competition: competition, Type: eventType, Payload: payload})
}

func (p *fakePublisher) types() []live.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]live.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	records map[string]*models.DrawRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: make(map[string]*models.DrawRecord)}
}

func (c *fakeCache) Set(_ context.Context, record *models.DrawRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *record
	c.records[record.ID] = &copied
	return nil
}

func (c *fakeCache) Get(_ context.Context, id string) (*models.DrawRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return rec, nil
}

type fakeExporter struct {
	mu        sync.Mutex
	err       error
	withdrawn []string
}

func (e *fakeExporter) Export(_ context.Context, record *models.DrawRecord) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return fmt.Sprintf("https://cdn.example.com/draws/%s/%s.json", record.Competition, record.ID), nil
}

func (e *fakeExporter) Withdraw(_ context.Context, record *models.DrawRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.withdrawn = append(e.withdrawn, record.ID)
	return nil
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, cache.ErrLockHeld
}

// staticRosters serves hand-built competitions.
type staticRosters map[string]*models.Competition

func (s staticRosters) Get(slug string) (*models.Competition, error) {
	c, ok := s[slug]
	if !ok {
		return nil, roster.ErrCompetitionNotFound
	}
	return c, nil
}

func (s staticRosters) List() []*models.Competition {
	out := make([]*models.Competition, 0, len(s))
	for _, c := range s {
		out = append(out, c)
	}
	return out
}

// singleCountryCompetition passes roster checks but can never be drawn.
func singleCountryCompetition() *models.Competition {
	teams := make([]models.Team, 36)
	for i := range teams {
		teams[i] = models.Team{ID: i + 1, Name: fmt.Sprintf("Club %d", i+1), Country: "Nowhere", Pot: i/9 + 1}
	}
	return &models.Competition{Slug: "nowhere-cup", Name: "Nowhere Cup", Teams: teams}
}
