package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/league-draw/models"
)

var (
	ErrDrawNotFound   = errors.New("draw not found")
	ErrDrawIDConflict = errors.New("draw id already exists")
)

type ListDrawsFilter struct {
	Competition string
	Limit       int
	Offset      int
}

type DrawRepository interface {
	// Create stores the draw row and one draw_matches row per scheduled
	// match. Pass a transaction as exec to make both atomic.
	Create(ctx context.Context, exec SQLExecutor, record *models.DrawRecord) error
	GetByID(ctx context.Context, id string) (*models.DrawRecord, error)
	List(ctx context.Context, filter ListDrawsFilter) ([]models.DrawSummary, error)
	// ListMatches returns the scheduled matches of a draw, optionally only
	// those of one round, ordered by round and match id.
	ListMatches(ctx context.Context, drawID string, round *int) ([]models.Match, error)
	UpdateExportURL(ctx context.Context, id string, url string) error
	BeginTx(ctx context.Context) (Tx, error)
}

type postgresDrawRepository struct {
	db *sql.DB
}

func NewPostgresDrawRepository(db *sql.DB) DrawRepository {
	return &postgresDrawRepository{db: db}
}

func (r *postgresDrawRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresDrawRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *postgresDrawRepository) Create(ctx context.Context, exec SQLExecutor, d *models.DrawRecord) error {
	executor := r.getExecutor(exec)

	results, err := json.Marshal(d.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal draw results: %w", err)
	}
	rounds, err := json.Marshal(d.Rounds)
	if err != nil {
		return fmt.Errorf("failed to marshal draw rounds: %w", err)
	}

	query := `
		INSERT INTO draws (id, competition, seed, attempts, degraded, results, rounds, export_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err = executor.QueryRowContext(ctx, query,
		d.ID, d.Competition, d.Seed, d.Attempts, d.Degraded, results, rounds, d.ExportURL,
	).Scan(&d.CreatedAt)
	if err != nil {
		return handleDrawError(err)
	}

	matchQuery := `
		INSERT INTO draw_matches (draw_id, match_id, round, home_team_id, away_team_id)
		SELECT $1, m.match_id, m.round, m.home_team_id, m.away_team_id
		FROM UNNEST($2::text[], $3::int[], $4::int[], $5::int[]) AS m(match_id, round, home_team_id, away_team_id)`

	var (
		ids         []string
		roundNums   []int64
		homeTeamIDs []int64
		awayTeamIDs []int64
	)
	for _, round := range d.Rounds {
		for _, m := range round.Matches {
			ids = append(ids, m.ID)
			roundNums = append(roundNums, int64(round.Number))
			homeTeamIDs = append(homeTeamIDs, int64(m.HomeTeamID))
			awayTeamIDs = append(awayTeamIDs, int64(m.AwayTeamID))
		}
	}
	if len(ids) == 0 {
		return nil
	}

	_, err = executor.ExecContext(ctx, matchQuery, d.ID,
		pq.Array(ids), pq.Array(roundNums), pq.Array(homeTeamIDs), pq.Array(awayTeamIDs))
	if err != nil {
		return fmt.Errorf("failed to insert draw matches: %w", handleDrawError(err))
	}
	return nil
}

func (r *postgresDrawRepository) GetByID(ctx context.Context, id string) (*models.DrawRecord, error) {
	query := `
		SELECT id, competition, seed, attempts, degraded, results, rounds, export_url, created_at
		FROM draws
		WHERE id = $1`

	var (
		d       models.DrawRecord
		results []byte
		rounds  []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Competition, &d.Seed, &d.Attempts, &d.Degraded, &results, &rounds, &d.ExportURL, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrawNotFound
		}
		return nil, handleDrawError(err)
	}

	if err := json.Unmarshal(results, &d.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results of draw %s: %w", id, err)
	}
	if err := json.Unmarshal(rounds, &d.Rounds); err != nil {
		return nil, fmt.Errorf("failed to decode rounds of draw %s: %w", id, err)
	}
	return &d, nil
}

func (r *postgresDrawRepository) List(ctx context.Context, filter ListDrawsFilter) ([]models.DrawSummary, error) {
	query := `
		SELECT id, competition, seed, attempts, degraded, created_at
		FROM draws
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Competition != "" {
		query += fmt.Sprintf(" AND competition = $%d", argID)
		args = append(args, filter.Competition)
		argID++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	defer rows.Close()

	draws := make([]models.DrawSummary, 0)
	for rows.Next() {
		var s models.DrawSummary
		if err := rows.Scan(&s.ID, &s.Competition, &s.Seed, &s.Attempts, &s.Degraded, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draw row: %w", err)
		}
		draws = append(draws, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draw rows: %w", err)
	}
	return draws, nil
}

func (r *postgresDrawRepository) ListMatches(ctx context.Context, drawID string, round *int) ([]models.Match, error) {
	query := `
		SELECT match_id, round, home_team_id, away_team_id
		FROM draw_matches
		WHERE draw_id = $1`
	args := []interface{}{drawID}
	if round != nil {
		query += " AND round = $2"
		args = append(args, *round)
	}
	query += " ORDER BY round, match_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of draw %s: %w", drawID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.Round, &m.HomeTeamID, &m.AwayTeamID); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresDrawRepository) UpdateExportURL(ctx context.Context, id string, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE draws SET export_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("failed to update export url of draw %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrDrawNotFound)
}

func handleDrawError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "draws_pkey" || pqErr.Constraint == "draw_matches_pkey" {
				return ErrDrawIDConflict
			}
		case "22P02":
			// malformed uuid in a lookup
			return ErrDrawNotFound
		}
	}
	return err
}
