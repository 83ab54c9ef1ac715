package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-draw/db"
	"github.com/Dosada05/league-draw/models"
)

func TestHandleDrawError(t *testing.T) {
	assert.NoError(t, handleDrawError(nil))

	dup := &pq.Error{Code: "23505", Constraint: "draws_pkey"}
	assert.ErrorIs(t, handleDrawError(dup), ErrDrawIDConflict)
	assert.ErrorIs(t, handleDrawError(&pq.Error{Code: "22P02"}), ErrDrawNotFound)

	other := errors.New("connection reset")
	assert.Same(t, other, handleDrawError(other))
}

// The tests below need a disposable Postgres database in DATABASE_TEST_URL.
func testDB(t *testing.T) DrawRepository {
	t.Helper()
	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	conn, err := db.Connect(dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return NewPostgresDrawRepository(conn)
}

func sampleRecord(competition string) *models.DrawRecord {
	home := models.Team{ID: 1, Name: "A", Country: "X", Pot: 1}
	away := models.Team{ID: 2, Name: "B", Country: "Y", Pot: 1}
	return &models.DrawRecord{
		ID:          uuid.NewString(),
		Competition: competition,
		Seed:        99,
		Attempts:    2,
		Results: []models.TeamDraw{
			{Team: home, Opponents: []models.Pairing{{Opponent: away, IsHome: true}}},
			{Team: away, Opponents: []models.Pairing{{Opponent: home, IsHome: false}}},
		},
		Rounds: []models.Round{
			{Number: 1, Matches: []models.Match{{ID: "1-2", HomeTeamID: 1, AwayTeamID: 2, Round: 1}}},
		},
	}
}

func TestPostgresDrawRepository_RoundTrip(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	competition := "test-" + uuid.NewString()

	rec := sampleRecord(competition)
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, rec))
	require.NoError(t, tx.Commit())
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Results, got.Results)
	assert.Equal(t, rec.Rounds, got.Rounds)

	list, err := repo.List(ctx, ListDrawsFilter{Competition: competition, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	round := 1
	matches, err := repo.ListMatches(ctx, rec.ID, &round)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "1-2", matches[0].ID)

	require.NoError(t, repo.UpdateExportURL(ctx, rec.ID, "https://cdn.example.com/x.json"))
	got, err = repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExportURL)

	require.ErrorIs(t, repo.Create(ctx, nil, rec), ErrDrawIDConflict)

	_, err = repo.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrDrawNotFound)
	_, err = repo.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrDrawNotFound)
}
