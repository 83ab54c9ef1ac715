package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/fixtures"
	"github.com/Dosada05/league-draw/utils"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestDrawCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "draw", "-competition", "europa-league", "-seed", "31")
	require.NoError(t, err)

	var got drawOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "europa-league", got.Competition)
	assert.Equal(t, int64(31), got.Seed)
	require.Len(t, got.Results, 36)
	require.True(t, draw.IsValid(got.Results))

	matches, err := fixtures.ExtractMatches(got.Results)
	require.NoError(t, err)
	require.NoError(t, fixtures.VerifyRounds(got.Rounds, matches, len(got.Results)))

	again, _, err := runCLI(t, "", "draw", "-competition", "europa-league", "-seed", "31")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestDrawCommand_Errors(t *testing.T) {
	_, _, err := runCLI(t, "", "draw", "-competition", "super-league")
	assert.Error(t, err)

	_, _, err = runCLI(t, "", "draw", "-strategy", "random")
	assert.Error(t, err)

	_, _, err = runCLI(t, "", "draw", "-bogus")
	assert.ErrorIs(t, err, errUsage)
}

func TestUsage(t *testing.T) {
	_, stderr, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "hash-password")

	_, stderr, err = runCLI(t, "", "shuffle")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, `unknown command "shuffle"`)
}

func TestHashPassword(t *testing.T) {
	out, _, err := runCLI(t, "", "hash-password", "s3cret-organizer")
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("s3cret-organizer", strings.TrimSpace(out)))

	out, _, err = runCLI(t, "from-stdin-pass\n", "hash-password")
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("from-stdin-pass", strings.TrimSpace(out)))

	_, _, err = runCLI(t, "", "hash-password")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "simulate", "-competition", "conference-league", "-runs", "4", "-seed", "5")
	require.NoError(t, err)

	var report struct {
		Runs      int `json:"runs"`
		Succeeded int `json:"succeeded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Runs)
	assert.Equal(t, 4, report.Succeeded)
}

func TestCompetitionsCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "competitions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "champions-league"))
	assert.Contains(t, out, "36 teams")
}
