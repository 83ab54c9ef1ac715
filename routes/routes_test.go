package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-draw/handlers"
	"github.com/Dosada05/league-draw/live"
	"github.com/Dosada05/league-draw/middleware"
	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/roster"
	"github.com/Dosada05/league-draw/services"
)

var secret = []byte("routes-test-secret")

type stubDraws struct{ runs int }

func (s *stubDraws) RunDraw(_ context.Context, in services.RunDrawInput) (*models.DrawRecord, error) {
	s.runs++
	return &models.DrawRecord{ID: "d1", Competition: in.Competition}, nil
}

func (s *stubDraws) GetDraw(context.Context, string) (*models.DrawRecord, error) {
	return nil, services.ErrDrawNotFound
}

func (s *stubDraws) ListDraws(context.Context, string, int, int) ([]models.DrawSummary, error) {
	return []models.DrawSummary{}, nil
}

func (s *stubDraws) GetFixtures(context.Context, string, *int) ([]models.Round, error) {
	return nil, services.ErrDrawNotFound
}

func (s *stubDraws) GetTeamDraw(context.Context, string, int) (*services.TeamView, error) {
	return nil, services.ErrDrawNotFound
}

func (s *stubDraws) Simulate(_ context.Context, in services.SimulationInput) (*services.SimulationReport, error) {
	return &services.SimulationReport{Competition: in.Competition, Runs: in.Runs}, nil
}

type catalogCompetitions struct{}

func (catalogCompetitions) Competitions() []*models.Competition { return roster.Default().List() }

func (catalogCompetitions) Competition(slug string) (*models.Competition, error) {
	c, err := roster.Default().Get(slug)
	if err != nil {
		return nil, services.ErrCompetitionNotFound
	}
	return c, nil
}

type noIssuer struct{}

func (noIssuer) IssueToken(context.Context, string) (string, time.Time, error) {
	return "", time.Time{}, services.ErrInvalidCredentials
}

func newRouter(draws *stubDraws) http.Handler {
	comps := catalogCompetitions{}
	r := chi.NewRouter()
	SetupRoutes(r, Handlers{
		Health:      handlers.NewHealthHandler(nil),
		Auth:        handlers.NewAuthHandler(noIssuer{}),
		Competition: handlers.NewCompetitionHandler(comps),
		Draw:        handlers.NewDrawHandler(draws, draws),
		WebSocket:   handlers.NewWebSocketHandler(live.NewHub(nil), comps, nil),
	}, Options{JWTSecret: secret})
	return r
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestOrganizerRoutesRequireToken(t *testing.T) {
	draws := &stubDraws{}
	h := newRouter(draws)

	tests := []struct {
		name  string
		auth  string
		want  int
		drawn int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "wrong role", auth: "Bearer " + token(t, "viewer"), want: http.StatusForbidden},
		{name: "organizer", auth: "Bearer " + token(t, middleware.RoleOrganizer), want: http.StatusCreated, drawn: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws.runs = 0
			req := httptest.NewRequest(http.MethodPost, "/competitions/champions-league/draws", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.drawn, draws.runs)
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	h := newRouter(&stubDraws{})

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/competitions", http.StatusOK},
		{"/competitions/europa-league/teams", http.StatusOK},
		{"/competitions/europa-league/draws", http.StatusOK},
		{"/draws/0b9f6c1e-4a55-4e1b-8d8c-2f4a3c6f0a11", http.StatusNotFound},
		{"/swagger/doc.json", http.StatusOK},
		{"/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSwaggerDocListsDrawRoutes(t *testing.T) {
	h := newRouter(&stubDraws{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "/competitions/{slug}/draws"))
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(&stubDraws{})
	req := httptest.NewRequest(http.MethodOptions, "/competitions/champions-league/draws", nil)
	req.Header.Set("Origin", "https://draw.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
