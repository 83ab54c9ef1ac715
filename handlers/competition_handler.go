package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/league-draw/models"
)

type CompetitionService interface {
	Competitions() []*models.Competition
	Competition(slug string) (*models.Competition, error)
}

type CompetitionHandler struct {
	competitionService CompetitionService
}

func NewCompetitionHandler(cs CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitionService: cs}
}

type competitionSummary struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Teams int    `json:"teams"`
}

type potView struct {
	Pot   int           `json:"pot"`
	Teams []models.Team `json:"teams"`
}

// ListCompetitions godoc
// @Summary Список турниров
// @Tags competitions
// @Produce json
// @Success 200 {object} map[string]interface{} "Доступные каталоги команд"
// @Router /competitions [get]
func (h *CompetitionHandler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	comps := h.competitionService.Competitions()
	out := make([]competitionSummary, 0, len(comps))
	for _, c := range comps {
		out = append(out, competitionSummary{Slug: c.Slug, Name: c.Name, Teams: len(c.Teams)})
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitions": out}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTeams godoc
// @Summary Команды турнира по корзинам
// @Tags competitions
// @Produce json
// @Param slug path string true "Слаг турнира"
// @Success 200 {object} map[string]interface{} "Команды, разбитые на 4 корзины"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /competitions/{slug}/teams [get]
func (h *CompetitionHandler) GetTeams(w http.ResponseWriter, r *http.Request) {
	comp, err := h.competitionService.Competition(chi.URLParam(r, "slug"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	pots := make([]potView, 0, models.PotCount)
	for pot := 1; pot <= models.PotCount; pot++ {
		pots = append(pots, potView{Pot: pot, Teams: comp.TeamsByPot(pot)})
	}

	response := jsonResponse{
		"competition": competitionSummary{Slug: comp.Slug, Name: comp.Name, Teams: len(comp.Teams)},
		"pots":        pots,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
