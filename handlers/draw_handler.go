package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dosada05/league-draw/models"
	"github.com/Dosada05/league-draw/services"
)

type DrawService interface {
	RunDraw(ctx context.Context, input services.RunDrawInput) (*models.DrawRecord, error)
	GetDraw(ctx context.Context, id string) (*models.DrawRecord, error)
	ListDraws(ctx context.Context, competition string, limit, offset int) ([]models.DrawSummary, error)
	GetFixtures(ctx context.Context, id string, round *int) ([]models.Round, error)
	GetTeamDraw(ctx context.Context, id string, teamID int) (*services.TeamView, error)
}

type SimulationService interface {
	Simulate(ctx context.Context, input services.SimulationInput) (*services.SimulationReport, error)
}

type DrawHandler struct {
	drawService       DrawService
	simulationService SimulationService
}

func NewDrawHandler(ds DrawService, ss SimulationService) *DrawHandler {
	return &DrawHandler{
		drawService:       ds,
		simulationService: ss,
	}
}

// drawIDFromURL возвращает id жеребьёвки; неверный uuid трактуется как
// несуществующая запись.
func drawIDFromURL(r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "drawID"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// RunDraw godoc
// @Summary Провести жеребьёвку
// @Tags draws
// @Description Проводит жеребьёвку общего этапа и строит календарь из 8 туров. Повторяет seed, если он передан.
// @Accept json
// @Produce json
// @Param slug path string true "Слаг турнира (champions-league, europa-league, conference-league)"
// @Param body body services.RunDrawInput false "Необязательный seed"
// @Success 201 {object} map[string]interface{} "Жеребьёвка проведена"
// @Failure 400 {object} map[string]string "Некорректный запрос"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 409 {object} map[string]string "Жеребьёвка уже идёт"
// @Failure 422 {object} map[string]string "Жеребьёвка не сошлась, повторите"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /competitions/{slug}/draws [post]
func (h *DrawHandler) RunDraw(w http.ResponseWriter, r *http.Request) {
	var input services.RunDrawInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.Competition = chi.URLParam(r, "slug")

	record, err := h.drawService.RunDraw(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListDraws godoc
// @Summary Список жеребьёвок турнира
// @Tags draws
// @Produce json
// @Param slug path string true "Слаг турнира"
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{} "Список жеребьёвок, новые первыми"
// @Failure 400 {object} map[string]string "Некорректные параметры"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /competitions/{slug}/draws [get]
func (h *DrawHandler) ListDraws(w http.ResponseWriter, r *http.Request) {
	limit, _, err := queryInt(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, _, err := queryInt(r, "offset")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draws, err := h.drawService.ListDraws(r.Context(), chi.URLParam(r, "slug"), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if draws == nil {
		draws = []models.DrawSummary{}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draws": draws}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDraw godoc
// @Summary Получить жеребьёвку
// @Tags draws
// @Produce json
// @Param drawID path string true "ID жеребьёвки (uuid)"
// @Success 200 {object} map[string]interface{} "Жеребьёвка с соперниками и турами"
// @Failure 404 {object} map[string]string "Не найдена"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /draws/{drawID} [get]
func (h *DrawHandler) GetDraw(w http.ResponseWriter, r *http.Request) {
	id, ok := drawIDFromURL(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}

	record, err := h.drawService.GetDraw(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetFixtures godoc
// @Summary Календарь жеребьёвки
// @Tags draws
// @Produce json
// @Param drawID path string true "ID жеребьёвки (uuid)"
// @Param round query int false "Номер тура (1-8)"
// @Success 200 {object} map[string]interface{} "Туры с матчами"
// @Failure 400 {object} map[string]string "Некорректный номер тура"
// @Failure 404 {object} map[string]string "Не найдена"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /draws/{drawID}/fixtures [get]
func (h *DrawHandler) GetFixtures(w http.ResponseWriter, r *http.Request) {
	id, ok := drawIDFromURL(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}

	var round *int
	n, present, err := queryInt(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if present {
		round = &n
	}

	rounds, err := h.drawService.GetFixtures(r.Context(), id, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTeamDraw godoc
// @Summary Соперники команды
// @Tags draws
// @Description Возвращает соперников команды по корзинам (дома и в гостях) и её матчи по турам.
// @Produce json
// @Param drawID path string true "ID жеребьёвки (uuid)"
// @Param teamID path int true "ID команды"
// @Success 200 {object} map[string]interface{} "Соперники команды"
// @Failure 400 {object} map[string]string "Некорректный ID команды"
// @Failure 404 {object} map[string]string "Жеребьёвка или команда не найдены"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /draws/{drawID}/teams/{teamID} [get]
func (h *DrawHandler) GetTeamDraw(w http.ResponseWriter, r *http.Request) {
	id, ok := drawIDFromURL(r)
	if !ok {
		notFoundResponse(w, r)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.drawService.GetTeamDraw(r.Context(), id, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Simulate godoc
// @Summary Пакетная симуляция жеребьёвок
// @Tags draws
// @Description Прогоняет несколько независимых жеребьёвок без сохранения и возвращает статистику.
// @Accept json
// @Produce json
// @Param slug path string true "Слаг турнира"
// @Param body body services.SimulationInput true "Число прогонов и seed"
// @Success 200 {object} map[string]interface{} "Отчёт симуляции"
// @Failure 400 {object} map[string]string "Некорректный запрос"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /competitions/{slug}/simulations [post]
func (h *DrawHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var input services.SimulationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Runs < 1 || input.Runs > services.MaxSimulationRuns {
		failedValidationResponse(w, r, map[string]string{
			"runs": fmt.Sprintf("must be between 1 and %d", services.MaxSimulationRuns),
		})
		return
	}
	input.Competition = chi.URLParam(r, "slug")

	report, err := h.simulationService.Simulate(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"simulation": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
