package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthCheck проверяет одну внешнюю зависимость (БД, Redis).
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health godoc
// @Summary Проверка состояния сервиса
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Все зависимости доступны"
// @Failure 503 {object} map[string]interface{} "Одна из зависимостей недоступна"
// @Router /healthz [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			slog.Warn("health check failed", slog.String("check", name), slog.Any("error", err))
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	if err := writeJSON(w, status, jsonResponse{"status": state, "checks": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
