package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type TokenIssuer interface {
	IssueToken(ctx context.Context, password string) (string, time.Time, error)
}

type AuthHandler struct {
	authService TokenIssuer
}

func NewAuthHandler(authService TokenIssuer) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenInput struct {
	Password string `json:"password"`
}

// IssueToken godoc
// @Summary Получить токен организатора
// @Tags auth
// @Description Обменивает пароль организатора на JWT, которым подписываются запросы на жеребьёвку.
// @Accept json
// @Produce json
// @Param body body tokenInput true "Пароль организатора"
// @Success 200 {object} map[string]interface{} "Токен и время его истечения"
// @Failure 400 {object} map[string]string "Некорректный запрос"
// @Failure 401 {object} map[string]string "Неверный пароль"
// @Failure 500 {object} map[string]string "Внутренняя ошибка сервера"
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var input tokenInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Password == "" {
		badRequestResponse(w, r, errors.New("password is required"))
		return
	}

	token, expires, err := h.authService.IssueToken(r.Context(), input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
