package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/league-draw/live"
)

type WebSocketHandler struct {
	hub                *live.Hub
	competitionService CompetitionService
	upgrader           websocket.Upgrader
}

// NewWebSocketHandler принимает список разрешённых Origin; "*" или пустой
// список разрешают любой источник.
func NewWebSocketHandler(hub *live.Hub, cs CompetitionService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                hub,
		competitionService: cs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWs подключает клиента к живой ленте турнира.
// Клиент должен подключаться к /ws/competitions/{slug}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, err := h.competitionService.Competition(slug); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		slog.Warn("websocket upgrade failed", slog.String("competition", slug), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.RoomForCompetition(slug))
	if !h.hub.Join(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	slog.Debug("live client connected", slog.String("room", client.Room))
}
