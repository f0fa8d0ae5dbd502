package apiserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"reunion/internal/auth"
	"reunion/internal/config"
	ws "reunion/internal/websocket"
)

// WebSocketHandler 负责将通知推送连接升级为 WebSocket。
type WebSocketHandler struct {
	hub       *ws.Hub
	jwtSecret string
	blacklist auth.TokenBlacklist
	cfg       config.WebSocketConfig
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。
func NewWebSocketHandler(hub *ws.Hub, jwtSecret string, blacklist auth.TokenBlacklist, cfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, jwtSecret: jwtSecret, blacklist: blacklist, cfg: cfg}
}

// ServeWS handles GET /ws/notifications. Browsers cannot set headers on a
// websocket handshake, so the token may also come from the "token" query parameter.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := strings.Fields(r.Header.Get("Authorization")); len(header) == 2 && strings.EqualFold(header[0], "bearer") {
			token = header[1]
		}
	}
	if token == "" {
		writeJSONError(w, "authorization token is required", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.jwtSecret, h.blacklist)
	if err != nil {
		if !errors.Is(err, auth.ErrTokenInvalid) && !errors.Is(err, auth.ErrTokenRevoked) {
			logrus.WithError(err).Error("websocket token validation failed")
		}
		writeJSONError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws.ServeWs(h.hub, claims.UserID, w, r, h.cfg)
}
