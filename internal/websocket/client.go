package websocket

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"reunion/internal/config"
)

var newline = []byte("\n")

// Client is a middleman between the websocket connection and the hub.
// The stream is one-way: the server pushes notifications and the client
// only answers control frames.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Authenticated User ID for this client.
	UserID uint

	cfg config.WebSocketConfig
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// readPump keeps the read deadline fresh through pongs and detects closure.
// Data frames from the peer are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	pongWait := seconds(c.cfg.PongWaitSeconds, 60*time.Second)
	if c.cfg.MaxMessageSizeBytes > 0 {
		c.conn.SetReadLimit(int64(c.cfg.MaxMessageSizeBytes))
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("user_id", c.UserID).WithError(err).Warn("websocket closed unexpectedly")
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	writeWait := seconds(c.cfg.WriteWaitSeconds, 10*time.Second)
	ticker := time.NewTicker(seconds(c.cfg.PingPeriodSeconds, 54*time.Second))
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub 已关闭该通道
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// 聚合发送队列中的其他消息，每行一条
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write(newline)
				_, _ = w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts every origin when allowed is empty, otherwise the
// request Origin host must be listed ("*" allows all).
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host) {
				return true
			}
		}
		return false
	}
}

// ServeWs upgrades the request and attaches the connection to userID on hub.
func ServeWs(hub *Hub, userID uint, w http.ResponseWriter, r *http.Request, cfg config.WebSocketConfig) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写出错误响应
		logrus.WithField("user_id", userID).WithError(err).Warn("websocket upgrade failed")
		return
	}

	bufferSize := cfg.SendBufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, bufferSize),
		UserID: userID,
		cfg:    cfg,
	}
	if !hub.add(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	logrus.WithField("user_id", userID).Info("notification stream connected")
}
