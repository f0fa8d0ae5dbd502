package websocket

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"reunion/internal/events"
)

// delivery is one payload aimed at every connection of a user.
type delivery struct {
	userID  uint
	payload []byte
}

type countQuery struct {
	userID uint
	reply  chan int
}

// Hub maintains the set of active clients and pushes notifications to them.
// A user may hold several connections (tabs, devices); each receives every push.
type Hub struct {
	clients map[uint]map[*Client]struct{}

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Notifications aimed at a specific user.
	direct chan delivery

	queries chan countQuery

	// done is closed when Run returns so pumps never block on a stopped hub.
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan delivery, 256),
		queries:    make(chan countQuery),
		done:       make(chan struct{}),
	}
}

// Deliver implements events.Notifier. It never blocks the caller (the Kafka
// consumer); when the hub is saturated the push is dropped and the client
// still finds the notification in the store.
func (h *Hub) Deliver(userID uint, n events.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to encode live notification")
		return
	}
	select {
	case h.direct <- delivery{userID: userID, payload: payload}:
	default:
		logrus.WithField("user_id", userID).Warn("hub direct channel is full, dropping live notification")
	}
}

// ClientCount returns the number of live connections of userID.
// It returns 0 once the hub has stopped.
func (h *Hub) ClientCount(userID uint) int {
	q := countQuery{userID: userID, reply: make(chan int, 1)}
	select {
	case h.queries <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run starts the hub loop until ctx is canceled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	logrus.Info("websocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for userID, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			logrus.Info("websocket hub stopped")
			return

		case client := <-h.register:
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			logrus.WithFields(logrus.Fields{"user_id": client.UserID, "connections": len(conns)}).Debug("client registered")

		case client := <-h.unregister:
			h.drop(client)

		case q := <-h.queries:
			q.reply <- len(h.clients[q.userID])

		case d := <-h.direct:
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.payload:
				default:
					// 发送缓冲已满，认为客户端过慢或已断开
					logrus.WithField("user_id", d.userID).Warn("client send buffer full, disconnecting")
					h.drop(client)
				}
			}
		}
	}
}

// drop forgets the client and closes its send channel. Clients that were
// already dropped are ignored so send is closed exactly once.
func (h *Hub) drop(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	logrus.WithField("user_id", client.UserID).Debug("client unregistered")
}
