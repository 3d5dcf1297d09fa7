package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is checked in ServeHTTP before upgrading.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one subscribed admin connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	regionID uuid.UUID
	send     chan []byte
	log      *logrus.Entry
}

// readPump only watches for disconnects; subscribers never send.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per event keeps every message valid JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handler serves GET /ws/regions/{rid}/orders?token=JWT.
type Handler struct {
	hub     *Hub
	authn   *middleware.Authenticator
	origins map[string]struct{}
	log     *logrus.Entry
}

// NewHandler creates a Handler. allowedOrigins gates connections that
// authenticate with the session cookie instead of an explicit token.
func NewHandler(hub *Hub, authn *middleware.Authenticator, allowedOrigins []string, log *logrus.Entry) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	return &Handler{hub: hub, authn: authn, origins: origins, log: log}
}

// sameSiteAllowed reports whether a browser request from origin may ride on
// ambient credentials. Non-browser clients send no Origin.
func (h *Handler) sameSiteAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := h.origins[strings.TrimRight(origin, "/")]
	return ok
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var err error
		if token, err = h.authn.TokenFromRequest(r); err != nil {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		// Browsers attach the cookie to cross-site upgrades too.
		if r.Header.Get("Authorization") == "" && !h.sameSiteAllowed(r.Header.Get("Origin")) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
	}

	actor, err := h.authn.Resolve(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	regionID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		http.Error(w, "invalid region id", http.StatusBadRequest)
		return
	}

	if !actor.IsAdmin() || !actor.CanAccessRegion(regionID) {
		http.Error(w, "region access denied", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade")
		return
	}

	c := &Client{
		hub:      h.hub,
		conn:     conn,
		regionID: regionID,
		send:     make(chan []byte, 256),
		log:      h.log.WithField("region_id", regionID),
	}
	if !h.hub.add(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
