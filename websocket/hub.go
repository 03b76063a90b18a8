package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

const sendBuffer = 16

// Event is the envelope of everything pushed to a connected user.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one open connection of a user.
type Client struct {
	UserID uint
	send   chan []byte
}

// Hub keeps the open connections per user and fans events out to them.
// Sends never block: a client whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) Register(userID uint) *Client {
	c := &Client{UserID: userID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
	log.Debugw("websocket client registered", "user_id", userID)
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	log.Debugw("websocket client unregistered", "user_id", c.UserID)
}

// Send queues ev for every connection of userID and reports how many
// connections accepted it.
func (h *Hub) Send(userID uint, ev Event) int {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorw("encoding websocket event", "type", ev.Type, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			log.Warnw("websocket buffer full, dropping event", "user_id", userID, "type", ev.Type)
		}
	}
	return delivered
}

// Connections reports how many connections userID has open.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) AttemptGraded(_ context.Context, ev services.GradedEvent) {
	attempt := ev.Attempt
	exam := ev.Exam
	attempt.Exam = &exam
	h.Send(attempt.StudentID, Event{Type: "attempt.graded", Data: dto.ToStudentExamResponse(attempt)})
}

const queryTokenLocal = "ws_token"

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Authentication required", nil))
}

// Upgrade lets authenticated websocket handshakes through. Browsers cannot
// set headers on the handshake, so when the Authorization header did not
// identify the caller the token is read from the token query parameter.
func Upgrade(tokens *services.TokenService, resolver *middleware.IdentityResolver) fiber.Handler {
	queryToken := jwtware.New(jwtware.Config{
		Filter: func(c *fiber.Ctx) bool {
			_, ok := middleware.CurrentIdentity(c)
			return ok
		},
		TokenLookup: "query:token",
		ContextKey:  queryTokenLocal,
		Claims:      &services.Claims{},
		KeyFunc:     tokens.KeyFunc,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, _ := c.Locals(queryTokenLocal).(*jwt.Token)
			if token == nil {
				return unauthorized(c)
			}
			claims, _ := token.Claims.(*services.Claims)
			ci, ok := resolver.ResolveClaims(c.UserContext(), claims)
			if !ok {
				return unauthorized(c)
			}
			middleware.SetIdentity(c, ci)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Debugw("websocket handshake rejected", "error", err)
			return unauthorized(c)
		},
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return queryToken(c)
	}
}

// Handler serves an upgraded connection until the peer goes away.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ci, ok := conn.Locals(middleware.IdentityLocal).(*middleware.CallerIdentity)
		if !ok || ci == nil {
			conn.Close()
			return
		}
		client := h.Register(ci.ID)
		defer h.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case payload, ok := <-client.send:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					log.Warnw("websocket write failed", "user_id", ci.ID, "error", err)
					return
				}
			case <-done:
				return
			}
		}
	})
}
