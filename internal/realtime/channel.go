// Package realtime subscribes to per-event chat rooms over a websocket.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/pliu/eventplanner/internal/apperr"
	"github.com/pliu/eventplanner/internal/models"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ErrJoinRejected is returned when the server refuses to join a room.
var ErrJoinRejected = errors.New("realtime: join rejected")

const (
	typeJoinEvent       = "joinEvent"
	typeLeaveEvent      = "leaveEvent"
	typeJoined          = "joined"
	typeMessageReceived = "messageReceived"
	typeError           = "error"
	typeRemoved         = "removed"
)

type command struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type roomNotice struct {
	EventID string `json:"event_id"`
	Message string `json:"message"`
}

// Handler receives messages broadcast to a subscribed event.
type Handler func(models.Message)

// TokenSource supplies the bearer token used when dialing.
type TokenSource interface {
	Token() string
}

type room struct {
	handlers map[int]Handler
	ready    chan struct{}
	settled  bool
	err      error
}

// Channel multiplexes room subscriptions over one lazily dialed connection.
// The connection is closed when the last subscription goes away.
type Channel struct {
	url        string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	rooms  map[string]*room
	nextID int
}

type Option func(*Channel)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Channel) { c.httpClient = client }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.logger = l }
}

// New returns a channel for the backend at baseURL (http or https).
func New(baseURL string, tokens TokenSource, opts ...Option) *Channel {
	u := strings.TrimRight(baseURL, "/")
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	c := &Channel{
		url:    u + "/ws",
		tokens: tokens,
		logger: slog.Default(),
		rooms:  make(map[string]*room),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether a connection is currently open.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Subscribe joins the event's room and calls h for every message broadcast
// to it. It returns once the server has acknowledged the join.
func (c *Channel) Subscribe(ctx context.Context, eventID string, h Handler) (func(), error) {
	c.mu.Lock()
	if c.conn == nil {
		if err := c.dialLocked(ctx); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	conn := c.conn
	r, ok := c.rooms[eventID]
	if !ok {
		r = &room{handlers: make(map[int]Handler), ready: make(chan struct{})}
		c.rooms[eventID] = r
	}
	id := c.nextID
	c.nextID++
	r.handlers[id] = h
	c.mu.Unlock()

	if !ok {
		if err := wsjson.Write(ctx, conn, command{Type: typeJoinEvent, EventID: eventID}); err != nil {
			c.settle(r, fmt.Errorf("join %s: %w: %v", eventID, apperr.ErrConnectivityUnavailable, err))
		}
	}

	select {
	case <-r.ready:
		if r.err != nil {
			c.remove(eventID, r, id)
			return nil, r.err
		}
	case <-ctx.Done():
		c.remove(eventID, r, id)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { c.remove(eventID, r, id) }) }, nil
}

// Close drops every subscription and closes the connection.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel = nil, nil
	rooms := c.rooms
	c.rooms = make(map[string]*room)
	c.mu.Unlock()

	for _, r := range rooms {
		c.settle(r, fmt.Errorf("realtime: channel closed: %w", apperr.ErrConnectivityUnavailable))
	}
	if conn == nil {
		return nil
	}
	err := conn.Close(websocket.StatusNormalClosure, "")
	cancel()
	return err
}

func (c *Channel) dialLocked(ctx context.Context) error {
	token := c.tokens.Token()
	if token == "" {
		return fmt.Errorf("realtime: no session token: %w", apperr.ErrUnauthorized)
	}
	conn, _, err := websocket.Dial(ctx, c.url+"?token="+token, &websocket.DialOptions{HTTPClient: c.httpClient})
	if err != nil {
		return fmt.Errorf("realtime: dial: %w: %v", apperr.ErrConnectivityUnavailable, err)
	}
	readCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel
	go c.readLoop(readCtx, conn)
	return nil
}

// remove drops one subscription. The last subscription of a room leaves it,
// and the last room closes the connection.
func (c *Channel) remove(eventID string, r *room, id int) {
	c.mu.Lock()
	delete(r.handlers, id)
	if len(r.handlers) > 0 || c.rooms[eventID] != r {
		c.mu.Unlock()
		return
	}
	delete(c.rooms, eventID)
	joined := r.settled && r.err == nil
	conn := c.conn
	var cancel context.CancelFunc
	if len(c.rooms) == 0 {
		cancel = c.cancel
		c.conn, c.cancel = nil, nil
	}
	c.mu.Unlock()

	if conn == nil {
		return
	}
	if joined {
		if err := wsjson.Write(context.Background(), conn, command{Type: typeLeaveEvent, EventID: eventID}); err != nil {
			c.logger.Warn("failed to leave event room", "event", eventID, "error", err)
		}
	}
	if cancel != nil {
		conn.Close(websocket.StatusNormalClosure, "")
		cancel()
	}
}

func (c *Channel) settle(r *room, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.settled {
		return
	}
	r.settled = true
	r.err = err
	close(r.ready)
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			c.connectionLost(conn, err)
			return
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env envelope) {
	switch env.Type {
	case typeJoined, typeError:
		var n roomNotice
		if err := json.Unmarshal(env.Data, &n); err != nil {
			c.logger.Warn("malformed room notice", "type", env.Type, "error", err)
			return
		}
		c.mu.Lock()
		r := c.rooms[n.EventID]
		c.mu.Unlock()
		if r == nil {
			c.logger.Warn("notice for unknown room", "type", env.Type, "event", n.EventID, "message", n.Message)
			return
		}
		if env.Type == typeJoined {
			c.settle(r, nil)
		} else {
			c.settle(r, fmt.Errorf("join %s: %s: %w", n.EventID, n.Message, ErrJoinRejected))
		}
	case typeRemoved:
		var n roomNotice
		if err := json.Unmarshal(env.Data, &n); err != nil {
			c.logger.Warn("malformed room notice", "type", env.Type, "error", err)
			return
		}
		c.logger.Warn("removed from event room", "event", n.EventID)
		c.dropRoom(n.EventID)
	case typeMessageReceived:
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.logger.Warn("malformed message", "error", err)
			return
		}
		for _, h := range c.handlersFor(msg.EventID) {
			h(msg)
		}
	default:
		c.logger.Debug("ignoring realtime envelope", "type", env.Type)
	}
}

// dropRoom forgets a room the server took this connection out of. Its
// subscribers get no further messages.
func (c *Channel) dropRoom(eventID string) {
	c.mu.Lock()
	if _, ok := c.rooms[eventID]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.rooms, eventID)
	var conn *websocket.Conn
	var cancel context.CancelFunc
	if len(c.rooms) == 0 {
		conn, cancel = c.conn, c.cancel
		c.conn, c.cancel = nil, nil
	}
	c.mu.Unlock()

	if conn != nil {
		// Closing waits on the read loop, which is the caller.
		go func() {
			conn.Close(websocket.StatusNormalClosure, "")
			cancel()
		}()
	}
}

func (c *Channel) handlersFor(eventID string) []Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.rooms[eventID]
	if r == nil {
		return nil
	}
	hs := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		hs = append(hs, h)
	}
	return hs
}

// connectionLost forgets conn and fails any join still waiting on it. Rooms
// joined over it are dropped; a later Subscribe dials again.
func (c *Channel) connectionLost(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.conn, c.cancel = nil, nil
	rooms := c.rooms
	c.rooms = make(map[string]*room)
	c.mu.Unlock()

	cancel()
	c.logger.Warn("realtime connection lost", "error", err)
	for _, r := range rooms {
		c.settle(r, fmt.Errorf("realtime: connection lost: %w", apperr.ErrConnectivityUnavailable))
	}
}
