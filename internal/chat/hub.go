package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

const (
	channelPrefix = "workbridge:room:"
	sendBuffer    = 32
	writeTimeout  = 5 * time.Second
	maxMessage    = 4000
)

// TokenResolver authenticates the token passed in the websocket query string.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (shared.Principal, error)
}

// Joiner decides whether a principal may join a room.
type Joiner interface {
	CanJoin(ctx context.Context, p shared.Principal, roomID int64) error
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithOriginPatterns restricts the browser origins allowed to connect.
func WithOriginPatterns(patterns []string) HubOption {
	return func(h *Hub) { h.origins = patterns }
}

// WithHubClock overrides the timestamp source for relayed frames.
func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// Hub relays chat frames between websocket connections. Frames are published
// to Redis and delivered by every replica to its locally joined connections.
type Hub struct {
	rdb     redis.UniversalClient
	tokens  TokenResolver
	rooms   Joiner
	logger  *slog.Logger
	origins []string
	now     func() time.Time

	mu   sync.RWMutex
	subs map[int64]map[*conn]struct{}
}

type conn struct {
	id        string
	principal shared.Principal
	send      chan ServerFrame
	joined    map[int64]bool
	closed    bool
}

// NewHub constructs a Hub.
func NewHub(rdb redis.UniversalClient, tokens TokenResolver, rooms Joiner, logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		rdb:    rdb,
		tokens: tokens,
		rooms:  rooms,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		subs:   make(map[int64]map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func channel(roomID int64) string { return channelPrefix + strconv.FormatInt(roomID, 10) }

// Publish sends frame to every connection joined to roomID on any replica.
func (h *Hub) Publish(ctx context.Context, roomID int64, frame ServerFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("chat: encode frame: %w", err)
	}
	if err := h.rdb.Publish(ctx, channel(roomID), payload).Err(); err != nil {
		return fmt.Errorf("chat: publish room %d: %w", roomID, err)
	}
	return nil
}

// Run consumes the room channels until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	ps := h.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("chat: subscribe: %w", err)
	}
	h.logger.Info("chat hub subscribed", slog.String("pattern", channelPrefix+"*"))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			roomID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, channelPrefix), 10, 64)
			if err != nil {
				continue
			}
			var frame ServerFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				h.logger.Warn("chat: drop malformed frame", slog.String("channel", msg.Channel), slog.Any("error", err))
				continue
			}
			h.deliver(roomID, frame)
		}
	}
}

func (h *Hub) deliver(roomID int64, frame ServerFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[roomID] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("chat: slow consumer", slog.String("conn", c.id), slog.Int64("room_id", roomID))
		}
	}
}

// join subscribes c to roomID. It reports false once c has left the hub.
func (h *Hub) join(c *conn, roomID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return false
	}
	set, ok := h.subs[roomID]
	if !ok {
		set = make(map[*conn]struct{})
		h.subs[roomID] = set
	}
	set[c] = struct{}{}
	c.joined[roomID] = true
	return true
}

func (h *Hub) leave(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.closed = true
	for roomID := range c.joined {
		delete(h.subs[roomID], c)
		if len(h.subs[roomID]) == 0 {
			delete(h.subs, roomID)
		}
	}
}

// ServeHTTP authenticates ?token= and upgrades the request to a websocket.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.tokens.ResolveToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if authz.IsAuthError(err) {
			httpx.RespondError(w, authz.DecisionFromAuthError(err).Err())
			return
		}
		httpx.Fail(h.logger, w, r, "resolve websocket principal", err)
		return
	}
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Debug("chat: websocket accept", slog.Any("error", err))
		return
	}
	ws.SetReadLimit(16 << 10)

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{id: uuid.NewString(), principal: p, send: make(chan ServerFrame, sendBuffer), joined: make(map[int64]bool)}
	defer func() {
		cancel()
		h.leave(c)
	}()
	h.logger.Debug("chat: connected", slog.String("conn", c.id), slog.Int64("user_id", p.ID))

	readErr := make(chan error, 1)
	go func() {
		for {
			var frame ClientFrame
			if err := wsjson.Read(ctx, ws, &frame); err != nil {
				readErr <- err
				return
			}
			h.handle(ctx, c, frame)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = ws.Close(websocket.StatusNormalClosure, "closed")
			return
		case err := <-readErr:
			if websocket.CloseStatus(err) == -1 {
				_ = ws.Close(websocket.StatusUnsupportedData, "malformed frame")
				return
			}
			_ = ws.Close(websocket.StatusNormalClosure, "closed")
			return
		case frame := <-c.send:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, ws, frame)
			cancelWrite()
			if err != nil {
				_ = ws.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

func (h *Hub) handle(ctx context.Context, c *conn, f ClientFrame) {
	switch f.Type {
	case FrameJoinRoom:
		if err := h.rooms.CanJoin(ctx, c.principal, f.RoomID); err != nil {
			h.reject(ctx, c, f.RoomID, err)
			return
		}
		if !h.join(c, f.RoomID) {
			return
		}
		h.reply(ctx, c, ServerFrame{Type: FrameJoined, RoomID: f.RoomID})
	case FrameSendMessage:
		if !c.joined[f.RoomID] {
			h.reply(ctx, c, ServerFrame{Type: FrameError, RoomID: f.RoomID, Message: "join the room first"})
			return
		}
		text := strings.TrimSpace(f.Message)
		if text == "" || len(text) > maxMessage {
			h.reply(ctx, c, ServerFrame{Type: FrameError, RoomID: f.RoomID, Message: "message must be 1-4000 characters"})
			return
		}
		frame := ServerFrame{Type: FrameReceiveMessage, RoomID: f.RoomID, Message: text, Sender: c.principal.ID, Timestamp: h.now()}
		if err := h.Publish(ctx, f.RoomID, frame); err != nil {
			h.logger.Error("chat: relay", slog.String("conn", c.id), slog.Any("error", err))
			h.reply(ctx, c, ServerFrame{Type: FrameError, RoomID: f.RoomID, Message: "relay unavailable"})
		}
	default:
		h.reply(ctx, c, ServerFrame{Type: FrameError, Message: "unknown frame type"})
	}
}

func (h *Hub) reject(ctx context.Context, c *conn, roomID int64, err error) {
	msg := err.Error()
	if !errors.Is(err, shared.ErrForbidden) && !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrInvalidInput) {
		h.logger.Error("chat: join room", slog.String("conn", c.id), slog.Int64("room_id", roomID), slog.Any("error", err))
		msg = "internal error"
	}
	h.reply(ctx, c, ServerFrame{Type: FrameError, RoomID: roomID, Message: msg})
}

func (h *Hub) reply(ctx context.Context, c *conn, frame ServerFrame) {
	select {
	case c.send <- frame:
	case <-ctx.Done():
	}
}
