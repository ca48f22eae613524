package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/shared"
)

type stubTokens map[string]shared.Principal

func (s stubTokens) ResolveToken(_ context.Context, token string) (shared.Principal, error) {
	if token == "" {
		return shared.Principal{}, shared.ErrNoToken
	}
	p, ok := s[token]
	if !ok {
		return shared.Principal{}, shared.ErrTokenInvalid
	}
	return p, nil
}

// roomMembers maps room ids to their participants.
type roomMembers map[int64][]int64

func (m roomMembers) CanJoin(_ context.Context, p shared.Principal, roomID int64) error {
	members, ok := m[roomID]
	if !ok {
		return fmt.Errorf("%w: room %d not found", shared.ErrNotFound, roomID)
	}
	for _, id := range members {
		if id == p.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: not a participant of room %d", shared.ErrForbidden, roomID)
}

var hubClock = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := stubTokens{
		"cara": {ID: 7, Role: shared.RoleCustomer},
		"wes":  {ID: 8, Role: shared.RoleCreator},
		"eve":  {ID: 9, Role: shared.RoleCustomer},
	}
	hub := NewHub(rdb, tokens, roomMembers{3: {7, 8}}, nil, WithHubClock(func() time.Time { return hubClock }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return mr.PubSubNumPat() == 1 }, 2*time.Second, 10*time.Millisecond)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func send(t *testing.T, c *websocket.Conn, f ClientFrame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c, f))
}

func recv(t *testing.T, c *websocket.Conn) ServerFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var f ServerFrame
	require.NoError(t, wsjson.Read(ctx, c, &f))
	return f
}

func TestHubRejectsMissingToken(t *testing.T) {
	_, srv := newHubServer(t)

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res2, err := http.Get(srv.URL + "/?token=forged")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res2.StatusCode)
}

func TestHubRelaysToJoinedParticipants(t *testing.T) {
	_, srv := newHubServer(t)
	cara := dial(t, srv, "cara")
	wes := dial(t, srv, "wes")

	send(t, cara, ClientFrame{Type: FrameJoinRoom, RoomID: 3})
	assert.Equal(t, ServerFrame{Type: FrameJoined, RoomID: 3}, recv(t, cara))
	send(t, wes, ClientFrame{Type: FrameJoinRoom, RoomID: 3})
	assert.Equal(t, ServerFrame{Type: FrameJoined, RoomID: 3}, recv(t, wes))

	send(t, cara, ClientFrame{Type: FrameSendMessage, RoomID: 3, Message: "  hello  "})
	for _, c := range []*websocket.Conn{cara, wes} {
		got := recv(t, c)
		assert.Equal(t, FrameReceiveMessage, got.Type)
		assert.Equal(t, int64(3), got.RoomID)
		assert.Equal(t, "hello", got.Message)
		assert.Equal(t, int64(7), got.Sender)
		assert.True(t, hubClock.Equal(got.Timestamp))
	}
}

func TestHubJoinIsAuthorized(t *testing.T) {
	_, srv := newHubServer(t)
	eve := dial(t, srv, "eve")

	send(t, eve, ClientFrame{Type: FrameJoinRoom, RoomID: 3})
	got := recv(t, eve)
	assert.Equal(t, FrameError, got.Type)
	assert.Equal(t, "forbidden: not a participant of room 3", got.Message)

	send(t, eve, ClientFrame{Type: FrameJoinRoom, RoomID: 99})
	got = recv(t, eve)
	assert.Equal(t, FrameError, got.Type)
	assert.Contains(t, got.Message, "room 99 not found")
}

func TestHubRequiresJoinBeforeSend(t *testing.T) {
	_, srv := newHubServer(t)
	cara := dial(t, srv, "cara")

	send(t, cara, ClientFrame{Type: FrameSendMessage, RoomID: 3, Message: "hi"})
	assert.Equal(t, ServerFrame{Type: FrameError, RoomID: 3, Message: "join the room first"}, recv(t, cara))

	send(t, cara, ClientFrame{Type: "dance"})
	assert.Equal(t, FrameError, recv(t, cara).Type)
}

func TestHubPublishReachesSockets(t *testing.T) {
	hub, srv := newHubServer(t)
	wes := dial(t, srv, "wes")
	send(t, wes, ClientFrame{Type: FrameJoinRoom, RoomID: 3})
	require.Equal(t, FrameJoined, recv(t, wes).Type)

	frame := ServerFrame{Type: FrameReceiveMessage, RoomID: 3, Message: "stored", Sender: 7, Timestamp: hubClock}
	require.NoError(t, hub.Publish(context.Background(), 3, frame))
	got := recv(t, wes)
	assert.Equal(t, "stored", got.Message)
	assert.Equal(t, int64(7), got.Sender)
}

func TestHubJoinAfterLeaveIsIgnored(t *testing.T) {
	h := NewHub(nil, stubTokens{}, roomMembers{}, nil)
	c := &conn{id: "c1", send: make(chan ServerFrame, 1), joined: map[int64]bool{}}

	require.True(t, h.join(c, 3))
	h.leave(c)
	assert.Empty(t, h.subs)

	assert.False(t, h.join(c, 4))
	assert.Empty(t, h.subs)
}
