package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/shared"
)

type memRepo struct {
	rooms    map[int64]Room
	messages map[int64]Message
	nextID   int64
}

func ptr[T any](v T) *T { return &v }

func newMemRepo() *memRepo {
	return &memRepo{
		rooms: map[int64]Room{
			3: {ID: 3, UserFirstID: 7, UserSecondID: ptr(int64(8))},
			4: {ID: 4, UserFirstID: 8},
		},
		messages: map[int64]Message{
			11: {ID: 11, UserID: 7, RoomID: 3, Text: "hi"},
			12: {ID: 12, UserID: 8, RoomID: 3, Text: "hello"},
		},
		nextID: 100,
	}
}

func missing(what string, id int64) error {
	return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
}

func (m *memRepo) ListRooms(context.Context) ([]Room, error) {
	return []Room{m.rooms[3], m.rooms[4]}, nil
}

func (m *memRepo) ListRoomsFor(_ context.Context, userID int64) ([]Room, error) {
	var out []Room
	for _, id := range []int64{3, 4} {
		r := m.rooms[id]
		if r.UserFirstID == userID || (r.UserSecondID != nil && *r.UserSecondID == userID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) GetRoom(_ context.Context, id int64) (Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, missing("room", id)
	}
	return r, nil
}

func (m *memRepo) CreateRoom(_ context.Context, req CreateRoomRequest) (Room, error) {
	m.nextID++
	r := Room{ID: m.nextID, UserFirstID: req.UserFirstID, UserSecondID: req.UserSecondID, OrderID: req.OrderID, Number: req.Number}
	m.rooms[r.ID] = r
	return r, nil
}

func (m *memRepo) UpdateRoom(ctx context.Context, id int64, req UpdateRoomRequest) (Room, error) {
	r, err := m.GetRoom(ctx, id)
	if err != nil {
		return Room{}, err
	}
	if req.Number != nil {
		r.Number = req.Number
	}
	m.rooms[id] = r
	return r, nil
}

func (m *memRepo) DeleteRoom(_ context.Context, id int64) error {
	delete(m.rooms, id)
	return nil
}

func (m *memRepo) ListMessages(_ context.Context, roomID int64) ([]Message, error) {
	var out []Message
	for _, id := range []int64{11, 12} {
		if msg, ok := m.messages[id]; ok && msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memRepo) CreateMessage(_ context.Context, req CreateMessageRequest) (Message, error) {
	m.nextID++
	msg := Message{ID: m.nextID, UserID: req.UserID, RoomID: req.RoomID, Text: req.Text, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *memRepo) UpdateMessage(_ context.Context, id int64, text string) (Message, error) {
	msg := m.messages[id]
	msg.Text = text
	m.messages[id] = msg
	return msg, nil
}

func (m *memRepo) DeleteMessage(_ context.Context, id int64) error {
	delete(m.messages, id)
	return nil
}

type repoLoader struct{ repo *memRepo }

func (l repoLoader) Load(_ context.Context, ref authz.ResourceRef) (authz.Resource, error) {
	res := authz.Resource{Kind: ref.Kind, ID: ref.ID, Attrs: map[authz.Field]int64{}}
	switch ref.Kind {
	case authz.KindRoom:
		r, ok := l.repo.rooms[ref.ID]
		if !ok {
			return authz.Resource{}, &authz.NotFoundError{Ref: ref}
		}
		res.Attrs[authz.FieldUserFirstID] = r.UserFirstID
		if r.UserSecondID != nil {
			res.Attrs[authz.FieldUserSecondID] = *r.UserSecondID
		}
	case authz.KindMessage:
		m, ok := l.repo.messages[ref.ID]
		if !ok {
			return authz.Resource{}, &authz.NotFoundError{Ref: ref}
		}
		res.Attrs[authz.FieldUserID] = m.UserID
		res.Attrs[authz.FieldRoomID] = m.RoomID
	default:
		return authz.Resource{}, &authz.NotFoundError{Ref: ref}
	}
	return res, nil
}

type tokenResolver map[string]shared.Principal

func (t tokenResolver) Resolve(_ context.Context, header string) (shared.Principal, error) {
	if header == "" {
		return shared.Principal{}, shared.ErrNoToken
	}
	p, ok := t[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return shared.Principal{}, shared.ErrTokenInvalid
	}
	return p, nil
}

type recordingPublisher struct{ frames []ServerFrame }

func (p *recordingPublisher) Publish(_ context.Context, _ int64, f ServerFrame) error {
	p.frames = append(p.frames, f)
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *memRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemRepo()
	eval := authz.NewEvaluator(repoLoader{repo: repo}, nil)
	mw := authz.Middleware{
		Resolver: tokenResolver{
			"cara":  {ID: 7, Role: shared.RoleCustomer},
			"wes":   {ID: 8, Role: shared.RoleCreator},
			"eve":   {ID: 9, Role: shared.RoleCustomer},
			"admin": {ID: 1, Role: shared.RoleAdmin},
		},
		Evaluator: eval,
	}
	pub := &recordingPublisher{}
	h := NewHandler(nil, NewService(repo, eval, pub, nil, nil), mw)
	r := chi.NewRouter()
	r.Route("/rooms", h.MountRooms)
	r.Route("/messages", h.MountMessages)
	return r, repo, pub
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestRoomRoutes(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{name: "list requires auth", method: http.MethodGet, path: "/rooms", status: http.StatusUnauthorized},
		{name: "participant reads", method: http.MethodGet, path: "/rooms/3", token: "wes", status: http.StatusOK},
		{name: "outsider reads", method: http.MethodGet, path: "/rooms/3", token: "eve", status: http.StatusForbidden},
		{name: "missing room", method: http.MethodGet, path: "/rooms/77", token: "cara", status: http.StatusNotFound},
		{name: "admin reads", method: http.MethodGet, path: "/rooms/4", token: "admin", status: http.StatusOK},
		{name: "create as participant", method: http.MethodPost, path: "/rooms", token: "cara", body: `{"user_first_id":9,"user_second_id":7}`, status: http.StatusCreated},
		{name: "create for others", method: http.MethodPost, path: "/rooms", token: "cara", body: `{"user_first_id":8,"user_second_id":9}`, status: http.StatusForbidden},
		{name: "create without first", method: http.MethodPost, path: "/rooms", token: "cara", body: `{"user_second_id":7}`, status: http.StatusBadRequest},
		{name: "create with self twice", method: http.MethodPost, path: "/rooms", token: "cara", body: `{"user_first_id":7,"user_second_id":7}`, status: http.StatusBadRequest},
		{name: "second participant updates", method: http.MethodPatch, path: "/rooms/3", token: "wes", body: `{"number":2}`, status: http.StatusOK},
		{name: "outsider deletes", method: http.MethodDelete, path: "/rooms/4", token: "cara", status: http.StatusForbidden},
		{name: "participant deletes", method: http.MethodDelete, path: "/rooms/4", token: "wes", status: http.StatusNoContent},
		{name: "outsider history", method: http.MethodGet, path: "/rooms/3/messages", token: "eve", status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, _ := newTestServer(t)
			res := call(h, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, res.Code, res.Body.String())
		})
	}
}

func TestListRoomsScopedToCaller(t *testing.T) {
	h, _, _ := newTestServer(t)

	var rooms []Room
	res := call(h, http.MethodGet, "/rooms", "cara", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(3), rooms[0].ID)

	res = call(h, http.MethodGet, "/rooms", "admin", "")
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rooms))
	assert.Len(t, rooms, 2)
}

func TestRoomHistory(t *testing.T) {
	h, _, _ := newTestServer(t)
	var msgs []Message
	res := call(h, http.MethodGet, "/rooms/3/messages", "cara", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&msgs))
	assert.Len(t, msgs, 2)
}

func TestPostMessage(t *testing.T) {
	h, repo, pub := newTestServer(t)

	res := call(h, http.MethodPost, "/messages", "cara", `{"user_id":7,"room_id":3,"text":" see you "}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var msg Message
	require.NoError(t, json.NewDecoder(res.Body).Decode(&msg))
	assert.Equal(t, "see you", repo.messages[msg.ID].Text)
	require.Len(t, pub.frames, 1)
	assert.Equal(t, FrameReceiveMessage, pub.frames[0].Type)
	assert.Equal(t, int64(7), pub.frames[0].Sender)

	res = call(h, http.MethodPost, "/messages", "cara", `{"user_id":8,"room_id":3,"text":"spoof"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = call(h, http.MethodPost, "/messages", "cara", `{"user_id":7,"room_id":4,"text":"intrude"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = call(h, http.MethodPost, "/messages", "cara", `{"user_id":7,"room_id":77,"text":"void"}`)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Len(t, pub.frames, 1)
}

func TestMessageOwnership(t *testing.T) {
	h, repo, _ := newTestServer(t)

	res := call(h, http.MethodPatch, "/messages/12", "cara", `{"text":"edited"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = call(h, http.MethodPatch, "/messages/11", "cara", `{"text":"edited"}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "edited", repo.messages[11].Text)

	res = call(h, http.MethodDelete, "/messages/12", "admin", "")
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.NotContains(t, repo.messages, int64(12))

	res = call(h, http.MethodDelete, "/messages/404", "cara", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}
