package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/shared"
)

// RepositoryPort defines data access methods for chat.
type RepositoryPort interface {
	ListRooms(ctx context.Context) ([]Room, error)
	ListRoomsFor(ctx context.Context, userID int64) ([]Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	CreateRoom(ctx context.Context, req CreateRoomRequest) (Room, error)
	UpdateRoom(ctx context.Context, id int64, req UpdateRoomRequest) (Room, error)
	DeleteRoom(ctx context.Context, id int64) error

	ListMessages(ctx context.Context, roomID int64) ([]Message, error)
	CreateMessage(ctx context.Context, req CreateMessageRequest) (Message, error)
	UpdateMessage(ctx context.Context, id int64, text string) (Message, error)
	DeleteMessage(ctx context.Context, id int64) error
}

// Authorizer evaluates policies outside of route middleware.
type Authorizer interface {
	Authorize(ctx context.Context, p shared.Principal, policy authz.Policy, req authz.Request) (authz.Decision, error)
}

// Publisher relays frames to websocket subscribers of a room.
type Publisher interface {
	Publish(ctx context.Context, roomID int64, frame ServerFrame) error
}

var participant = authz.Policy{Ownership: authz.RoomParticipant{}}

// RoomGate checks room participation outside of route middleware. The hub
// uses it to admit join_room frames.
type RoomGate struct {
	authz Authorizer
}

// NewRoomGate builds a RoomGate.
func NewRoomGate(az Authorizer) RoomGate { return RoomGate{authz: az} }

// CanJoin reports whether p participates in roomID.
func (g RoomGate) CanJoin(ctx context.Context, p shared.Principal, roomID int64) error {
	d, err := g.authz.Authorize(ctx, p, participant, authz.Request{PathID: roomID})
	if err != nil {
		return err
	}
	return d.Err()
}

// Service handles chat business logic.
type Service struct {
	repo      RepositoryPort
	gate      RoomGate
	publisher Publisher
	auditor   shared.Auditor
	logger    *slog.Logger
}

// NewService builds Service instance. publisher may be nil.
func NewService(repo RepositoryPort, az Authorizer, publisher Publisher, auditor shared.Auditor, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, gate: NewRoomGate(az), publisher: publisher, auditor: auditor, logger: logger}
}

// ListRooms returns the caller's rooms; admins see every room.
func (s *Service) ListRooms(ctx context.Context, p shared.Principal) ([]Room, error) {
	if p.IsAdmin() {
		return s.repo.ListRooms(ctx)
	}
	return s.repo.ListRoomsFor(ctx, p.ID)
}

// GetRoom returns one room.
func (s *Service) GetRoom(ctx context.Context, id int64) (Room, error) { return s.repo.GetRoom(ctx, id) }

// CreateRoom opens a room.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (Room, error) {
	return s.repo.CreateRoom(ctx, req)
}

// UpdateRoom changes room metadata.
func (s *Service) UpdateRoom(ctx context.Context, id int64, req UpdateRoomRequest) (Room, error) {
	return s.repo.UpdateRoom(ctx, id, req)
}

// DeleteRoom closes a room.
func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "room", id))
	return nil
}

// CanJoin reports whether p participates in roomID.
func (s *Service) CanJoin(ctx context.Context, p shared.Principal, roomID int64) error {
	return s.gate.CanJoin(ctx, p, roomID)
}

// ListMessages returns a room's history.
func (s *Service) ListMessages(ctx context.Context, roomID int64) ([]Message, error) {
	return s.repo.ListMessages(ctx, roomID)
}

// PostMessage stores a message from p and relays it to live subscribers. The
// sender must participate in the target room.
func (s *Service) PostMessage(ctx context.Context, p shared.Principal, req CreateMessageRequest) (Message, error) {
	if err := s.CanJoin(ctx, p, req.RoomID); err != nil {
		return Message{}, err
	}
	req.Text = strings.TrimSpace(req.Text)
	m, err := s.repo.CreateMessage(ctx, req)
	if err != nil {
		return Message{}, err
	}
	if s.publisher != nil {
		frame := ServerFrame{Type: FrameReceiveMessage, RoomID: m.RoomID, Message: m.Text, Sender: m.UserID, Timestamp: m.Date}
		if err := s.publisher.Publish(ctx, m.RoomID, frame); err != nil {
			s.logger.Warn("relay message", slog.Int64("room_id", m.RoomID), slog.Any("error", err))
		}
	}
	return m, nil
}

// EditMessage changes a message's text.
func (s *Service) EditMessage(ctx context.Context, id int64, req UpdateMessageRequest) (Message, error) {
	return s.repo.UpdateMessage(ctx, id, strings.TrimSpace(req.Text))
}

// DeleteMessage removes a message.
func (s *Service) DeleteMessage(ctx context.Context, id int64) error {
	if err := s.repo.DeleteMessage(ctx, id); err != nil {
		return err
	}
	_ = s.auditor.Record(ctx, shared.AuditEntry(ctx, "delete", "message", id))
	return nil
}
