// Package chat provides rooms between two users, their message history and a
// websocket relay that fans messages out across replicas through Redis.
package chat

import "time"

// Room is a conversation between one or two users, optionally about an order.
type Room struct {
	ID           int64  `json:"id"`
	UserFirstID  int64  `json:"user_first_id"`
	UserSecondID *int64 `json:"user_second_id"`
	OrderID      *int64 `json:"order_id,omitempty"`
	Number       *int32 `json:"number,omitempty"`
}

// CreateRoomRequest is the payload of POST /api/rooms.
type CreateRoomRequest struct {
	UserFirstID  int64  `json:"user_first_id" validate:"required,gt=0"`
	UserSecondID *int64 `json:"user_second_id" validate:"omitempty,gt=0,nefield=UserFirstID"`
	OrderID      *int64 `json:"order_id" validate:"omitempty,gt=0"`
	Number       *int32 `json:"number"`
}

// UpdateRoomRequest changes room metadata. Participants are fixed at creation.
type UpdateRoomRequest struct {
	OrderID *int64 `json:"order_id" validate:"omitempty,gt=0"`
	Number  *int32 `json:"number"`
}

// Message is a stored chat message.
type Message struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"user_id"`
	RoomID int64     `json:"room_id"`
	Date   time.Time `json:"date"`
	Text   string    `json:"text"`
}

// CreateMessageRequest is the payload of POST /api/messages. user_id names
// the sender and must be the caller.
type CreateMessageRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	RoomID int64  `json:"room_id" validate:"required,gt=0"`
	Text   string `json:"text" validate:"required,max=4000"`
}

// UpdateMessageRequest edits the text of a message.
type UpdateMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// Frame types exchanged over the websocket.
const (
	FrameJoinRoom       = "join_room"
	FrameSendMessage    = "send_message"
	FrameReceiveMessage = "receive_message"
	FrameJoined         = "joined"
	FrameError          = "error"
)

// ClientFrame is sent by websocket clients.
type ClientFrame struct {
	Type    string `json:"type"`
	RoomID  int64  `json:"room_id"`
	Message string `json:"message,omitempty"`
}

// ServerFrame is sent to websocket clients.
type ServerFrame struct {
	Type      string    `json:"type"`
	RoomID    int64     `json:"room_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Sender    int64     `json:"sender,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
