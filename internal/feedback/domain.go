// Package feedback stores complaints against users and public comments.
package feedback

import "time"

// Complaint is a filed grievance.
type Complaint struct {
	ID          int64     `json:"id"`
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
}

// ComplaintRequest creates or edits a complaint.
type ComplaintRequest struct {
	Description string `json:"description" validate:"required,max=4000"`
}

// UserComplaint links a complaint to the user who filed it.
type UserComplaint struct {
	ID          int64 `json:"id"`
	UserID      int64 `json:"user_id"`
	ComplaintID int64 `json:"complaint_id"`
}

// CreateUserComplaintRequest is the payload of POST /api/user-complaints.
type CreateUserComplaintRequest struct {
	UserID      int64 `json:"user_id" validate:"required,gt=0"`
	ComplaintID int64 `json:"complaint_id" validate:"required,gt=0"`
}

// UpdateUserComplaintRequest re-points a link.
type UpdateUserComplaintRequest struct {
	UserID      *int64 `json:"user_id" validate:"omitempty,gt=0"`
	ComplaintID *int64 `json:"complaint_id" validate:"omitempty,gt=0"`
}

// Comment is a public remark, optionally replying to another comment.
type Comment struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	ParentID *int64    `json:"parent_id"`
	Text     string    `json:"text"`
	Sendtime time.Time `json:"sendtime"`
}

// CreateCommentRequest is the payload of POST /api/comments.
type CreateCommentRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Text     string `json:"text" validate:"required,max=4000"`
}

// UpdateCommentRequest edits a comment's text.
type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}
