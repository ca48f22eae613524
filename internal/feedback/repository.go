package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for feedback.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

func wrap(err error, what string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	case shared.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", shared.ErrDuplicate, what)
	case shared.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced row does not exist", shared.ErrInvalidInput)
	}
	return err
}

func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) exec(ctx context.Context, sql, what string, id int64) error {
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return wrap(err, what, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	}
	return nil
}

func scanComplaint(row pgx.Row) (Complaint, error) {
	var c Complaint
	err := row.Scan(&c.ID, &c.Time, &c.Description)
	return c, err
}

// ListComplaints returns complaints, newest first.
func (r *Repository) ListComplaints(ctx context.Context) ([]Complaint, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, time, description FROM complaints ORDER BY time DESC, id DESC`)
	return collect(rows, err, scanComplaint)
}

// GetComplaint returns one complaint.
func (r *Repository) GetComplaint(ctx context.Context, id int64) (Complaint, error) {
	c, err := scanComplaint(r.pool.QueryRow(ctx, `SELECT id, time, description FROM complaints WHERE id = $1`, id))
	return c, wrap(err, "complaint", id)
}

// CreateComplaint files a complaint.
func (r *Repository) CreateComplaint(ctx context.Context, description string) (Complaint, error) {
	c, err := scanComplaint(r.pool.QueryRow(ctx, `INSERT INTO complaints (description) VALUES ($1)
		RETURNING id, time, description`, strings.TrimSpace(description)))
	return c, wrap(err, "complaint", 0)
}

// UpdateComplaint edits a complaint.
func (r *Repository) UpdateComplaint(ctx context.Context, id int64, description string) (Complaint, error) {
	c, err := scanComplaint(r.pool.QueryRow(ctx, `UPDATE complaints SET description = $2 WHERE id = $1
		RETURNING id, time, description`, id, strings.TrimSpace(description)))
	return c, wrap(err, "complaint", id)
}

// DeleteComplaint removes a complaint and its links.
func (r *Repository) DeleteComplaint(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM complaints WHERE id = $1`, "complaint", id)
}

func scanUserComplaint(row pgx.Row) (UserComplaint, error) {
	var uc UserComplaint
	err := row.Scan(&uc.ID, &uc.UserID, &uc.ComplaintID)
	return uc, err
}

// ListUserComplaints returns every link.
func (r *Repository) ListUserComplaints(ctx context.Context) ([]UserComplaint, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, complaint_id FROM user_complaints ORDER BY id`)
	return collect(rows, err, scanUserComplaint)
}

// GetUserComplaint returns one link.
func (r *Repository) GetUserComplaint(ctx context.Context, id int64) (UserComplaint, error) {
	uc, err := scanUserComplaint(r.pool.QueryRow(ctx, `SELECT id, user_id, complaint_id FROM user_complaints WHERE id = $1`, id))
	return uc, wrap(err, "user complaint", id)
}

// CreateUserComplaint links a complaint to a user.
func (r *Repository) CreateUserComplaint(ctx context.Context, req CreateUserComplaintRequest) (UserComplaint, error) {
	uc, err := scanUserComplaint(r.pool.QueryRow(ctx, `INSERT INTO user_complaints (user_id, complaint_id) VALUES ($1, $2)
		RETURNING id, user_id, complaint_id`, req.UserID, req.ComplaintID))
	return uc, wrap(err, "user complaint", 0)
}

// UpdateUserComplaint changes the provided columns.
func (r *Repository) UpdateUserComplaint(ctx context.Context, id int64, req UpdateUserComplaintRequest) (UserComplaint, error) {
	uc, err := scanUserComplaint(r.pool.QueryRow(ctx, `UPDATE user_complaints SET
		user_id = COALESCE($2, user_id),
		complaint_id = COALESCE($3, complaint_id)
		WHERE id = $1 RETURNING id, user_id, complaint_id`, id, req.UserID, req.ComplaintID))
	return uc, wrap(err, "user complaint", id)
}

// DeleteUserComplaint removes a link.
func (r *Repository) DeleteUserComplaint(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM user_complaints WHERE id = $1`, "user complaint", id)
}

const commentColumns = `id, user_id, parent_id, text, sendtime`

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.UserID, &c.ParentID, &c.Text, &c.Sendtime)
	return c, err
}

// ListComments returns comments in posting order.
func (r *Repository) ListComments(ctx context.Context) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY sendtime, id`)
	return collect(rows, err, scanComment)
}

// GetComment returns one comment.
func (r *Repository) GetComment(ctx context.Context, id int64) (Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	return c, wrap(err, "comment", id)
}

// CreateComment posts a comment.
func (r *Repository) CreateComment(ctx context.Context, req CreateCommentRequest) (Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `INSERT INTO comments (user_id, parent_id, text) VALUES ($1, $2, $3)
		RETURNING `+commentColumns, req.UserID, req.ParentID, strings.TrimSpace(req.Text)))
	return c, wrap(err, "comment", 0)
}

// UpdateComment edits a comment's text.
func (r *Repository) UpdateComment(ctx context.Context, id int64, text string) (Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `UPDATE comments SET text = $2 WHERE id = $1
		RETURNING `+commentColumns, id, strings.TrimSpace(text)))
	return c, wrap(err, "comment", id)
}

// DeleteComment removes a comment and its replies.
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM comments WHERE id = $1`, "comment", id)
}
