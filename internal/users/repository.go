package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, surname, email, role, COALESCE(file, ''), COALESCE(image, ''), description, rating, region, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Role, &u.File, &u.Image, &u.Description, &u.Rating, &u.Region, &u.CreatedAt)
	return u, err
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %d not found", shared.ErrNotFound, what, id)
	}
	return err
}

func constraintErr(err error, what string) error {
	switch {
	case shared.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", shared.ErrDuplicate, what)
	case shared.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced row does not exist", shared.ErrInvalidInput)
	}
	return err
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser returns a single user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return User{}, notFound(err, "user", id)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of p.
func (r *Repository) UpdateUser(ctx context.Context, id int64, p userPatch) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `UPDATE users SET
			name = COALESCE($2, name),
			surname = COALESCE($3, surname),
			email = COALESCE($4, email),
			password_hash = COALESCE($5, password_hash),
			description = COALESCE($6, description),
			region = COALESCE($7, region)
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Name, p.Surname, p.Email, p.PasswordHash, p.Description, p.Region))
	if err != nil {
		return User{}, constraintErr(notFound(err, "user", id), "email")
	}
	return u, nil
}

// DeleteUser removes the account and returns its stored file keys.
func (r *Repository) DeleteUser(ctx context.Context, id int64) (file, image string, err error) {
	err = r.pool.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING COALESCE(file, ''), COALESCE(image, '')`, id).Scan(&file, &image)
	if err != nil {
		return "", "", notFound(err, "user", id)
	}
	return file, image, nil
}

// SwapFile stores key in column (file or image) and returns the previous key.
func (r *Repository) SwapFile(ctx context.Context, id int64, column, key string) (string, error) {
	if column != "file" && column != "image" {
		return "", fmt.Errorf("users: unknown file column %q", column)
	}
	var old string
	err := r.pool.QueryRow(ctx, `WITH prev AS (SELECT `+column+` AS v FROM users WHERE id = $1 FOR UPDATE)
		UPDATE users SET `+column+` = NULLIF($2, '') WHERE id = $1
		RETURNING COALESCE((SELECT v FROM prev), '')`, id, key).Scan(&old)
	if err != nil {
		return "", notFound(err, "user", id)
	}
	return old, nil
}

// LinkSkill attaches skillID to userID.
func (r *Repository) LinkSkill(ctx context.Context, userID, skillID int64) (UsersSkill, error) {
	return r.CreateUsersSkill(ctx, CreateUsersSkillRequest{UserID: userID, SkillID: skillID})
}

// UnlinkSkill detaches skillID from userID.
func (r *Repository) UnlinkSkill(ctx context.Context, userID, skillID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users_skills WHERE user_id = $1 AND skill_id = $2`, userID, skillID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: skill %d is not linked to user %d", shared.ErrNotFound, skillID, userID)
	}
	return nil
}

// ListUsersSkills returns every user/skill link.
func (r *Repository) ListUsersSkills(ctx context.Context) ([]UsersSkill, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, skill_id FROM users_skills ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []UsersSkill{}
	for rows.Next() {
		var us UsersSkill
		if err := rows.Scan(&us.ID, &us.UserID, &us.SkillID); err != nil {
			return nil, err
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

// GetUsersSkill returns one link.
func (r *Repository) GetUsersSkill(ctx context.Context, id int64) (UsersSkill, error) {
	var us UsersSkill
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, skill_id FROM users_skills WHERE id = $1`, id).Scan(&us.ID, &us.UserID, &us.SkillID)
	if err != nil {
		return UsersSkill{}, notFound(err, "users skill", id)
	}
	return us, nil
}

// CreateUsersSkill inserts a link.
func (r *Repository) CreateUsersSkill(ctx context.Context, req CreateUsersSkillRequest) (UsersSkill, error) {
	var us UsersSkill
	err := r.pool.QueryRow(ctx, `INSERT INTO users_skills (user_id, skill_id) VALUES ($1, $2) RETURNING id, user_id, skill_id`,
		req.UserID, req.SkillID).Scan(&us.ID, &us.UserID, &us.SkillID)
	if err != nil {
		return UsersSkill{}, constraintErr(err, "skill link")
	}
	return us, nil
}

// UpdateUsersSkill changes the linked skill.
func (r *Repository) UpdateUsersSkill(ctx context.Context, id, skillID int64) (UsersSkill, error) {
	var us UsersSkill
	err := r.pool.QueryRow(ctx, `UPDATE users_skills SET skill_id = $2 WHERE id = $1 RETURNING id, user_id, skill_id`,
		id, skillID).Scan(&us.ID, &us.UserID, &us.SkillID)
	if err != nil {
		return UsersSkill{}, constraintErr(notFound(err, "users skill", id), "skill link")
	}
	return us, nil
}

// DeleteUsersSkill removes a link.
func (r *Repository) DeleteUsersSkill(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users_skills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: users skill %d not found", shared.ErrNotFound, id)
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
