package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mind-engage/satportal/internal/db"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

func (s *SQLStore) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users
		(id,email,name,role,password_hash,is_active,teacher_id,avatar_url,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, normalizeEmail(u.Email), u.Name, string(u.Role), u.PasswordHash, u.IsActive, u.TeacherID, u.AvatarURL, u.CreatedAt.UnixNano())
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

const userCols = `id,email,name,role,password_hash,is_active,teacher_id,avatar_url,created_at`

func (s *SQLStore) GetByID(ctx context.Context, id string) (User, error) {
	return s.getOne(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
}

func (s *SQLStore) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.getOne(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, normalizeEmail(email))
}

func (s *SQLStore) getOne(ctx context.Context, q string, arg string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLStore) ListByTeacher(ctx context.Context, teacherID string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users
		WHERE teacher_id=$1 AND role=$2 ORDER BY name, id`, teacherID, string(RoleStudent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanUser(sc scanner) (User, error) {
	var u User
	var role string
	var created int64
	if err := sc.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.IsActive, &u.TeacherID, &u.AvatarURL, &created); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
