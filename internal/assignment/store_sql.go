package assignment

import (
	"context"
	"database/sql"
	"time"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

func (s *SQLStore) Create(ctx context.Context, a Assignment) error {
	var due sql.NullInt64
	if a.DueDate != nil {
		due = sql.NullInt64{Int64: a.DueDate.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments
		(id,test_id,student_id,assigned_by,package_id,due_date,status,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.TestID, a.StudentID, a.AssignedBy, a.PackageID, due, string(a.Status), a.CreatedAt.UnixNano())
	return err
}

func (s *SQLStore) ListForStudent(ctx context.Context, studentID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,test_id,student_id,assigned_by,package_id,due_date,status,created_at
		FROM assignments WHERE student_id=$1 ORDER BY created_at, id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		var (
			a       Assignment
			status  string
			due     sql.NullInt64
			created int64
		)
		if err := rows.Scan(&a.ID, &a.TestID, &a.StudentID, &a.AssignedBy, &a.PackageID, &due, &status, &created); err != nil {
			return nil, err
		}
		a.Status = Status(status)
		a.CreatedAt = time.Unix(0, created).UTC()
		if due.Valid {
			t := time.Unix(0, due.Int64).UTC()
			a.DueDate = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

