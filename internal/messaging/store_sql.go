package messaging

import (
	"context"
	"database/sql"
	"time"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

func (s *SQLStore) Create(ctx context.Context, m Message) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO messages
		(id,sender_id,recipient_id,text,related_student_id,related_attempt_id,is_read,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.SenderID, m.RecipientID, m.Text, m.RelatedStudentID, m.RelatedAttemptID, m.IsRead, m.CreatedAt.UnixNano())
	return err
}

func (s *SQLStore) ListForUser(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,sender_id,recipient_id,text,related_student_id,related_attempt_id,is_read,created_at
		FROM messages WHERE sender_id=$1 OR recipient_id=$1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Message{}
	for rows.Next() {
		var m Message
		var created int64
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Text, &m.RelatedStudentID, &m.RelatedAttemptID, &m.IsRead, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
