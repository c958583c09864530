package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID               string    `json:"id" bson:"_id"`
	SenderID         string    `json:"sender_id" bson:"sender_id"`
	RecipientID      string    `json:"recipient_id" bson:"recipient_id" validate:"required"`
	Text             string    `json:"text" bson:"text" validate:"required,max=5000"`
	RelatedStudentID string    `json:"related_student_id,omitempty" bson:"related_student_id,omitempty"`
	RelatedAttemptID string    `json:"related_attempt_id,omitempty" bson:"related_attempt_id,omitempty"`
	IsRead           bool      `json:"is_read" bson:"is_read"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}

type Store interface {
	Create(ctx context.Context, m Message) error
	// ListForUser returns messages the user sent or received, newest last.
	ListForUser(ctx context.Context, userID string) ([]Message, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Send stores m with the caller as sender.
func (s *Service) Send(ctx context.Context, m Message, senderID string) (Message, error) {
	m.ID = uuid.NewString()
	m.SenderID = senderID
	m.Text = strings.TrimSpace(m.Text)
	m.IsRead = false
	m.CreatedAt = s.now()
	if err := s.store.Create(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (s *Service) Inbox(ctx context.Context, userID string) ([]Message, error) {
	return s.store.ListForUser(ctx, userID)
}
