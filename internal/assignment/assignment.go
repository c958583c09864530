package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Assignment struct {
	ID         string     `json:"id" bson:"_id"`
	StudentID  string     `json:"student_id" bson:"student_id" validate:"required"`
	AssignedBy string     `json:"assigned_by" bson:"assigned_by"`
	TestID     string     `json:"test_id" bson:"test_id" validate:"required"`
	PackageID  string     `json:"package_id,omitempty" bson:"package_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Status     Status     `json:"status" bson:"status" validate:"omitempty,oneof=assigned in_progress completed"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

type Store interface {
	Create(ctx context.Context, a Assignment) error
	ListForStudent(ctx context.Context, studentID string) ([]Assignment, error)
}

// Service fills in the bookkeeping fields of a new assignment.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Assign stores a; AssignedBy defaults to the caller.
func (s *Service) Assign(ctx context.Context, a Assignment, callerID string) (Assignment, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	if a.AssignedBy == "" {
		a.AssignedBy = callerID
	}
	if a.Status == "" {
		a.Status = StatusAssigned
	}
	if err := s.store.Create(ctx, a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *Service) ListForStudent(ctx context.Context, studentID string) ([]Assignment, error) {
	return s.store.ListForStudent(ctx, studentID)
}
