package exam

import (
	"context"
	"time"

	"github.com/mind-engage/satportal/internal/grading"
)

// Store is the persistence boundary for tests, the question bank and
// attempts. Implementations: SQLStore (sqlite/postgres), MongoStore and the
// in-memory store.
type Store interface {
	CreateTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error)
	ListTests(ctx context.Context) ([]Test, error)

	InsertQuestions(ctx context.Context, qs []Question) (int, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context, testID string) ([]Question, error)

	CreateAttempt(ctx context.Context, a Attempt) error
	// GetAttempt filters by id AND student; a foreign attempt is ErrNotFound.
	GetAttempt(ctx context.Context, id, studentID string) (Attempt, error)
	// SaveAnswer upserts one answer on an in-progress attempt.
	SaveAnswer(ctx context.Context, in AnswerInput, at time.Time) error
	// FinalizeAttempt moves a to submitted if it is still in progress at
	// a.Version. Returns ErrConflict if already submitted and errStale if
	// the version moved on.
	FinalizeAttempt(ctx context.Context, a Attempt, score grading.Score, at time.Time) error
	ListAttemptsByStudent(ctx context.Context, studentID string) ([]Attempt, error)

	Ping(ctx context.Context) error
}

// QuestionLookup adapts a Store to the scorer's lookup capability.
func QuestionLookup(s Store) grading.QuestionLookup {
	return grading.LookupFunc(func(ctx context.Context, id string) (grading.Q, error) {
		q, err := s.GetQuestion(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return grading.Q{}, grading.ErrQuestionNotFound
			}
			return grading.Q{}, err
		}
		return grading.Q{ID: q.ID, Type: q.Type, Correct: q.Correct}, nil
	})
}
