package exam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/satportal/internal/grading"
	"github.com/mind-engage/satportal/internal/lock"
	"github.com/mind-engage/satportal/internal/metrics"
	syncx "github.com/mind-engage/satportal/internal/sync"
)

const maxSubmitRetries = 5

// Service owns the attempt lifecycle and the test/question bank operations
// built on top of a Store.
type Service struct {
	store  Store
	scorer *grading.Scorer
	locker lock.Locker
	events syncx.Recorder
	siteID string
	now    func() time.Time
}

type Option func(*Service)

func WithScorer(sc *grading.Scorer) Option { return func(s *Service) { s.scorer = sc } }

// WithLocker sets the per-attempt exclusive scope. Use a RedisLocker when more
// than one gateway replica shares the store.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

func WithRecorder(r syncx.Recorder, siteID string) Option {
	return func(s *Service) { s.events, s.siteID = r, siteID }
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		scorer: grading.NewScorer(),
		locker: lock.NewKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartResult is what a student gets back from Start.
type StartResult struct {
	AttemptID string         `json:"attempt_id"`
	Timers    map[string]int `json:"timers"`
}

// Start opens a new in-progress attempt for studentID on testID.
func (s *Service) Start(ctx context.Context, testID, studentID string) (StartResult, error) {
	if strings.TrimSpace(testID) == "" || studentID == "" {
		return StartResult{}, fmt.Errorf("test_id and student are required: %w", ErrInvalid)
	}
	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return StartResult{}, err
	}
	now := s.now()
	a := Attempt{
		ID:        uuid.NewString(),
		StudentID: studentID,
		TestID:    t.ID,
		Status:    StatusInProgress,
		StartedAt: now,
		UpdatedAt: now,
		Timers:    ResolveTimers(t.Structure),
		Answers:   map[string]interface{}{},
		TimeSpent: map[string]int{},
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return StartResult{}, fmt.Errorf("create attempt: %w", err)
	}
	metrics.AttemptStarted()
	return StartResult{AttemptID: a.ID, Timers: a.Timers}, nil
}

// RecordAnswer upserts one answer. Timers are never touched.
func (s *Service) RecordAnswer(ctx context.Context, in AnswerInput) (err error) {
	defer func() { metrics.AnswerRecorded(err) }()

	if in.AttemptID == "" || strings.TrimSpace(in.QuestionID) == "" {
		return fmt.Errorf("attempt_id and qid are required: %w", ErrInvalid)
	}
	if in.TimeSpent < 0 {
		return fmt.Errorf("time_spent must not be negative: %w", ErrInvalid)
	}
	unlock, err := s.locker.Lock(ctx, in.AttemptID)
	if err != nil {
		return fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	return s.store.SaveAnswer(ctx, in, s.now())
}

// Submit scores the attempt and freezes it. A second submit is ErrConflict.
func (s *Service) Submit(ctx context.Context, attemptID, studentID string) (score grading.Score, err error) {
	defer func() { metrics.AttemptSubmitted(score.Percent, err) }()

	if attemptID == "" {
		return grading.Score{}, fmt.Errorf("attempt_id is required: %w", ErrInvalid)
	}
	unlock, err := s.locker.Lock(ctx, attemptID)
	if err != nil {
		return grading.Score{}, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	lookup := QuestionLookup(s.store)
	for i := 0; i < maxSubmitRetries; i++ {
		a, err := s.store.GetAttempt(ctx, attemptID, studentID)
		if err != nil {
			return grading.Score{}, err
		}
		if a.Status != StatusInProgress {
			return grading.Score{}, ErrConflict
		}
		sc, err := s.scorer.Score(ctx, a.Answers, lookup)
		if err != nil {
			return grading.Score{}, fmt.Errorf("score attempt: %w", err)
		}
		at := s.now()
		err = s.store.FinalizeAttempt(ctx, a, sc, at)
		if errors.Is(err, errStale) {
			// an answer landed between read and write; score again
			continue
		}
		if err != nil {
			return grading.Score{}, err
		}
		s.recordSubmitted(ctx, a, sc, at)
		return sc, nil
	}
	return grading.Score{}, fmt.Errorf("attempt %s kept changing during submit: %w", attemptID, ErrConflict)
}

func (s *Service) recordSubmitted(ctx context.Context, a Attempt, sc grading.Score, at time.Time) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(s.siteID, syncx.TypeAttemptSubmitted, a.ID, map[string]interface{}{
		"attempt_id":   a.ID,
		"student_id":   a.StudentID,
		"test_id":      a.TestID,
		"score":        sc,
		"submitted_at": at,
	})
	if err == nil {
		err = s.events.Record(ctx, e)
	}
	if err != nil {
		log.Printf("[EXAM] record %s for attempt %s: %v", syncx.TypeAttemptSubmitted, a.ID, err)
	}
}

// Get returns the caller's own attempt.
func (s *Service) Get(ctx context.Context, attemptID, studentID string) (Attempt, error) {
	return s.store.GetAttempt(ctx, attemptID, studentID)
}

func (s *Service) ListForStudent(ctx context.Context, studentID string) ([]Attempt, error) {
	return s.store.ListAttemptsByStudent(ctx, studentID)
}

// ---- tests & question bank ----

func (s *Service) CreateTest(ctx context.Context, t Test) (Test, error) {
	if strings.TrimSpace(t.Title) == "" {
		return Test{}, fmt.Errorf("title is required: %w", ErrInvalid)
	}
	if err := t.Structure.Validate(); err != nil {
		return Test{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if err := s.store.CreateTest(ctx, t); err != nil {
		return Test{}, fmt.Errorf("create test: %w", err)
	}
	return t, nil
}

func (s *Service) GetTest(ctx context.Context, id string) (Test, error) {
	return s.store.GetTest(ctx, id)
}

func (s *Service) ListTests(ctx context.Context) ([]Test, error) {
	return s.store.ListTests(ctx)
}

// ImportQuestions parses a CSV sheet into testID's section/module.
func (s *Service) ImportQuestions(ctx context.Context, testID, section string, module int, r io.Reader) (int, error) {
	if _, err := s.store.GetTest(ctx, testID); err != nil {
		return 0, err
	}
	qs, err := ParseQuestionsCSV(r, testID, section, module)
	if err != nil {
		return 0, err
	}
	if len(qs) == 0 {
		return 0, nil
	}
	for i := range qs {
		qs[i].ID = uuid.NewString()
	}
	return s.store.InsertQuestions(ctx, qs)
}

// StudentQuestions lists a test's questions without the answer key.
func (s *Service) StudentQuestions(ctx context.Context, testID string) ([]Question, error) {
	if _, err := s.store.GetTest(ctx, testID); err != nil {
		return nil, err
	}
	qs, err := s.store.ListQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.StudentView()
	}
	return out, nil
}

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }
