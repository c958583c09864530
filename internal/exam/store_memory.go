package exam

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mind-engage/satportal/internal/grading"
)

type memoryStore struct {
	mu        sync.RWMutex
	tests     map[string]Test
	questions map[string]Question
	attempts  map[string]Attempt
}

// NewInMemoryStore keeps everything in maps; used by tests.
func NewInMemoryStore() Store {
	return &memoryStore{
		tests:     map[string]Test{},
		questions: map[string]Question{},
		attempts:  map[string]Attempt{},
	}
}

func (m *memoryStore) CreateTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) ListTests(_ context.Context) ([]Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Test, 0, len(m.tests))
	for _, t := range m.tests {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) InsertQuestions(_ context.Context, qs []Question) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range qs {
		m.questions[q.ID] = q
	}
	return len(qs), nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuestions(_ context.Context, testID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Question
	for _, q := range m.questions {
		if q.TestID == testID {
			out = append(out, q)
		}
	}
	sortQuestions(out)
	return out, nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id, studentID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok || a.StudentID != studentID {
		return Attempt{}, ErrNotFound
	}
	return cloneAttempt(a), nil
}

func (m *memoryStore) SaveAnswer(_ context.Context, in AnswerInput, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[in.AttemptID]
	if !ok || a.StudentID != in.StudentID {
		return ErrNotFound
	}
	if a.Status != StatusInProgress {
		return ErrConflict
	}
	a.Answers[in.QuestionID] = in.Answer
	a.TimeSpent[in.QuestionID] = in.TimeSpent
	a.UpdatedAt = at
	a.Version++
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) FinalizeAttempt(_ context.Context, in Attempt, score grading.Score, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[in.ID]
	if !ok || a.StudentID != in.StudentID {
		return ErrNotFound
	}
	if a.Status != StatusInProgress {
		return ErrConflict
	}
	if a.Version != in.Version {
		return errStale
	}
	a.Status = StatusSubmitted
	a.SubmittedAt = &at
	a.UpdatedAt = at
	a.Score = &score
	a.Version++
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) ListAttemptsByStudent(_ context.Context, studentID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if a.StudentID == studentID {
			out = append(out, cloneAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }

func cloneAttempt(a Attempt) Attempt {
	timers := make(map[string]int, len(a.Timers))
	for k, v := range a.Timers {
		timers[k] = v
	}
	answers := make(map[string]interface{}, len(a.Answers))
	for k, v := range a.Answers {
		answers[k] = v
	}
	spent := make(map[string]int, len(a.TimeSpent))
	for k, v := range a.TimeSpent {
		spent[k] = v
	}
	a.Timers, a.Answers, a.TimeSpent = timers, answers, spent
	if a.Score != nil {
		s := *a.Score
		a.Score = &s
	}
	return a
}

func sortQuestions(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Section != qs[j].Section {
			return qs[i].Section > qs[j].Section // RW before Math
		}
		if qs[i].Module != qs[j].Module {
			return qs[i].Module < qs[j].Module
		}
		return qs[i].Number < qs[j].Number
	})
}
