package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/satportal/internal/db"
	"github.com/mind-engage/satportal/internal/grading"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// exerciseStore checks the attempt state machine every Store must honour.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s)

	got, err := s.GetTest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Practice 1", got.Title)
	_, err = s.GetTest(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	qs, err := s.ListQuestions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "q2", qs[0].ID) // RW first
	_, err = s.GetQuestion(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	started := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	a := Attempt{
		ID: "a1", StudentID: "alice", TestID: "t1", Status: StatusInProgress,
		StartedAt: started, UpdatedAt: started,
		Timers:  ResolveTimers(nil),
		Answers: map[string]interface{}{}, TimeSpent: map[string]int{},
	}
	require.NoError(t, s.CreateAttempt(ctx, a))

	_, err = s.GetAttempt(ctx, "a1", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	err = s.SaveAnswer(ctx, AnswerInput{AttemptID: "a1", StudentID: "bob", QuestionID: "q1", Answer: "2"}, started)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveAnswer(ctx, AnswerInput{AttemptID: "a1", StudentID: "alice", QuestionID: "q1", Answer: "2", TimeSpent: 40}, started.Add(time.Minute)))
	require.NoError(t, s.SaveAnswer(ctx, AnswerInput{AttemptID: "a1", StudentID: "alice", QuestionID: "q2", Answer: "B", TimeSpent: 10}, started.Add(2*time.Minute)))

	cur, err := s.GetAttempt(ctx, "a1", "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"q1": "2", "q2": "B"}, cur.Answers)
	assert.Equal(t, map[string]int{"q1": 40, "q2": 10}, cur.TimeSpent)
	assert.Equal(t, a.Timers, cur.Timers)
	assert.Equal(t, started.Add(2*time.Minute), cur.UpdatedAt)

	stale := cur
	stale.Version--
	err = s.FinalizeAttempt(ctx, stale, grading.Score{}, started)
	assert.ErrorIs(t, err, errStale)

	sc := grading.Score{Raw: 2, Total: 2, Percent: 100}
	done := started.Add(time.Hour)
	require.NoError(t, s.FinalizeAttempt(ctx, cur, sc, done))

	err = s.FinalizeAttempt(ctx, cur, sc, done)
	assert.ErrorIs(t, err, ErrConflict)
	err = s.SaveAnswer(ctx, AnswerInput{AttemptID: "a1", StudentID: "alice", QuestionID: "q1", Answer: "3"}, done)
	assert.ErrorIs(t, err, ErrConflict)

	final, err := s.GetAttempt(ctx, "a1", "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, final.Status)
	require.NotNil(t, final.Score)
	assert.Equal(t, sc, *final.Score)
	require.NotNil(t, final.SubmittedAt)
	assert.Equal(t, done, *final.SubmittedAt)
	assert.Equal(t, "2", final.Answers["q1"])

	list, err := s.ListAttemptsByStudent(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.ListAttemptsByStudent(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Ping(ctx))
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestSQLStore(t *testing.T) {
	exerciseStore(t, NewSQLStore(openSQLite(t)))
}

func TestSQLStore_NumbersKeepTheirShape(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(openSQLite(t))
	seed(t, s)

	q1, err := s.GetQuestion(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "2", grading.Text(q1.Correct))

	now := time.Now().UTC()
	require.NoError(t, s.CreateAttempt(ctx, Attempt{ID: "a1", StudentID: "alice", TestID: "t1", Status: StatusInProgress,
		StartedAt: now, UpdatedAt: now, Timers: ResolveTimers(nil)}))
	require.NoError(t, s.SaveAnswer(ctx, AnswerInput{AttemptID: "a1", StudentID: "alice", QuestionID: "q1", Answer: json.Number("2")}, now))
	require.NoError(t, s.SaveAnswer(ctx, AnswerInput{AttemptID: "a1", StudentID: "alice", QuestionID: "q9", Answer: []interface{}{json.Number("0"), json.Number("2")}}, now))

	a, err := s.GetAttempt(ctx, "a1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "2", grading.Text(a.Answers["q1"]))
	assert.Equal(t, "[0, 2]", grading.Text(a.Answers["q9"]))

	score, err := grading.NewScorer().Score(ctx, a.Answers, QuestionLookup(s))
	require.NoError(t, err)
	assert.Equal(t, grading.Score{Raw: 1, Total: 1, Percent: 100}, score)
}

func TestSQLStore_TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(openSQLite(t))
	in := Test{ID: "t9", Title: "Full", ExamType: "SAT", IsPublished: true, Tags: []string{"full", "2025"},
		Structure: DefaultStructure(), CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.CreateTest(ctx, in))

	out, err := s.GetTest(ctx, "t9")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	all, err := s.ListTests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
