package exam

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/satportal/internal/db"
	"github.com/mind-engage/satportal/internal/grading"
)

// SQLStore keeps tests, questions and attempts in sqlite or postgres.
// Map-shaped attempt fields live in JSON text columns.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

const maxCASRetries = 5

func (s *SQLStore) CreateTest(ctx context.Context, t Test) error {
	structure := ""
	if t.Structure != nil {
		b, err := json.Marshal(t.Structure)
		if err != nil {
			return err
		}
		structure = string(b)
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests
		(id,title,exam_type,description,structure_json,is_published,tags_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.Title, t.ExamType, t.Description, structure, t.IsPublished, string(tags), t.CreatedAt.UnixNano())
	return err
}

const testCols = `id,title,exam_type,description,structure_json,is_published,tags_json,created_at`

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+testCols+` FROM tests WHERE id=$1`, id)
	t, err := scanTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, ErrNotFound
	}
	return t, err
}

func (s *SQLStore) ListTests(ctx context.Context) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+testCols+` FROM tests ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Test{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanTest(sc scanner) (Test, error) {
	var (
		t               Test
		structure, tags string
		createdAt       int64
	)
	if err := sc.Scan(&t.ID, &t.Title, &t.ExamType, &t.Description, &structure, &t.IsPublished, &tags, &createdAt); err != nil {
		return Test{}, err
	}
	if structure != "" {
		t.Structure = &Structure{}
		if err := json.Unmarshal([]byte(structure), t.Structure); err != nil {
			return Test{}, fmt.Errorf("test %s structure: %w", t.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return t, nil
}

func (s *SQLStore) InsertQuestions(ctx context.Context, qs []Question) (int, error) {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO questions
			(id,test_id,section,module,number,type,prompt,passage,image_url,choices_json,correct_json,difficulty,topic,explanation)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, q := range qs {
			choices, err := json.Marshal(q.Choices)
			if err != nil {
				return err
			}
			correct, err := json.Marshal(q.Correct)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, q.ID, q.TestID, q.Section, q.Module, q.Number, q.Type, q.Prompt,
				q.Passage, q.ImageURL, string(choices), string(correct), q.Difficulty, q.Topic, q.Explanation); err != nil {
				return fmt.Errorf("insert question %d: %w", q.Number, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(qs), nil
}

const questionCols = `id,test_id,section,module,number,type,prompt,passage,image_url,choices_json,correct_json,difficulty,topic,explanation`

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) ListQuestions(ctx context.Context, testID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+questionCols+` FROM questions WHERE test_id=$1`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortQuestions(out)
	return out, nil
}

func scanQuestion(sc scanner) (Question, error) {
	var q Question
	var choices, correct string
	if err := sc.Scan(&q.ID, &q.TestID, &q.Section, &q.Module, &q.Number, &q.Type, &q.Prompt, &q.Passage,
		&q.ImageURL, &choices, &correct, &q.Difficulty, &q.Topic, &q.Explanation); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
		return Question{}, fmt.Errorf("question %s choices: %w", q.ID, err)
	}
	if err := decodeJSON(correct, &q.Correct); err != nil {
		return Question{}, fmt.Errorf("question %s correct: %w", q.ID, err)
	}
	return q, nil
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	timers, err := json.Marshal(a.Timers)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	spent, err := json.Marshal(a.TimeSpent)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,student_id,test_id,status,started_at,updated_at,timers_json,answers_json,time_spent_json,score_json,version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'',0)`,
		a.ID, a.StudentID, a.TestID, string(a.Status), a.StartedAt.UnixNano(), a.UpdatedAt.UnixNano(),
		string(timers), string(answers), string(spent))
	return err
}

const attemptCols = `id,student_id,test_id,status,started_at,submitted_at,updated_at,timers_json,answers_json,time_spent_json,score_json,version`

func (s *SQLStore) GetAttempt(ctx context.Context, id, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id=$1 AND student_id=$2`, id, studentID)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) ListAttemptsByStudent(ctx context.Context, studentID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE student_id=$1 ORDER BY started_at, id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttempt(sc scanner) (Attempt, error) {
	var (
		a                             Attempt
		status                        string
		started, updated              int64
		submitted                     sql.NullInt64
		timers, answers, spent, score string
	)
	if err := sc.Scan(&a.ID, &a.StudentID, &a.TestID, &status, &started, &submitted, &updated,
		&timers, &answers, &spent, &score, &a.Version); err != nil {
		return Attempt{}, err
	}
	a.Status = Status(status)
	a.StartedAt = time.Unix(0, started).UTC()
	a.UpdatedAt = time.Unix(0, updated).UTC()
	if submitted.Valid {
		t := time.Unix(0, submitted.Int64).UTC()
		a.SubmittedAt = &t
	}
	if err := json.Unmarshal([]byte(timers), &a.Timers); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s timers: %w", a.ID, err)
	}
	if err := decodeJSON(answers, &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s answers: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(spent), &a.TimeSpent); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s time_spent: %w", a.ID, err)
	}
	if a.Answers == nil {
		a.Answers = map[string]interface{}{}
	}
	if a.TimeSpent == nil {
		a.TimeSpent = map[string]int{}
	}
	if score != "" {
		a.Score = &grading.Score{}
		if err := json.Unmarshal([]byte(score), a.Score); err != nil {
			return Attempt{}, fmt.Errorf("attempt %s score: %w", a.ID, err)
		}
	}
	return a, nil
}

// SaveAnswer merges one answer into the JSON maps with a version check,
// retrying when another writer got in first.
func (s *SQLStore) SaveAnswer(ctx context.Context, in AnswerInput, at time.Time) error {
	for i := 0; i < maxCASRetries; i++ {
		var (
			status         string
			answers, spent string
			version        int64
		)
		err := s.db.QueryRowContext(ctx,
			`SELECT status, answers_json, time_spent_json, version FROM attempts WHERE id=$1 AND student_id=$2`,
			in.AttemptID, in.StudentID).Scan(&status, &answers, &spent, &version)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if Status(status) != StatusInProgress {
			return ErrConflict
		}

		am := map[string]interface{}{}
		if err := decodeJSON(answers, &am); err != nil {
			return err
		}
		sm := map[string]int{}
		if err := json.Unmarshal([]byte(spent), &sm); err != nil {
			return err
		}
		am[in.QuestionID] = in.Answer
		sm[in.QuestionID] = in.TimeSpent
		ab, err := json.Marshal(am)
		if err != nil {
			return fmt.Errorf("encode answer: %v: %w", err, ErrInvalid)
		}
		sb, err := json.Marshal(sm)
		if err != nil {
			return err
		}

		res, err := s.db.ExecContext(ctx, `UPDATE attempts
			SET answers_json=$1, time_spent_json=$2, updated_at=$3, version=version+1
			WHERE id=$4 AND student_id=$5 AND status=$6 AND version=$7`,
			string(ab), string(sb), at.UnixNano(), in.AttemptID, in.StudentID, string(StatusInProgress), version)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}
	}
	return fmt.Errorf("attempt %s: too much write contention: %w", in.AttemptID, ErrConflict)
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, a Attempt, score grading.Score, at time.Time) error {
	sb, err := json.Marshal(score)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, submitted_at=$2, updated_at=$2, score_json=$3, version=version+1
		WHERE id=$4 AND student_id=$5 AND status=$6 AND version=$7`,
		string(StatusSubmitted), at.UnixNano(), string(sb), a.ID, a.StudentID, string(StatusInProgress), a.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM attempts WHERE id=$1 AND student_id=$2`, a.ID, a.StudentID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	case Status(status) != StatusInProgress:
		return ErrConflict
	default:
		return errStale
	}
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// decodeJSON keeps numbers as json.Number so 2 never turns into 2.0.
func decodeJSON(s string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	return dec.Decode(v)
}
