package exam

import (
	"time"

	"github.com/mind-engage/satportal/internal/grading"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

type Test struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title" validate:"required"`
	ExamType    string     `json:"exam_type" bson:"exam_type" validate:"omitempty,oneof=SAT ACT"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Structure   *Structure `json:"structure,omitempty" bson:"structure,omitempty"`
	IsPublished bool       `json:"is_published" bson:"is_published"`
	Tags        []string   `json:"tags" bson:"tags"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

type Question struct {
	ID          string      `json:"id" bson:"_id"`
	TestID      string      `json:"test_id" bson:"test_id"`
	Section     string      `json:"section" bson:"section"` // RW | Math
	Module      int         `json:"module" bson:"module"`   // 1 | 2
	Number      int         `json:"number" bson:"number"`
	Type        string      `json:"type" bson:"type"` // mcq | multi | gridin
	Prompt      string      `json:"prompt" bson:"prompt"`
	Passage     string      `json:"passage,omitempty" bson:"passage,omitempty"`
	ImageURL    string      `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Choices     []string    `json:"choices,omitempty" bson:"choices,omitempty"`
	Correct     interface{} `json:"correct,omitempty" bson:"correct"`
	Difficulty  string      `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
	Topic       string      `json:"topic,omitempty" bson:"topic,omitempty"`
	Explanation string      `json:"explanation,omitempty" bson:"explanation,omitempty"`
}

// StudentView drops the answer key and explanation.
func (q Question) StudentView() Question {
	q.Correct = nil
	q.Explanation = ""
	return q
}

type Attempt struct {
	ID          string                 `json:"id" bson:"_id"`
	StudentID   string                 `json:"student_id" bson:"student_id"`
	TestID      string                 `json:"test_id" bson:"test_id"`
	Status      Status                 `json:"status" bson:"status"`
	StartedAt   time.Time              `json:"started_at" bson:"started_at"`
	SubmittedAt *time.Time             `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at" bson:"updated_at"`
	Timers      map[string]int         `json:"timers" bson:"timers"`
	Answers     map[string]interface{} `json:"answers" bson:"answers"`       // question id -> answer
	TimeSpent   map[string]int         `json:"time_spent" bson:"time_spent"` // question id -> seconds
	Score       *grading.Score         `json:"score" bson:"score,omitempty"`

	// Version increments on every write; used for compare-and-swap.
	Version int64 `json:"-" bson:"version"`
}

// AnswerInput is one incremental answer write.
type AnswerInput struct {
	AttemptID  string
	StudentID  string
	QuestionID string
	Answer     interface{}
	TimeSpent  int
}
