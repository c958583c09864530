// Package report rolls a student's attempts up into the teacher view.
package report

import (
	"context"

	"github.com/mind-engage/satportal/internal/exam"
	"github.com/mind-engage/satportal/internal/grading"
)

type Summary struct {
	Count          int     `json:"count"`
	AveragePercent float64 `json:"average_percent"`
}

type Report struct {
	Summary  Summary        `json:"summary"`
	Attempts []exam.Attempt `json:"attempts"`
}

// AttemptLister is the one capability the aggregator needs.
type AttemptLister interface {
	ListForStudent(ctx context.Context, studentID string) ([]exam.Attempt, error)
}

// Summarize averages score percents. An unscored attempt counts as 0.
func Summarize(attempts []exam.Attempt) Summary {
	if len(attempts) == 0 {
		return Summary{}
	}
	var sum float64
	for _, a := range attempts {
		if a.Score != nil {
			sum += a.Score.Percent
		}
	}
	return Summary{
		Count:          len(attempts),
		AveragePercent: grading.Round2(sum / float64(len(attempts))),
	}
}

type Aggregator struct {
	attempts AttemptLister
}

func NewAggregator(l AttemptLister) *Aggregator { return &Aggregator{attempts: l} }

func (a *Aggregator) ForStudent(ctx context.Context, studentID string) (Report, error) {
	list, err := a.attempts.ListForStudent(ctx, studentID)
	if err != nil {
		return Report{}, err
	}
	if list == nil {
		list = []exam.Attempt{}
	}
	return Report{Summary: Summarize(list), Attempts: list}, nil
}
