package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrQuestionNotFound is returned by a QuestionLookup when the id does not
// resolve to a question. The scorer skips such answers.
var ErrQuestionNotFound = errors.New("question not found")

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID      string
	Type    string // mcq | multi | gridin
	Correct interface{}
}

// QuestionLookup resolves question ids against the question bank.
type QuestionLookup interface {
	LookupQuestion(ctx context.Context, id string) (Q, error)
}

// LookupFunc adapts a function to QuestionLookup.
type LookupFunc func(ctx context.Context, id string) (Q, error)

func (f LookupFunc) LookupQuestion(ctx context.Context, id string) (Q, error) { return f(ctx, id) }

// Comparator decides whether a submitted answer matches a question's key.
type Comparator interface {
	Match(q Q, answer interface{}) bool
}

// Score is the outcome of grading a whole attempt.
type Score struct {
	Raw     int     `json:"raw" bson:"raw"`
	Total   int     `json:"total" bson:"total"`
	Percent float64 `json:"percent" bson:"percent"`
}

// Scorer counts correct answers over an attempt's answer map.
type Scorer struct {
	cmp Comparator
}

type Option func(*config)

type config struct {
	cmp Comparator
}

// WithComparator replaces the default loose comparator.
func WithComparator(c Comparator) Option { return func(cfg *config) { cfg.cmp = c } }

func NewScorer(opts ...Option) *Scorer {
	cfg := &config{cmp: LooseComparator{}}
	for _, o := range opts {
		o(cfg)
	}
	return &Scorer{cmp: cfg.cmp}
}

// Comparator names accepted by ComparatorByName.
const (
	ComparatorLoose = "loose"
	ComparatorTyped = "typed"
)

// ComparatorByName resolves a configured comparator name. Empty means loose.
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "", ComparatorLoose:
		return LooseComparator{}, nil
	case ComparatorTyped:
		return NewTypedComparator(), nil
	}
	return nil, fmt.Errorf("grading: unknown comparator %q", name)
}

// Score grades answers. Answers whose question cannot be found are ignored and
// do not count toward Total; any other lookup error aborts scoring.
func (s *Scorer) Score(ctx context.Context, answers map[string]interface{}, lookup QuestionLookup) (Score, error) {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sc Score
	for _, id := range ids {
		q, err := lookup.LookupQuestion(ctx, id)
		if errors.Is(err, ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return Score{}, err
		}
		sc.Total++
		if s.cmp.Match(q, answers[id]) {
			sc.Raw++
		}
	}
	sc.Percent = Percent(sc.Raw, sc.Total)
	return sc, nil
}

// Percent returns raw/total*100 rounded to two decimals, or 0 when total is 0.
func Percent(raw, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(raw) / float64(total) * 100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
