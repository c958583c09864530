package grading

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bank(qs ...Q) QuestionLookup {
	m := map[string]Q{}
	for _, q := range qs {
		m[q.ID] = q
	}
	return LookupFunc(func(_ context.Context, id string) (Q, error) {
		q, ok := m[id]
		if !ok {
			return Q{}, ErrQuestionNotFound
		}
		return q, nil
	})
}

func TestScorer_CrossTypeTextEquality(t *testing.T) {
	s := NewScorer()
	got, err := s.Score(context.Background(),
		map[string]interface{}{"q1": "2", "q2": "B"},
		bank(Q{ID: "q1", Type: "gridin", Correct: 2}, Q{ID: "q2", Type: "mcq", Correct: "B"}),
	)
	require.NoError(t, err)
	assert.Equal(t, Score{Raw: 2, Total: 2, Percent: 100.0}, got)
}

func TestScorer_NoAnswers(t *testing.T) {
	got, err := NewScorer().Score(context.Background(), map[string]interface{}{}, bank())
	require.NoError(t, err)
	assert.Equal(t, Score{Raw: 0, Total: 0, Percent: 0.0}, got)
}

func TestScorer_UnknownQuestionsAreSkipped(t *testing.T) {
	got, err := NewScorer().Score(context.Background(),
		map[string]interface{}{"q1": "A", "ghost": "A", "q2": "C"},
		bank(Q{ID: "q1", Correct: "A"}, Q{ID: "q2", Correct: "D"}, Q{ID: "q3", Correct: "B"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Raw)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 50.0, got.Percent)
}

func TestScorer_LookupErrorAborts(t *testing.T) {
	boom := errors.New("store down")
	lookup := LookupFunc(func(context.Context, string) (Q, error) { return Q{}, boom })
	_, err := NewScorer().Score(context.Background(), map[string]interface{}{"q1": "A"}, lookup)
	require.ErrorIs(t, err, boom)
}

func TestScorer_PercentRounding(t *testing.T) {
	got, err := NewScorer().Score(context.Background(),
		map[string]interface{}{"a": "1", "b": "1", "c": "0"},
		bank(Q{ID: "a", Correct: "1"}, Q{ID: "b", Correct: "0"}, Q{ID: "c", Correct: "1"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 33.33, got.Percent)
}

func TestScorer_WithTypedComparator(t *testing.T) {
	s := NewScorer(WithComparator(NewTypedComparator()))
	got, err := s.Score(context.Background(),
		map[string]interface{}{"m": []interface{}{"2", "0"}},
		bank(Q{ID: "m", Type: "multi", Correct: "[0, 2]"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Raw)
}

func TestLooseComparator(t *testing.T) {
	num := func(s string) json.Number { return json.Number(s) }
	tests := []struct {
		name    string
		answer  interface{}
		correct interface{}
		want    bool
	}{
		{name: "string vs int", answer: "2", correct: 2, want: true},
		{name: "json number vs string", answer: num("2"), correct: "2", want: true},
		{name: "surrounding whitespace", answer: "  B ", correct: "B\n", want: true},
		{name: "case sensitive", answer: "b", correct: "B", want: false},
		{name: "float vs int text", answer: num("2.0"), correct: "2", want: false},
		{name: "list vs rendered key", answer: []interface{}{num("0"), num("1")}, correct: "[0, 1]", want: true},
		{name: "list order matters", answer: []interface{}{num("1"), num("0")}, correct: "[0, 1]", want: false},
		{name: "list of strings", answer: []interface{}{"A", "C"}, correct: "['A', 'C']", want: true},
		{name: "null answer", answer: nil, correct: "None", want: true},
		{name: "bool answer", answer: true, correct: "True", want: true},
		{name: "mismatch", answer: "A", correct: "B", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LooseComparator{}.Match(Q{Correct: tc.correct}, tc.answer)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTypedComparator(t *testing.T) {
	c := NewTypedComparator()
	tests := []struct {
		name string
		q    Q
		ans  interface{}
		want bool
	}{
		{name: "mcq index number vs text", q: Q{Type: "mcq", Correct: "2"}, ans: 2.0, want: true},
		{name: "mcq wrong", q: Q{Type: "mcq", Correct: "2"}, ans: "1", want: false},
		{name: "multi order insensitive", q: Q{Type: "multi", Correct: []interface{}{0, 2}}, ans: []interface{}{2.0, 0.0}, want: true},
		{name: "multi missing one", q: Q{Type: "multi", Correct: "0||2"}, ans: []interface{}{"0"}, want: false},
		{name: "multi extra one", q: Q{Type: "multi", Correct: "[0, 2]"}, ans: []interface{}{"0", "1", "2"}, want: false},
		{name: "multi scalar answer", q: Q{Type: "multi", Correct: "[1]"}, ans: "1", want: true},
		{name: "gridin fraction vs decimal", q: Q{Type: "gridin", Correct: "3/4"}, ans: ".75", want: true},
		{name: "gridin text", q: Q{Type: "gridin", Correct: "Photosynthesis"}, ans: " photosynthesis ", want: true},
		{name: "gridin wrong", q: Q{Type: "gridin", Correct: "12"}, ans: "13", want: false},
		{name: "unknown type falls back", q: Q{Type: "essay", Correct: "x"}, ans: "x", want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Match(tc.q, tc.ans))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 66.67, Percent(2, 3))
	assert.Equal(t, 100.0, Percent(4, 4))
}

func TestComparatorByName(t *testing.T) {
	c, err := ComparatorByName("")
	require.NoError(t, err)
	assert.IsType(t, LooseComparator{}, c)

	c, err = ComparatorByName(ComparatorLoose)
	require.NoError(t, err)
	assert.IsType(t, LooseComparator{}, c)

	c, err = ComparatorByName(ComparatorTyped)
	require.NoError(t, err)
	assert.IsType(t, &TypedComparator{}, c)

	// the two disagree on 2.0 against a key of "2"
	q := Q{ID: "q1", Type: "gridin", Correct: "2"}
	assert.False(t, LooseComparator{}.Match(q, json.Number("2.0")))
	assert.True(t, c.Match(q, json.Number("2.0")))

	_, err = ComparatorByName("fuzzy")
	assert.Error(t, err)
}
