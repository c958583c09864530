package grading

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// TypedComparator grades by question type instead of by raw text:
// single-choice by scalar equality, multi-select by set equality and grid-in
// by numeric value (fractions allowed) or normalised text.
type TypedComparator struct {
	strategies map[string]Strategy
}

// Strategy matches one question type.
type Strategy interface {
	Match(q Q, answer interface{}) bool
}

func NewTypedComparator() *TypedComparator {
	return &TypedComparator{
		strategies: map[string]Strategy{
			"mcq":        scalarStrategy{},
			"mcq_single": scalarStrategy{},
			"true_false": scalarStrategy{},
			"multi":      setStrategy{},
			"mcq_multi":  setStrategy{},
			"gridin":     gridInStrategy{},
			"numeric":    gridInStrategy{},
			"short_word": gridInStrategy{},
		},
	}
}

// Match falls back to the loose comparison for unknown types.
func (c *TypedComparator) Match(q Q, answer interface{}) bool {
	s, ok := c.strategies[strings.ToLower(strings.TrimSpace(q.Type))]
	if !ok {
		return LooseComparator{}.Match(q, answer)
	}
	return s.Match(q, answer)
}

type scalarStrategy struct{}

func (scalarStrategy) Match(q Q, answer interface{}) bool {
	return scalarEqual(answer, q.Correct)
}

type setStrategy struct{}

func (setStrategy) Match(q Q, answer interface{}) bool {
	got, ok := toStringSlice(answer)
	if !ok {
		return false
	}
	want, ok := toStringSlice(q.Correct)
	if !ok {
		return false
	}
	return setEqual(toSet(got), toSet(want))
}

type gridInStrategy struct{}

func (gridInStrategy) Match(q Q, answer interface{}) bool {
	a := strings.TrimSpace(Text(answer))
	k := strings.TrimSpace(Text(q.Correct))
	if av, ok := parseNumber(a); ok {
		if kv, ok := parseNumber(k); ok {
			return closeEnough(av, kv)
		}
	}
	return normalize(a) == normalize(k)
}

func scalarEqual(a, b interface{}) bool {
	as := strings.TrimSpace(Text(a))
	bs := strings.TrimSpace(Text(b))
	if av, ok := parseNumber(as); ok {
		if bv, ok := parseNumber(bs); ok {
			return closeEnough(av, bv)
		}
	}
	return strings.EqualFold(as, bs)
}

// toStringSlice accepts decoded lists as well as keys written as text,
// either "[0, 2]" or "0||2" / "0,2".
func toStringSlice(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = canon(s)
		}
		return out, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false
		}
		if strings.HasPrefix(s, "[") {
			s = strings.ReplaceAll(s, "'", `"`)
			var arr []interface{}
			dec := json.NewDecoder(strings.NewReader(s))
			dec.UseNumber()
			if err := dec.Decode(&arr); err != nil {
				return nil, false
			}
			return toStringSlice(arr)
		}
		sep := ","
		if strings.Contains(s, "||") {
			sep = "||"
		}
		parts := strings.Split(s, sep)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, canon(p))
			}
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []string{canon(Text(v))}, true
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, canon(Text(rv.Index(i).Interface())))
	}
	return out, true
}

// canon makes 1, 1.0 and "1" the same set member.
func canon(s string) string {
	s = strings.TrimSpace(s)
	if v, ok := parseNumber(s); ok {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.ToLower(s)
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
