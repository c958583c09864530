package grading

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// LooseComparator matches when the trimmed textual forms of the answer and
// the key are equal, regardless of question type. A numeric answer 2 and a
// string key "2" match; a list answer [0, 1] matches the key "[0, 1]".
type LooseComparator struct{}

func (LooseComparator) Match(q Q, answer interface{}) bool {
	return strings.TrimSpace(Text(answer)) == strings.TrimSpace(Text(q.Correct))
}

// Text renders a decoded JSON/BSON value the way answer keys have always been
// written by the CSV importer: integers without a fraction, floats with one,
// lists as "[a, b]" with quoted strings, None/True/False for null and bools.
func Text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := t.Float64(); err == nil {
			return floatText(f)
		}
		return t.String()
	case float64:
		return floatText(t)
	case float32:
		return floatText(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = elemText(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		keys := rv.MapKeys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, elemText(k.Interface())+": "+elemText(rv.MapIndex(k).Interface()))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case reflect.Ptr:
		if rv.IsNil() {
			return "None"
		}
		return Text(rv.Elem().Interface())
	}
	return strconv.Quote(reflect.TypeOf(v).String())
}

// elemText renders a value nested inside a list or map; strings are quoted.
func elemText(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return Text(v)
	}
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func floatText(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
