package exam

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var questionTypes = map[string]bool{"mcq": true, "multi": true, "gridin": true}

// ParseQuestionsCSV reads a question sheet with the header
// number,type,prompt,choices,correct,difficulty,topic,explanation
// (passage and image_url are optional extra columns). Every row is placed in
// the given test, section and module. The correct column is kept verbatim.
func ParseQuestionsCSV(r io.Reader, testID, section string, module int) ([]Question, error) {
	if section != SectionRW && section != SectionMath {
		return nil, fmt.Errorf("section %q: %w", section, ErrInvalid)
	}
	if module < 1 || module > modulesPerSection {
		return nil, fmt.Errorf("module %d: %w", module, ErrInvalid)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %v: %w", err, ErrInvalid)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var out []Question
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %v: %w", line, err, ErrInvalid)
		}

		q := Question{
			TestID:      testID,
			Section:     section,
			Module:      module,
			Type:        "mcq",
			Prompt:      get(rec, "prompt"),
			Passage:     get(rec, "passage"),
			ImageURL:    get(rec, "image_url"),
			Difficulty:  "medium",
			Topic:       get(rec, "topic"),
			Explanation: get(rec, "explanation"),
		}
		if n := strings.TrimSpace(get(rec, "number")); n != "" {
			if q.Number, err = strconv.Atoi(n); err != nil {
				return nil, fmt.Errorf("csv line %d: number %q: %w", line, n, ErrInvalid)
			}
		}
		if t := strings.TrimSpace(get(rec, "type")); t != "" {
			if !questionTypes[t] {
				return nil, fmt.Errorf("csv line %d: type %q: %w", line, t, ErrInvalid)
			}
			q.Type = t
		}
		if d := strings.TrimSpace(get(rec, "difficulty")); d != "" {
			q.Difficulty = d
		}
		if c, ok := col["correct"]; ok && c < len(rec) {
			q.Correct = rec[c]
		}
		q.Choices = parseChoices(get(rec, "choices"))
		out = append(out, q)
	}
	return out, nil
}

// parseChoices accepts a JSON array or a "||" separated list.
func parseChoices(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		var arr []interface{}
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			out := make([]string, len(arr))
			for i, v := range arr {
				if s, ok := v.(string); ok {
					out[i] = s
				} else {
					out[i] = fmt.Sprint(v)
				}
			}
			return out
		}
	}
	parts := strings.Split(raw, "||")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
