package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body keeping numbers as json.Number, so answers
// like 2 and 2.0 reach the scorer as typed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bad json: %v", err)
	}
	return nil
}

func bindJSON(w http.ResponseWriter, r *http.Request, v interface{}) (ok bool) {
	if err := decodeJSON(w, r, v); err != nil {
		badRequest(w, err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// formValue returns a trimmed form field, writing 400 when it is required
// and missing.
func formValue(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		badRequest(w, name+" required")
		return "", false
	}
	return v, true
}
