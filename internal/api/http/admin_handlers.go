package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mind-engage/satportal/internal/assignment"
	"github.com/mind-engage/satportal/internal/exam"
	rbac "github.com/mind-engage/satportal/internal/rbac"
	"github.com/mind-engage/satportal/internal/storage"
)

const maxSheetBytes = 8 << 20

func CreateTestHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t exam.Test
		if !bindJSON(w, r, &t) {
			return
		}
		created, err := svc.CreateTest(r.Context(), t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": created.ID})
	}
}

func ListTestsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListTests(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// UploadQuestionsHandler imports a CSV sheet (multipart: test_id, section,
// module, file). Imported sheets are archived in bs when bs is set.
func UploadQuestionsHandler(svc *exam.Service, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes+1<<16)
		if err := r.ParseMultipartForm(maxSheetBytes); err != nil {
			badRequest(w, "multipart form required")
			return
		}
		testID, ok := formValue(w, r, "test_id")
		if !ok {
			return
		}
		section, ok := formValue(w, r, "section")
		if !ok {
			return
		}
		module, err := strconv.Atoi(r.FormValue("module"))
		if err != nil {
			badRequest(w, "module must be a number")
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			badRequest(w, "file required")
			return
		}
		defer f.Close()
		sheet, err := io.ReadAll(f)
		if err != nil {
			badRequest(w, "read file: "+err.Error())
			return
		}

		n, err := svc.ImportQuestions(r.Context(), testID, section, module, bytes.NewReader(sheet))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if bs != nil {
			key := storage.QuestionSheetKey(testID, section, module, time.Now().UTC())
			if _, err := bs.Put(key, bytes.NewReader(sheet)); err != nil {
				writeError(w, r, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
	}
}

// AssignHandler assigns a test to a student. The test must exist.
func AssignHandler(tests *exam.Service, assignments *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a assignment.Assignment
		if !bindJSON(w, r, &a) {
			return
		}
		if _, err := tests.GetTest(r.Context(), a.TestID); err != nil {
			writeError(w, r, err)
			return
		}
		created, err := assignments.Assign(r.Context(), a, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": created.ID})
	}
}
