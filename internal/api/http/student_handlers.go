package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/satportal/internal/assignment"
	"github.com/mind-engage/satportal/internal/exam"
	rbac "github.com/mind-engage/satportal/internal/rbac"
)

func StartAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := formValue(w, r, "test_id")
		if !ok {
			return
		}
		res, err := svc.Start(r.Context(), testID, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type answerRequest struct {
	AttemptID string      `json:"attempt_id" validate:"required"`
	QID       string      `json:"qid" validate:"required"`
	Answer    interface{} `json:"answer"`
	TimeSpent *int        `json:"time_spent" validate:"required,gte=0"`
}

func SaveAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if !bindJSON(w, r, &req) {
			return
		}
		err := svc.RecordAnswer(r.Context(), exam.AnswerInput{
			AttemptID:  req.AttemptID,
			StudentID:  rbac.SubjectFromContext(r.Context()),
			QuestionID: req.QID,
			Answer:     req.Answer,
			TimeSpent:  *req.TimeSpent,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := formValue(w, r, "attempt_id")
		if !ok {
			return
		}
		score, err := svc.Submit(r.Context(), id, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"score": score})
	}
}

func ListAttemptsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForStudent(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetAttemptHandler only finds the caller's own attempts.
func GetAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), chi.URLParam(r, "attempt_id"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func StudentQuestionsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.StudentQuestions(r.Context(), chi.URLParam(r, "test_id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

func MyAssignmentsHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForStudent(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
