package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/satportal/internal/auth"
	rbac "github.com/mind-engage/satportal/internal/rbac"
	"github.com/mind-engage/satportal/internal/report"
)

// ListStudentsHandler lists users whose teacher is the caller.
func ListStudentsHandler(acc *auth.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := acc.Students(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func StudentReportHandler(agg *report.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := agg.ForStudent(r.Context(), chi.URLParam(r, "student_id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}
