package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/satportal/internal/account"
	"github.com/mind-engage/satportal/internal/auth"
	rbac "github.com/mind-engage/satportal/internal/rbac"
)

// RegisterHandler takes form fields name, email, password and role.
func RegisterHandler(acc *auth.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := auth.Registration{
			Name:      strings.TrimSpace(r.FormValue("name")),
			Email:     strings.TrimSpace(r.FormValue("email")),
			Password:  r.FormValue("password"),
			Role:      account.Role(strings.TrimSpace(r.FormValue("role"))),
			TeacherID: strings.TrimSpace(r.FormValue("teacher_id")),
		}
		if err := validate.Struct(in); err != nil {
			writeError(w, r, err)
			return
		}
		tok, err := acc.Register(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tok)
	}
}

// TokenHandler is the password grant: form username (the email) and password.
func TokenHandler(acc *auth.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := formValue(w, r, "username")
		if !ok {
			return
		}
		pass := r.FormValue("password")
		if pass == "" {
			badRequest(w, "password required")
			return
		}
		tok, err := acc.Login(r.Context(), user, pass)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tok)
	}
}

func MeHandler(acc *auth.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := acc.Me(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
