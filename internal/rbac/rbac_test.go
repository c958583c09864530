package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker(t *testing.T) {
	c := NewChecker(map[string][]string{
		"grader": {"attempt:*"},
		"root":   {"*"},
	})
	assert.True(t, c.Has("grader", "attempt:submit"))
	assert.False(t, c.Has("grader", "test:create"))
	assert.True(t, c.Has("root", "anything"))
	assert.False(t, c.Has("nobody", "attempt:submit"))
	assert.True(t, c.Any("grader", "test:create", "attempt:view-own"))
}

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.Has("student", "attempt:submit"))
	assert.False(t, c.Has("student", "report:view"))
	assert.False(t, c.Has("student", "test:create"))
	assert.True(t, c.Has("teacher", "report:view"))
	assert.False(t, c.Has("teacher", "attempt:submit"))
	assert.True(t, c.Has("admin", "test:create"))
	assert.True(t, c.Has("admin", "question:upload"))
	assert.False(t, c.Has("admin", "test:take"))
	assert.False(t, c.Has("admin", "attempt:view-own"))
	assert.False(t, c.Has("admin", "report:view"))
	assert.False(t, c.Has("admin", "message:send"))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("report:view")(ok)

	cases := map[string]int{"teacher": http.StatusNoContent, "admin": http.StatusForbidden, "student": http.StatusForbidden, "": http.StatusForbidden}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if role != "" {
			req = req.WithContext(WithRole(context.Background(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	either := RequireAny("test:view", "test:create")(ok)
	rec := httptest.NewRecorder()
	either.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithRole(context.Background(), "teacher")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSubjectContext(t *testing.T) {
	ctx := WithSubject(context.Background(), "u1")
	assert.Equal(t, "u1", SubjectFromContext(ctx))
	assert.Equal(t, "", RoleFromContext(ctx))
}
