package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/satportal/internal/account"
	authmw "github.com/mind-engage/satportal/internal/auth/middleware"
	"github.com/mind-engage/satportal/internal/db"
)

func newAccounts(t *testing.T) (*Accounts, *authmw.AuthService) {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	tokens := authmw.NewAuthService("test-secret", time.Hour)
	a := NewAccounts(account.NewSQLStore(conn), tokens)
	a.cost = bcrypt.MinCost
	return a, tokens
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	a, tokens := newAccounts(t)

	tok, err := a.Register(ctx, Registration{Name: "Ada", Email: "ada@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	claims, err := tokens.Parse(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "student", claims.Role)

	_, err = a.Register(ctx, Registration{Name: "Ada 2", Email: "ADA@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, account.ErrEmailTaken)

	tok, err = a.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	claims, err = tokens.Parse(tok.AccessToken)
	require.NoError(t, err)

	me, err := a.Me(ctx, claims.Sub)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)

	_, err = a.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = a.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestRegister_UnknownRole(t *testing.T) {
	a, _ := newAccounts(t)
	_, err := a.Register(context.Background(), Registration{Name: "x", Email: "x@y.z", Password: "secret1", Role: "root"})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
	_, err = a.Register(context.Background(), Registration{Name: "x", Email: "x@y.z", Password: "secret1", Role: account.RoleAdmin})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	a, _ := newAccounts(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, a.EnsureAdmin(ctx, "root@example.com", string(hash)))
	require.NoError(t, a.EnsureAdmin(ctx, "root@example.com", string(hash)))
	require.NoError(t, a.EnsureAdmin(ctx, "", ""))

	tok, err := a.Login(ctx, "root@example.com", "admin-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
}

func TestStudents(t *testing.T) {
	ctx := context.Background()
	a, _ := newAccounts(t)
	_, err := a.Register(ctx, Registration{Name: "S", Email: "s@x.io", Password: "secret1", TeacherID: "t1"})
	require.NoError(t, err)
	list, err := a.Students(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
