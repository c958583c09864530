package account

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/satportal/internal/db"
	"github.com/mind-engage/satportal/internal/db/dbtest"
)

func newStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn)
}

func newMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	s := NewMongoStore(dbtest.Mongo(t))
	require.NoError(t, s.EnsureIndexes(context.Background()))
	return s
}

func TestSQLStore_CreateAndGet(t *testing.T) { exerciseCreateAndGet(t, newStore(t)) }

func TestMongoStore_CreateAndGet(t *testing.T) { exerciseCreateAndGet(t, newMongoStore(t)) }

func TestSQLStore_ListByTeacher(t *testing.T) { exerciseListByTeacher(t, newStore(t)) }

func TestMongoStore_ListByTeacher(t *testing.T) { exerciseListByTeacher(t, newMongoStore(t)) }

func exerciseCreateAndGet(t *testing.T, s Store) {
	ctx := context.Background()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	u := User{ID: "u1", Name: "Ada", Email: " Ada@Example.com ", PasswordHash: "h", Role: RoleStudent, IsActive: true, TeacherID: "t1", CreatedAt: created}
	require.NoError(t, s.Create(ctx, u))

	got, err := s.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, RoleStudent, got.Role)
	assert.True(t, got.IsActive)
	assert.True(t, created.Equal(got.CreatedAt))

	got, err = s.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = s.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	u.ID = "u2"
	u.Email = "ADA@example.com"
	assert.ErrorIs(t, s.Create(ctx, u), ErrEmailTaken)
}

func exerciseListByTeacher(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Create(ctx, User{ID: "s1", Name: "Zed", Email: "z@x.io", Role: RoleStudent, TeacherID: "t1", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, User{ID: "s2", Name: "Amy", Email: "a@x.io", Role: RoleStudent, TeacherID: "t1", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, User{ID: "s3", Name: "Bob", Email: "b@x.io", Role: RoleStudent, TeacherID: "t2", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, User{ID: "t1", Name: "Al", Email: "t@x.io", Role: RoleTeacher, TeacherID: "t1", CreatedAt: now}))

	list, err := s.ListByTeacher(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amy", list[0].Name)

	list, err = s.ListByTeacher(ctx, "t3")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleTeacher.Valid())
	assert.False(t, Role("root").Valid())
}
