package messaging

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

func exerciseInbox(t *testing.T, store Store) {
	ctx := context.Background()
	svc := NewService(store)
	tick := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	m, err := svc.Send(ctx, Message{RecipientID: "student-1", Text: "  Nice work on module 2  ", RelatedAttemptID: "a1", IsRead: true}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", m.SenderID)
	assert.Equal(t, "Nice work on module 2", m.Text)
	assert.False(t, m.IsRead)

	_, err = svc.Send(ctx, Message{RecipientID: "teacher-1", Text: "Thanks!"}, "student-1")
	require.NoError(t, err)
	_, err = svc.Send(ctx, Message{RecipientID: "teacher-2", Text: "unrelated"}, "student-9")
	require.NoError(t, err)

	inbox, err := svc.Inbox(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "Nice work on module 2", inbox[0].Text)
	assert.Equal(t, "a1", inbox[0].RelatedAttemptID)
	assert.False(t, inbox[0].IsRead)
	assert.Equal(t, "Thanks!", inbox[1].Text)

	inbox, err = svc.Inbox(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestSendAndInbox(t *testing.T) {
	conn, err := db.Open(context.Background(), db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	defer conn.Close()
	exerciseInbox(t, NewSQLStore(conn))
}

func TestSendAndInbox_Mongo(t *testing.T) {
	s := NewMongoStore(dbtest.Mongo(t))
	require.NoError(t, s.EnsureIndexes(context.Background()))
	exerciseInbox(t, s)
}
