package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGet(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key := QuestionSheetKey("t1", "Math", 2, time.Unix(0, 42))
	assert.Equal(t, "questions/t1/Math-m2-42.csv", key)

	got, err := s.Put(key, strings.NewReader("number,prompt\n1,What?\n"))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	rc, err := s.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "number,prompt\n1,What?\n", string(b))
}

func TestFSStore_KeysStayInsideBase(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	got, err := s.Put("../../etc/evil.csv", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "etc/evil.csv", got)

	_, err = s.Put("", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadKey)
	_, err = s.Get("/")
	assert.ErrorIs(t, err, ErrBadKey)
}
