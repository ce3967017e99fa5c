package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runStoreContract(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("a", "1"))
	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// Overwrite, not merge.
	require.NoError(t, s.Set("a", "2"))
	v, _, _ = s.Get("a")
	assert.Equal(t, "2", v)

	require.NoError(t, s.Remove("a"))
	_, ok, err = s.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Remove of an absent key is not an error.
	require.NoError(t, s.Remove("a"))

	require.NoError(t, s.Set("x", "1"))
	require.NoError(t, s.Set("y", "2"))
	require.NoError(t, s.Clear())
	_, ok, _ = s.Get("x")
	assert.False(t, ok)
	_, ok, _ = s.Get("y")
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path, zap.NewNop())
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := OpenSQLite(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s1.Set(SubjectKey(), "stu-1"))

	s2, err := OpenSQLite(path, zap.NewNop())
	require.NoError(t, err)
	v, ok, err := s2.Get(SubjectKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stu-1", v)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "dropout:subject_id", SubjectKey())
	assert.Equal(t, "dropout:form_completed", FormCompletedKey())
	assert.Equal(t, "dropout:streak:s1", StreakKey("s1"))
}
