package os

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "rtedge.lock")
	a, err := NewFileLock(path)
	require.NoError(t, err)
	b, err := NewFileLock(path)
	require.NoError(t, err)
	assert.Equal(t, path, a.Path())

	require.NoError(t, a.TryLock())
	assert.ErrorIs(t, b.TryLock(), ErrLocked)
	require.NoError(t, a.Unlock())
	require.NoError(t, b.TryLock())
	require.NoError(t, b.Unlock())
}
