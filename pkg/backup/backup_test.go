package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCopiesQueue(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "queue.db")
	require.NoError(t, os.WriteFile(src, []byte("queue data"), 0o644))

	s := NewSnapshotter(src, filepath.Join(dir, "backups"))
	dst, err := s.snapshot()
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("queue data"), data)
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(dest, 0o755))

	names := []string{
		"queue_20260101_000000.db",
		"queue_20260102_000000.db",
		"queue_20260103_000000.db",
		"queue_20260104_000000.db",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dest, n), []byte("x"), 0o644))
	}

	s := NewSnapshotter(filepath.Join(dir, "queue.db"), dest)
	s.keep = 2
	require.NoError(t, s.prune())

	left, err := filepath.Glob(filepath.Join(dest, "queue_*.db"))
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Contains(t, left[0], "20260103")
	assert.Contains(t, left[1], "20260104")
}

func TestSnapshotMissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(filepath.Join(dir, "absent.db"), filepath.Join(dir, "backups"))
	_, err := s.snapshot()
	assert.Error(t, err)
}
