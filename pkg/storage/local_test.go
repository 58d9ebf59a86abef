package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPlaceNamesByVideoID(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "videos"))
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "render.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	id := uuid.New()
	dst, err := store.Place(src, id)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(store.Dir(), id.String()+".mp4"), dst)
	require.True(t, store.Contains(dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "video", string(data))

	_, err = store.Place(filepath.Join(t.TempDir(), "missing.mp4"), uuid.New())
	require.Error(t, err)
}

func TestCopyFileTruncatesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "narration.wav")
	dst := filepath.Join(dir, "copy.wav")
	require.NoError(t, os.WriteFile(src, []byte("RIFF"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("much longer stale content"), 0o644))

	require.NoError(t, CopyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data))

	require.Error(t, CopyFile(filepath.Join(dir, "missing.wav"), dst))
}

func TestContainsRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.False(t, store.Contains(filepath.Join(store.Dir(), "..", "etc", "passwd")))
	require.False(t, store.Contains(store.Dir()))
	require.False(t, store.Contains("/tmp/elsewhere.mp4"))
	require.True(t, store.Contains(filepath.Join(store.Dir(), "a.mp4")))

	require.Error(t, store.Remove("/etc/passwd"))
	require.NoError(t, store.Remove(filepath.Join(store.Dir(), "never-written.mp4")))
}

func TestObjectKeyAndContentType(t *testing.T) {
	id := uuid.MustParse("6f1c1a52-4c1e-4f31-9d7a-0c1f3c1b2a11")
	require.Equal(t, "videos/6f1c1a52-4c1e-4f31-9d7a-0c1f3c1b2a11.mp4", ObjectKey(id, ".mp4"))
	require.Equal(t, "videos/6f1c1a52-4c1e-4f31-9d7a-0c1f3c1b2a11.mp4", ObjectKey(id, ""))
	require.Equal(t, "video/mp4", ContentType(".MP4"))
	require.Equal(t, "application/octet-stream", ContentType(".bin"))
}
