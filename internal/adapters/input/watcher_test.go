package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_DetectsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workbook.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w := NewFileWatcher(path, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _ := w.Start(ctx)
	defer w.Stop()

	// Give the watcher time to register before touching the file.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case got, ok := <-paths:
		require.True(t, ok)
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification received")
	}
}

func TestFileWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workbook.xlsx")
	sibling := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w := NewFileWatcher(path, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _ := w.Start(ctx)
	defer w.Stop()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(sibling, []byte("noise"), 0o644))

	select {
	case got := <-paths:
		t.Fatalf("unexpected notification for %q", got)
	case <-time.After(400 * time.Millisecond):
	}

	// The watched file still triggers after the noise.
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	select {
	case got, ok := <-paths:
		require.True(t, ok)
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification received")
	}
}

func TestFileWatcher_StopClosesChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workbook.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w := NewFileWatcher(path, 0)
	paths, _ := w.Start(context.Background())

	assert.True(t, w.IsRunning())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())

	select {
	case _, ok := <-paths:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("paths channel not closed after Stop")
	}
}

func TestFileWatcher_StartWhileRunning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workbook.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w := NewFileWatcher(path, 0)
	defer w.Stop()

	w.Start(context.Background())
	second, _ := w.Start(context.Background())

	_, ok := <-second
	assert.False(t, ok, "second Start returns a closed channel")
}

func TestNewFileWatcherDefaultsDebounce(t *testing.T) {
	w := NewFileWatcher("x.xlsx", 0)
	assert.Equal(t, 500*time.Millisecond, w.debounce)

	w = NewFileWatcher("x.xlsx", 2*time.Second)
	assert.Equal(t, 2*time.Second, w.debounce)
}
