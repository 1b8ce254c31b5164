package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConnector_Scan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "%PDF")
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "nested", "c.png"), "png")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "skip")
	writeFile(t, filepath.Join(root, ".git", "config"), "skip")

	paths, err := New(root).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "nested", "c.png"),
	}, paths)
}

func TestConnector_ScanMissingRoot(t *testing.T) {
	_, err := New("/non/existent/path").Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")
}

func TestConnector_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		root := t.TempDir()
		connector := New(root)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(root, "new-file.txt")
		writeFile(t, path, "content")

		select {
		case change := <-changes:
			assert.Equal(t, ChangeCreated, change.Type)
			assert.Equal(t, path, change.Path)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for file change event")
		}
		require.NoError(t, connector.Close())
	})

	t.Run("debounce coalesces writes", func(t *testing.T) {
		root := t.TempDir()
		connector := New(root, WithDebounce(100*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(root, "paper.txt")
		writeFile(t, path, "one")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, _ = f.WriteString(" two")
		require.NoError(t, f.Close())

		select {
		case change := <-changes:
			assert.Equal(t, ChangeCreated, change.Type)
			assert.Equal(t, path, change.Path)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for debounced event")
		}

		select {
		case change := <-changes:
			t.Fatalf("unexpected second event %+v", change)
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("closes channel on cancel", func(t *testing.T) {
		connector := New(t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("missing root", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())
		assert.Error(t, err)
		assert.Nil(t, changes)
	})

	t.Run("closed connector", func(t *testing.T) {
		connector := New(t.TempDir())
		require.NoError(t, connector.Close())

		_, err := connector.Watch(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestHandleFsEvent(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "doc.txt")
	writeFile(t, file, "content")
	dir := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(dir, 0o755))
	hidden := filepath.Join(root, ".draft.txt")
	writeFile(t, hidden, "x")

	connector := New(root)

	tests := []struct {
		name  string
		path  string
		op    fsnotify.Op
		want  ChangeType
		empty bool
	}{
		{name: "create", path: file, op: fsnotify.Create, want: ChangeCreated},
		{name: "write", path: file, op: fsnotify.Write, want: ChangeUpdated},
		{name: "write and chmod", path: file, op: fsnotify.Write | fsnotify.Chmod, want: ChangeUpdated},
		{name: "remove", path: filepath.Join(root, "gone.txt"), op: fsnotify.Remove, want: ChangeDeleted},
		{name: "rename", path: filepath.Join(root, "old.txt"), op: fsnotify.Rename, want: ChangeDeleted},
		{name: "chmod only", path: file, op: fsnotify.Chmod, empty: true},
		{name: "directory", path: dir, op: fsnotify.Create, empty: true},
		{name: "hidden", path: hidden, op: fsnotify.Create, empty: true},
		{name: "vanished before stat", path: filepath.Join(root, "tmp.txt"), op: fsnotify.Create, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := connector.handleFsEvent(nil, fsnotify.Event{Name: tt.path, Op: tt.op})
			if tt.empty {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.want, change.Type)
			assert.Equal(t, tt.path, change.Path)
		})
	}
}

func TestHandleFsEvent_HiddenRootAllowed(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".docsight", "inbox")
	file := filepath.Join(root, "doc.txt")
	writeFile(t, file, "content")

	change := New(root).handleFsEvent(nil, fsnotify.Event{Name: file, Op: fsnotify.Create})
	require.NotNil(t, change)
	assert.Equal(t, ChangeCreated, change.Type)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.md")
	writeFile(t, path, "# Title")

	raw, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "notes.md", raw.Filename)
	assert.Equal(t, "text/markdown", raw.MIMEType)
	assert.Equal(t, []byte("# Title"), raw.Content)
	assert.Equal(t, path, raw.Metadata["path"])

	declared, err := Load(path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", declared.MIMEType)

	_, err = Load(root, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Load(filepath.Join(root, "missing.pdf"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		content  string
		expected string
	}{
		{"paper.pdf", "", "application/pdf"},
		{"PAPER.PDF", "", "application/pdf"},
		{"scan.png", "", "image/png"},
		{"scan.JPG", "", "image/jpeg"},
		{"scan.tiff", "", "image/tiff"},
		{"scan.webp", "", "image/webp"},
		{"notes.txt", "", "text/plain"},
		{"notes.md", "", "text/markdown"},
		{"data.csv", "", "text/csv"},
		{"page.html", "", "text/html"},
		{"noext", "", "text/plain"},
		{"noext", "%PDF-1.7\n", "application/pdf"},
		{"noext", "plain words", "text/plain"},
		{"file.zzzzunknown", "", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+tt.content, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectMIMEType(tt.filename, []byte(tt.content)))
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
