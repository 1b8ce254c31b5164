// Package filesystem loads documents from local disk and watches folders
// for new ones.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/logger"
)

// ErrClosed is returned when using a closed connector.
var ErrClosed = errors.New("filesystem connector closed")

// MaxFileSize bounds the files the connector will read.
const MaxFileSize = 100 << 20

// ChangeType classifies a filesystem event.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one observed file event. Path is absolute.
type Change struct {
	Type ChangeType
	Path string
}

// Connector reads files under a root directory.
type Connector struct {
	root     string
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithDebounce coalesces events on the same path until it has been quiet for d.
// Editors and copies often emit several writes for one file.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) {
		c.debounce = d
	}
}

// New creates a connector rooted at root.
func New(root string, opts ...Option) *Connector {
	c := &Connector{root: root}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the watched directory.
func (c *Connector) Root() string {
	return c.root
}

// Scan returns every visible regular file under the root, sorted by path.
func (c *Connector) Scan(ctx context.Context) ([]string, error) {
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Watch emits file changes under the root until ctx is cancelled, then
// closes the channel. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(watcher, c.root); err != nil {
		watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan Change, 64)
	go c.loop(ctx, watcher, changes)
	return changes, nil
}

// loop forwards watcher events, debouncing when configured.
func (c *Connector) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- Change) {
	defer close(out)
	defer watcher.Close()

	pending := make(map[string]pendingChange)
	var flush <-chan time.Time
	var ticker *time.Ticker
	if c.debounce > 0 {
		ticker = time.NewTicker(c.debounce / 2)
		defer ticker.Stop()
		flush = ticker.C
	}

	emit := func(ch Change) bool {
		select {
		case out <- ch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change := c.handleFsEvent(watcher, event)
			if change == nil {
				continue
			}
			if c.debounce == 0 {
				if !emit(*change) {
					return
				}
				continue
			}
			prev, seen := pending[change.Path]
			if seen && prev.change.Type == ChangeCreated && change.Type == ChangeUpdated {
				change.Type = ChangeCreated
			}
			pending[change.Path] = pendingChange{change: *change, at: time.Now()}

		case now := <-flush:
			for path, p := range pending {
				if now.Sub(p.at) < c.debounce {
					continue
				}
				delete(pending, path)
				if !emit(p.change) {
					return
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

type pendingChange struct {
	change Change
	at     time.Time
}

// handleFsEvent maps an fsnotify event to a change. Directories, hidden
// paths and chmod-only events are dropped.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) *Change {
	rel, err := filepath.Rel(c.root, event.Name)
	if err != nil || isHidden(rel) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: event.Name}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if watcher != nil {
				if err := addTree(watcher, event.Name); err != nil {
					logger.Warn("Cannot watch %s: %v", event.Name, err)
				}
			}
			return nil
		}
		return &Change{Type: ChangeCreated, Path: event.Name}

	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Change{Type: ChangeUpdated, Path: event.Name}

	default:
		return nil
	}
}

// Close stops any active watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.root)
	}
	return nil
}

// addTree watches dir and every visible subdirectory.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Load reads a file into a RawDocument. An empty mimeType is detected
// from the extension, then from the content.
func Load(path, mimeType string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, path, MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if mimeType == "" {
		mimeType = DetectMIMEType(path, content)
	}

	return &domain.RawDocument{
		Filename: filepath.Base(path),
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{"path": path},
	}, nil
}

// extensionTypes covers extensions the platform MIME table often lacks.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".pdf":      "application/pdf",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".bmp":      "image/bmp",
	".tif":      "image/tiff",
	".tiff":     "image/tiff",
	".webp":     "image/webp",
}

// DetectMIMEType returns the media type for a file without parameters.
func DetectMIMEType(filename string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return domain.BaseMIMEType(t)
		}
	}
	if len(content) == 0 {
		if ext == "" {
			return "text/plain"
		}
		return "application/octet-stream"
	}
	return domain.BaseMIMEType(http.DetectContentType(content))
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
