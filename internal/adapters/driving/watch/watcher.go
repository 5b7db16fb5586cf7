// Package watch imports text files dropped into an inbox directory as new
// document versions.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/naming"
	"github.com/custodia-labs/quill/internal/normalisers"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
const DefaultDebounce = 500 * time.Millisecond

// extensions lists the file types the watcher imports.
var extensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// Result describes one imported file.
type Result struct {
	Path  string
	DocID string
	Ref   *domain.ManifestRef
	Err   error
}

// Watcher imports new and changed text files from a directory.
// The document ID is the slug of the file's base name.
type Watcher struct {
	dir         string
	indexer     driving.Indexer
	versions    driving.VersionRepository
	normalisers driven.NormaliserRegistry
	debounce    time.Duration
	onImport    func(Result)

	mu     sync.Mutex
	hashes map[string][sha256.Size]byte
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReporter registers a callback invoked after every import attempt.
func WithReporter(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onImport = fn
	}
}

// WithVersions lets the watcher skip files whose text already is the
// latest stored version of their document, across restarts.
func WithVersions(repo driving.VersionRepository) Option {
	return func(w *Watcher) {
		w.versions = repo
	}
}

// New creates a watcher for dir.
func New(dir string, indexer driving.Indexer, registry driven.NormaliserRegistry, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         dir,
		indexer:     indexer,
		normalisers: registry,
		debounce:    DefaultDebounce,
		hashes:      make(map[string][sha256.Size]byte),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ImportExisting imports every matching file already in the directory,
// in name order.
func (w *Watcher) ImportExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && accepts(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.report(w.Import(ctx, filepath.Join(w.dir, name)))
	}
	return nil
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for .txt/.md files", w.dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.debounce {
					continue
				}
				delete(pending, path)
				w.report(w.Import(ctx, path))
			}
		}
	}
}

// handleFsEvent returns the file to import for an event, if any.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !accepts(filepath.Base(event.Name)) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

// Import saves the file as a new version of its document and indexes it.
// A file whose content has not changed since its last import, or whose text
// equals the latest stored version, is skipped.
func (w *Watcher) Import(ctx context.Context, path string) Result {
	name := filepath.Base(path)
	res := Result{Path: path, DocID: DocIDFor(name)}
	if res.DocID == "" {
		res.Err = fmt.Errorf("no document id for %s: %w", name, domain.ErrInvalidInput)
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("reading %s: %w", name, err)
		return res
	}

	sum := sha256.Sum256(data)
	w.mu.Lock()
	prev, seen := w.hashes[path]
	w.mu.Unlock()
	if seen && prev == sum {
		logger.Debug("Skipping %s: unchanged", name)
		return res
	}

	normalised, err := w.normalisers.Normalise(ctx, &domain.RawText{
		Name:     name,
		MIMEType: normalisers.MIMETypeFor(name),
		Content:  data,
	})
	if err != nil {
		res.Err = fmt.Errorf("normalising %s: %w", name, err)
		return res
	}
	if strings.TrimSpace(normalised.Text) == "" {
		res.Err = fmt.Errorf("%s is empty: %w", name, domain.ErrInvalidInput)
		return res
	}

	if w.isLatest(ctx, res.DocID, normalised.Text) {
		logger.Debug("Skipping %s: already the latest version of %s", name, res.DocID)
		w.remember(path, sum)
		return res
	}

	meta := domain.Meta{
		domain.MetaSource: domain.SourceImport,
		"file":            name,
	}
	ref, _, err := w.indexer.SaveAndIndex(ctx, res.DocID, normalised.Text, meta)
	res.Ref = ref
	if err != nil {
		res.Err = fmt.Errorf("importing %s: %w", name, err)
		return res
	}

	w.remember(path, sum)
	return res
}

// isLatest reports whether text equals the newest stored version of docID.
// Lookup failures report false so the import goes ahead.
func (w *Watcher) isLatest(ctx context.Context, docID, text string) bool {
	if w.versions == nil {
		return false
	}
	manifest, err := w.versions.Get(ctx, docID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Could not read manifest %s: %v", docID, err)
		}
		return false
	}
	latest := manifest.Latest()
	return latest != nil && latest.Text == text
}

func (w *Watcher) remember(path string, sum [sha256.Size]byte) {
	w.mu.Lock()
	w.hashes[path] = sum
	w.mu.Unlock()
}

func (w *Watcher) report(res Result) {
	switch {
	case res.Err != nil:
		logger.Warn("Import %s: %v", filepath.Base(res.Path), res.Err)
	case res.Ref != nil:
		logger.Debug("Imported %s as %s", filepath.Base(res.Path), domain.VersionTag(res.DocID, res.Ref.VersionCount))
	}
	if w.onImport != nil && (res.Err != nil || res.Ref != nil) {
		w.onImport(res)
	}
}

// DocIDFor derives the document ID from a file name.
func DocIDFor(name string) string {
	return naming.Slugify(strings.TrimSuffix(name, filepath.Ext(name)))
}

func accepts(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// ErrNotDirectory is returned by Check when the inbox path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Check verifies that dir exists and is a directory.
func Check(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}
