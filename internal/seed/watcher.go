package seed

import (
	"context"
	"crypto/sha256"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval is the delay after an fsnotify event before checking the
// checksum; editors often produce bursts of writes.
const debounceInterval = 500 * time.Millisecond

// Watcher re-runs a populate callback when the questions document changes on
// disk. Changes are detected by SHA-256 checksum, not by event alone, so
// touch-without-change stays quiet.
type Watcher struct {
	path       string
	onChange   func(ctx context.Context)
	lastDigest [sha256.Size]byte
}

func NewWatcher(path string, onChange func(ctx context.Context)) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file itself so rename-style saves keep working.
func (w *Watcher) Run(ctx context.Context) error {
	if digest, err := hashFile(w.path); err == nil {
		w.lastDigest = digest
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceInterval, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			digest, err := hashFile(w.path)
			if err != nil {
				continue
			}
			if digest == w.lastDigest {
				continue
			}
			w.lastDigest = digest
			slog.Info("questions file changed, repopulating", "path", w.path)
			w.onChange(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fsnotify error", "error", err)
		}
	}
}

func hashFile(path string) ([sha256.Size]byte, error) {
	var digest [sha256.Size]byte
	f, err := os.Open(path)
	if err != nil {
		return digest, err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return digest, err
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}
