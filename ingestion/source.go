package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BatchSource supplies the most recent absorption batch.
type BatchSource interface {
	// Latest returns the current batch, or ErrNoBatch if none is available.
	Latest(ctx context.Context) (*Batch, error)
}

// FileSource reads the batch from a JSON file rewritten by an external producer.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

var _ BatchSource = (*FileSource)(nil)

// NewFileSource creates a FileSource reading path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		debounce: 500 * time.Millisecond,
		logger:   logger.With("component", "batch_source", "path", path),
	}
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

// Latest reads and parses the batch file.
func (s *FileSource) Latest(ctx context.Context) (*Batch, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoBatch
		}
		return nil, err
	}
	return ParseBatch(data)
}

// Watch calls onChange whenever the batch file is written or created, until
// ctx is done. Bursts of events within the debounce window collapse into one call.
// The parent directory is watched so that atomic replacements are seen.
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go s.watchLoop(ctx, watcher, onChange)
	s.logger.Info("watching absorption batch")
	return nil
}

func (s *FileSource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer watcher.Close()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	target := filepath.Clean(s.path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.logger.Debug("batch file changed", "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("file watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}
