// Package follow reads a capture file that another process is still writing.
package follow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/beastreplay/pkg/log"
)

// Reader is an io.ReadCloser over a growing file. At end of file Read blocks
// until the file is written again. It reports io.EOF once the file is removed
// or renamed, or after the idle timeout passes without a write.
type Reader struct {
	ctx     context.Context
	file    *os.File
	name    string
	watcher *fsnotify.Watcher
	idle    time.Duration
	logger  log.Logger
}

// Open opens path for following. Cancelling ctx makes a blocked Read return
// ctx.Err(). An idle of zero waits forever.
func Open(ctx context.Context, path string, idle time.Duration, logger log.Logger) (*Reader, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched rather than the file so that removal and
	// rename are reported on every platform.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	f, err := os.Open(abs)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	return &Reader{
		ctx:     ctx,
		file:    f,
		name:    abs,
		watcher: watcher,
		idle:    idle,
		logger:  logger,
	}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := r.file.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if err := r.wait(); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the file may have grown. It returns io.EOF when following
// should stop.
func (r *Reader) wait() error {
	var idle <-chan time.Time
	if r.idle > 0 {
		t := time.NewTimer(r.idle)
		defer t.Stop()
		idle = t.C
	}

	for {
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()

		case <-idle:
			r.logger.Debug("follow: idle timeout", log.String("file", r.name), log.Duration("idle", r.idle))
			return io.EOF

		case event, ok := <-r.watcher.Events:
			if !ok {
				return io.EOF
			}
			if event.Name != r.name {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				r.logger.Debug("follow: file went away", log.String("file", r.name), log.String("op", event.Op.String()))
				return io.EOF
			}
			if event.Op&fsnotify.Write != 0 {
				return nil
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return io.EOF
			}
			r.logger.Warn("follow: watcher error", log.String("file", r.name), log.Err(err))
		}
	}
}

// Close releases the file and the watcher.
func (r *Reader) Close() error {
	return errors.Join(r.watcher.Close(), r.file.Close())
}
