package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// rescanDelay batches bursts of file-system events (a copy of a whole album
// fires hundreds) into a single rescan.
const rescanDelay = 2 * time.Second

type watchState struct {
	notifier *fsnotify.Watcher
	done     chan struct{}
}

// StartWatching registers every enabled watched root (and its subdirectories,
// fsnotify is not recursive) and triggers a debounced full scan whenever
// something under them changes.
func (s *Service) StartWatching(ctx context.Context) error {
	s.mu.Lock()
	if s.watch != nil {
		s.mu.Unlock()
		return errors.New("watcher already running")
	}
	s.mu.Unlock()

	roots, err := s.roots.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list watched roots: %w", err)
	}
	if len(roots) == 0 {
		return errors.New("no enabled watched folders configured")
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	for _, root := range roots {
		if err := addTreeToWatcher(notifier, root.Path); err != nil {
			notifier.Close()
			return err
		}
	}

	watch := &watchState{notifier: notifier, done: make(chan struct{})}

	s.mu.Lock()
	s.watch = watch
	s.mu.Unlock()

	go s.watchLoop(watch)

	return nil
}

func (s *Service) StopWatching() {
	s.mu.Lock()
	watch := s.watch
	s.watch = nil
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.mu.Unlock()

	if watch == nil {
		return
	}

	watch.notifier.Close()
	<-watch.done
}

func (s *Service) watchLoop(watch *watchState) {
	defer close(watch.done)

	for {
		select {
		case event, ok := <-watch.notifier.Events:
			if !ok {
				return
			}
			s.handleWatchEvent(watch, event)
		case err, ok := <-watch.notifier.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *Service) handleWatchEvent(watch *watchState, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories need their own watches before files land in them.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTreeToWatcher(watch.notifier, event.Name); err != nil {
				s.logger.Warn("could not watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	s.scheduleRescan()
}

func (s *Service) scheduleRescan() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Reset(rescanDelay)
		return
	}

	s.debounce = time.AfterFunc(rescanDelay, func() {
		s.mu.Lock()
		s.debounce = nil
		s.mu.Unlock()

		if _, err := s.ScanAll(context.Background()); err != nil && !errors.Is(err, ErrScanInProgress) {
			s.logger.Error("watch-triggered scan failed", "error", err)
		}
	})
}

// addTreeToWatcher adds path and every directory below it. Passing a file
// path is a no-op.
func addTreeToWatcher(notifier *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(dir string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if err := notifier.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		return nil
	})
}
