package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/juanbsosa/chipichipi/internal/library"
	"github.com/juanbsosa/chipichipi/internal/metadata"
)

var ErrScanInProgress = errors.New("scan already in progress")

type Progress struct {
	Phase   string
	Message string
	Percent int
}

type Status struct {
	Running       bool
	LastRunAt     string
	LastError     string
	LastFilesSeen int
	LastIndexed   int
	LastSkipped   int
}

type Totals struct {
	FilesSeen int
	Indexed   int
	Skipped   int
}

// Reporter receives progress updates during a scan. Optional.
type Reporter func(Progress)

// Service walks watched roots, runs metadata extraction on every candidate
// audio file and persists the results. At most one scan runs at a time.
type Service struct {
	mu            sync.Mutex
	running       bool
	lastRun       time.Time
	lastError     string
	lastFilesSeen int
	lastIndexed   int
	lastSkipped   int
	report        Reporter

	logger *slog.Logger
	songs  *library.SongRepository
	roots  *library.WatchedRootRepository

	watch    *watchState
	debounce *time.Timer
}

func NewService(songs *library.SongRepository, roots *library.WatchedRootRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{songs: songs, roots: roots, logger: logger}
}

func (s *Service) SetReporter(report Reporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
}

func (s *Service) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:       s.running,
		LastError:     s.lastError,
		LastFilesSeen: s.lastFilesSeen,
		LastIndexed:   s.lastIndexed,
		LastSkipped:   s.lastSkipped,
	}
	if !s.lastRun.IsZero() {
		status.LastRunAt = s.lastRun.UTC().Format(time.RFC3339)
	}

	return status
}

// ScanAll walks every enabled watched root. It runs synchronously and returns
// the scan totals; a second scan started while one is running fails with
// ErrScanInProgress.
func (s *Service) ScanAll(ctx context.Context) (Totals, error) {
	if err := s.begin(); err != nil {
		return Totals{}, err
	}

	totals, err := s.scanAllRoots(ctx)
	s.finish(totals, err)

	return totals, err
}

// ScanDirectory scans a single directory that need not be a watched root.
func (s *Service) ScanDirectory(ctx context.Context, dir string) (Totals, error) {
	cleaned, err := library.NormalizePath(dir)
	if err != nil {
		return Totals{}, err
	}

	info, err := os.Stat(cleaned)
	if err != nil || !info.IsDir() {
		return Totals{}, fmt.Errorf("%s is not a valid directory", cleaned)
	}

	if err := s.begin(); err != nil {
		return Totals{}, err
	}

	s.emitProgress(Progress{Phase: "scan", Message: "Scanning " + cleaned, Percent: 10})

	scannedAt := time.Now().UTC().Format(time.RFC3339)
	totals, err := s.scanRoot(ctx, cleaned, scannedAt)
	if err == nil {
		err = s.cleanupStale(ctx, cleaned, scannedAt)
	}
	s.finish(totals, err)
	if err != nil {
		return totals, err
	}

	s.emitDone(totals)
	return totals, nil
}

func (s *Service) scanAllRoots(ctx context.Context) (Totals, error) {
	s.emitProgress(Progress{Phase: "start", Message: "Starting full scan", Percent: 5})

	roots, err := s.roots.ListEnabled(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("list watched roots: %w", err)
	}

	if len(roots) == 0 {
		s.emitProgress(Progress{Phase: "done", Message: "No enabled watched folders configured", Percent: 100})
		return Totals{}, nil
	}

	scannedAt := time.Now().UTC().Format(time.RFC3339)
	totals := Totals{}
	for i, root := range roots {
		percent := 10 + ((i * 70) / len(roots))
		s.emitProgress(Progress{Phase: "scan", Message: "Scanning " + root.Path, Percent: percent})

		rootTotals, scanErr := s.scanRoot(ctx, root.Path, scannedAt)
		totals.FilesSeen += rootTotals.FilesSeen
		totals.Indexed += rootTotals.Indexed
		totals.Skipped += rootTotals.Skipped
		if scanErr != nil {
			return totals, scanErr
		}
	}

	s.emitProgress(Progress{Phase: "cleanup", Message: "Removing stale library entries", Percent: 90})
	for _, root := range roots {
		if err := s.cleanupStale(ctx, root.Path, scannedAt); err != nil {
			return totals, err
		}
	}

	s.emitDone(totals)
	return totals, nil
}

// scanRoot walks one directory tree. Unreadable files are logged and counted
// as skipped; only database failures or cancellation abort the scan.
func (s *Service) scanRoot(ctx context.Context, rootPath string, scannedAt string) (Totals, error) {
	totals := Totals{}

	err := filepath.WalkDir(rootPath, func(path string, entry fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if walkErr != nil {
			totals.Skipped++
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		if !metadata.Supported(path) {
			return nil
		}

		totals.FilesSeen++

		song, extractErr := metadata.Extract(path)
		if extractErr != nil {
			totals.Skipped++
			switch {
			case errors.Is(extractErr, metadata.ErrTagRead):
				s.logger.Error("tag extraction failed", "path", path, "error", extractErr)
			default:
				s.logger.Warn("skipping unreadable file", "path", path, "error", extractErr)
			}
			return nil
		}

		if upsertErr := s.songs.Upsert(ctx, *song, scannedAt); upsertErr != nil {
			return upsertErr
		}
		totals.Indexed++

		return nil
	})
	if err != nil {
		return totals, fmt.Errorf("walk root %s: %w", rootPath, err)
	}

	return totals, nil
}

func (s *Service) cleanupStale(ctx context.Context, rootPath string, scannedAt string) error {
	prefix := rootPath
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	removed, err := s.songs.DeleteStaleUnder(ctx, prefix, scannedAt)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("removed stale library entries", "root", rootPath, "count", removed)
	}

	return nil
}

func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrScanInProgress
	}
	s.running = true
	s.lastError = ""

	return nil
}

func (s *Service) finish(totals Totals, err error) {
	s.mu.Lock()
	s.running = false
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.lastRun = time.Now().UTC()
		s.lastFilesSeen = totals.FilesSeen
		s.lastIndexed = totals.Indexed
		s.lastSkipped = totals.Skipped
	}
	s.mu.Unlock()

	if err != nil {
		s.emitProgress(Progress{Phase: "failed", Message: err.Error(), Percent: 100})
	}
}

func (s *Service) emitDone(totals Totals) {
	s.emitProgress(Progress{
		Phase: "done",
		Message: fmt.Sprintf(
			"Scan complete: %d files seen, %d indexed, %d skipped",
			totals.FilesSeen,
			totals.Indexed,
			totals.Skipped,
		),
		Percent: 100,
	})
}

func (s *Service) emitProgress(progress Progress) {
	s.mu.Lock()
	report := s.report
	s.mu.Unlock()

	if report != nil {
		report(progress)
	}
}
