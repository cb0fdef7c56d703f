package scanner

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/juanbsosa/chipichipi/internal/db"
	"github.com/juanbsosa/chipichipi/internal/library"
)

type testEnv struct {
	database *sql.DB
	songs    *library.SongRepository
	roots    *library.WatchedRootRepository
	service  *Service
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	database, err := db.Bootstrap(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("bootstrap test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	songs := library.NewSongRepository(database)
	roots := library.NewWatchedRootRepository(database)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return testEnv{
		database: database,
		songs:    songs,
		roots:    roots,
		service:  NewService(songs, roots, logger),
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanDirectorySkipsCorruptAudioAndIgnoresOtherFiles(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "broken.m4a"), "not really audio")
	writeFile(t, filepath.Join(dir, "sub", "also broken.flac"), "still not audio")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored entirely")

	totals, err := env.service.ScanDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	if totals.FilesSeen != 2 {
		t.Fatalf("expected 2 candidate files, got %d", totals.FilesSeen)
	}
	if totals.Skipped != 2 {
		t.Fatalf("expected both corrupt files skipped, got %d", totals.Skipped)
	}
	if totals.Indexed != 0 {
		t.Fatalf("expected nothing indexed, got %d", totals.Indexed)
	}

	count, err := env.songs.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected empty library, got %d rows", count)
	}
}

func TestScanDirectoryRejectsNonDirectory(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.service.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "file.mp3")
	writeFile(t, file, "x")
	if _, err := env.service.ScanDirectory(context.Background(), file); err == nil {
		t.Fatal("expected error for non-directory path")
	}
}

func TestScanDirectoryRemovesStaleEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()

	ghost := library.Song{
		FilePath: filepath.Join(dir, "deleted long ago.mp3"),
		Title:    "deleted long ago",
	}
	if err := env.songs.Upsert(ctx, ghost, "2000-01-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}

	if _, err := env.service.ScanDirectory(ctx, dir); err != nil {
		t.Fatal(err)
	}

	if _, err := env.songs.GetByPath(ctx, ghost.FilePath); !errors.Is(err, library.ErrSongNotFound) {
		t.Fatalf("expected ghost entry to be removed, got %v", err)
	}
}

func TestScanAllWithoutRootsIsANoOp(t *testing.T) {
	env := newTestEnv(t)

	totals, err := env.service.ScanAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if totals != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestScanAllWalksEnabledRootsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	enabledDir := t.TempDir()
	disabledDir := t.TempDir()
	writeFile(t, filepath.Join(enabledDir, "a.mp3"), "garbage")
	writeFile(t, filepath.Join(disabledDir, "b.mp3"), "garbage")

	if _, err := env.roots.Add(ctx, enabledDir); err != nil {
		t.Fatal(err)
	}
	disabled, err := env.roots.Add(ctx, disabledDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := env.roots.SetEnabled(ctx, disabled.ID, false); err != nil {
		t.Fatal(err)
	}

	totals, err := env.service.ScanAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if totals.FilesSeen != 1 {
		t.Fatalf("expected only the enabled root to be walked, got %d files", totals.FilesSeen)
	}
}

func TestScanReportsProgressAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var phases []string
	env.service.SetReporter(func(progress Progress) {
		phases = append(phases, progress.Phase)
	})

	if _, err := env.roots.Add(ctx, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if _, err := env.service.ScanAll(ctx); err != nil {
		t.Fatal(err)
	}

	if len(phases) == 0 || phases[len(phases)-1] != "done" {
		t.Fatalf("expected a final done phase, got %v", phases)
	}

	status := env.service.GetStatus()
	if status.Running {
		t.Fatal("scan must not be marked running after completion")
	}
	if status.LastRunAt == "" {
		t.Fatal("expected LastRunAt to be recorded")
	}
	if status.LastError != "" {
		t.Fatalf("expected no error, got %q", status.LastError)
	}
}

func TestConcurrentScanGuard(t *testing.T) {
	env := newTestEnv(t)

	if err := env.service.begin(); err != nil {
		t.Fatal(err)
	}

	if _, err := env.service.ScanAll(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}

	env.service.finish(Totals{}, nil)

	if _, err := env.service.ScanAll(context.Background()); err != nil {
		t.Fatalf("scan after finish must succeed, got %v", err)
	}
}

func TestScanHonorsCancellation(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp3"), "garbage")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := env.service.ScanDirectory(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
