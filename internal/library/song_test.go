package library

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/juanbsosa/chipichipi/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Bootstrap(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("bootstrap test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	repo := NewSongRepository(database)

	song := Song{
		FilePath: "/music/Daft Punk - One More Time.mp3",
		Title:    "One More Time",
		Artist:   "Daft Punk",
		Album:    "Discovery",
		Duration: 320,
	}
	if err := repo.Upsert(ctx, song, "2026-08-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}

	song.Title = "One More Time (Remastered)"
	song.Duration = 321
	if err := repo.Upsert(ctx, song, "2026-08-02T00:00:00Z"); err != nil {
		t.Fatal(err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected one row after rescan of the same path, got %d", count)
	}

	stored, err := repo.GetByPath(ctx, song.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "One More Time (Remastered)" {
		t.Fatalf("expected replaced title, got %q", stored.Title)
	}
	if stored.Duration != 321 {
		t.Fatalf("expected replaced duration, got %d", stored.Duration)
	}
}

func TestUpsertRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewSongRepository(openTestDB(t))

	if err := repo.Upsert(ctx, Song{Title: "no path"}, "2026-08-01T00:00:00Z"); err == nil {
		t.Fatal("expected error for song without file path")
	}

	bad := Song{FilePath: "/music/x.mp3", Title: "x", Duration: -1}
	if err := repo.Upsert(ctx, bad, "2026-08-01T00:00:00Z"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestGetByPathNotFound(t *testing.T) {
	repo := NewSongRepository(openTestDB(t))

	_, err := repo.GetByPath(context.Background(), "/music/absent.mp3")
	if !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestDeleteStaleUnderRemovesOnlyOldRowsBelowPrefix(t *testing.T) {
	ctx := context.Background()
	repo := NewSongRepository(openTestDB(t))

	seed := []struct {
		path      string
		scannedAt string
	}{
		{"/music/old.mp3", "2026-08-01T00:00:00Z"},
		{"/music/fresh.mp3", "2026-08-02T00:00:00Z"},
		{"/other/old.mp3", "2026-08-01T00:00:00Z"},
	}
	for _, row := range seed {
		song := Song{FilePath: row.path, Title: filepath.Base(row.path)}
		if err := repo.Upsert(ctx, song, row.scannedAt); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := repo.DeleteStaleUnder(ctx, "/music/", "2026-08-02T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected one stale row removed, got %d", removed)
	}

	if _, err := repo.GetByPath(ctx, "/music/fresh.mp3"); err != nil {
		t.Fatalf("fresh row must survive: %v", err)
	}
	if _, err := repo.GetByPath(ctx, "/other/old.mp3"); err != nil {
		t.Fatalf("row outside prefix must survive: %v", err)
	}
	if _, err := repo.GetByPath(ctx, "/music/old.mp3"); !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected stale row to be gone, got %v", err)
	}
}

func TestEscapeLikePrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/music/", "/music/"},
		{"/50% mixes/", "/50\\% mixes/"},
		{"/under_scores/", "/under\\_scores/"},
		{`C:\music\`, `C:\\music\\`},
	}

	for _, tc := range cases {
		if got := escapeLikePrefix(tc.in); got != tc.want {
			t.Fatalf("escapeLikePrefix(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
