package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Song is one library entry, identified by its absolute file path. A record is
// written once per scan of a file; a rescan replaces the whole row rather than
// merging fields.
type Song struct {
	ID          int64
	FilePath    string
	Title       string
	Artist      string
	Album       string
	TrackNumber *int
	Duration    int // whole seconds, 0 when unknown
	Genre       string
}

type SongRepository struct {
	db *sql.DB
}

func NewSongRepository(database *sql.DB) *SongRepository {
	return &SongRepository{db: database}
}

// Upsert inserts the song or replaces the existing row with the same file path.
func (r *SongRepository) Upsert(ctx context.Context, song Song, scannedAt string) error {
	if song.FilePath == "" {
		return errors.New("song file path is required")
	}
	if song.Duration < 0 {
		return fmt.Errorf("negative duration %d for %s", song.Duration, song.FilePath)
	}

	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO songs(file_path, title, artist, album, track_number, duration, genre, scanned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			track_number = excluded.track_number,
			duration = excluded.duration,
			genre = excluded.genre,
			scanned_at = excluded.scanned_at`,
		song.FilePath,
		song.Title,
		song.Artist,
		song.Album,
		nullableInt(song.TrackNumber),
		song.Duration,
		nullableString(song.Genre),
		scannedAt,
	); err != nil {
		return fmt.Errorf("upsert song %s: %w", song.FilePath, err)
	}

	return nil
}

func (r *SongRepository) GetByPath(ctx context.Context, filePath string) (Song, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, file_path, title, artist, album, track_number, duration, genre
		 FROM songs WHERE file_path = ?`,
		filePath,
	)

	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song %s: %w", filePath, err)
	}

	return song, nil
}

// DeleteStaleUnder removes songs below pathPrefix whose rows were not refreshed
// at or after the cutoff. The scanner calls this after re-walking a root so
// entries for deleted files do not linger.
func (r *SongRepository) DeleteStaleUnder(ctx context.Context, pathPrefix string, cutoff string) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM songs
		 WHERE file_path LIKE ? ESCAPE '\' AND scanned_at < ?`,
		escapeLikePrefix(pathPrefix)+"%",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale songs under %s: %w", pathPrefix, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read stale song count: %w", err)
	}

	return removed, nil
}

func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}

	return count, nil
}

var ErrSongNotFound = errors.New("song not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (Song, error) {
	var song Song
	var trackNumber sql.NullInt64
	var genre sql.NullString

	err := row.Scan(
		&song.ID,
		&song.FilePath,
		&song.Title,
		&song.Artist,
		&song.Album,
		&trackNumber,
		&song.Duration,
		&genre,
	)
	if err != nil {
		return Song{}, err
	}

	if trackNumber.Valid {
		value := int(trackNumber.Int64)
		song.TrackNumber = &value
	}
	song.Genre = genre.String

	return song, nil
}

func escapeLikePrefix(prefix string) string {
	escaped := make([]byte, 0, len(prefix))
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}

	return string(escaped)
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}

	return *value
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}

	return value
}
