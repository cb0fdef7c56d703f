package library

import (
	"context"
	"database/sql"
	"fmt"
)

// Sort orders accepted by BrowseRepository.ListSongs.
const (
	SortByArtist = "artist"
	SortByAlbum  = "album"
	SortByTitle  = "title"
)

type Stats struct {
	SongCount     int
	ArtistCount   int
	AlbumCount    int
	TotalDuration int // seconds
}

type BrowseRepository struct {
	db *sql.DB
}

func NewBrowseRepository(database *sql.DB) *BrowseRepository {
	return &BrowseRepository{db: database}
}

func (r *BrowseRepository) ListSongs(ctx context.Context, sortBy string, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = 500
	}

	var orderClause string
	switch sortBy {
	case SortByArtist:
		orderClause = "artist COLLATE NOCASE, album COLLATE NOCASE, track_number, title COLLATE NOCASE"
	case SortByAlbum:
		orderClause = "album COLLATE NOCASE, track_number, title COLLATE NOCASE"
	case SortByTitle, "":
		orderClause = "title COLLATE NOCASE, artist COLLATE NOCASE"
	default:
		return nil, fmt.Errorf("unknown sort order %q", sortBy)
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, file_path, title, artist, album, track_number, duration, genre
		 FROM songs
		 ORDER BY `+orderClause+`
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	songs := make([]Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song row: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song rows: %w", err)
	}

	return songs, nil
}

func (r *BrowseRepository) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.db.QueryRowContext(
		ctx,
		`SELECT
			COUNT(*),
			COUNT(DISTINCT artist),
			COUNT(DISTINCT album),
			COALESCE(SUM(duration), 0)
		 FROM songs`,
	).Scan(&stats.SongCount, &stats.ArtistCount, &stats.AlbumCount, &stats.TotalDuration)
	if err != nil {
		return Stats{}, fmt.Errorf("read library stats: %w", err)
	}

	return stats, nil
}
