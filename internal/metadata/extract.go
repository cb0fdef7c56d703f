package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"

	"github.com/juanbsosa/chipichipi/internal/library"
)

// Extraction outcomes. A per-file failure never aborts a batch; callers match
// these sentinels to decide how loudly to log before skipping the file.
var (
	// ErrUnsupported means the extension is not a known audio container.
	ErrUnsupported = errors.New("unsupported audio format")

	// ErrUnreadable means both the format-specific parser and the generic
	// fallback failed to open the file.
	ErrUnreadable = errors.New("unreadable audio file")

	// ErrTagRead means the file opened fine but reading tag fields failed.
	ErrTagRead = errors.New("tag extraction failed")
)

// UnknownArtist is the placeholder some taggers write instead of leaving the
// artist field empty. It is treated the same as an absent artist.
const UnknownArtist = "Unknown Artist"

// fastParsers maps each supported extension to its strict, format-specific
// parser. Files whose extension is not listed here are rejected without being
// opened.
var fastParsers = map[string]func(io.ReadSeeker) (tag.Metadata, error){
	".mp3":  tag.ReadID3v2Tags,
	".flac": tag.ReadFLACTags,
	".m4a":  tag.ReadAtoms,
	".mp4":  tag.ReadAtoms,
}

var leadingIntegerPattern = regexp.MustCompile(`^\d+`)

// Supported reports whether the path carries a recognized audio extension.
func Supported(path string) bool {
	_, ok := fastParsers[strings.ToLower(filepath.Ext(path))]
	return ok
}

type tagFields struct {
	title   string
	artist  string
	album   string
	genre   string
	trackNo *int
	hasTags bool
}

// Extract reads the metadata of a single audio file into a library record.
//
// The format-specific parser for the file's extension is tried first; any
// failure there is swallowed and the tolerant TagLib fallback is tried before
// giving up. A file with no tag block at all yields a record whose title is
// the filename stem. When the tagged artist is missing or a placeholder, the
// filename inference pass fills artist (and title, unless one was explicitly
// tagged). The returned record is complete or nil, never partial.
func Extract(path string) (*library.Song, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := fastParsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	fileName := filepath.Base(path)
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	song := &library.Song{
		FilePath: path,
		Title:    stem,
	}

	fields, err := readFast(path, parse)
	if err != nil {
		if errors.Is(err, ErrTagRead) {
			return nil, err
		}

		fields, err = readFallback(path)
		if err != nil {
			if errors.Is(err, ErrTagRead) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrUnreadable, err)
		}
	}

	song.Duration = readDuration(path)

	if !fields.hasTags {
		return song, nil
	}

	if title := cleanTagValue(fields.title); title != "" {
		song.Title = title
	}
	song.Artist = cleanTagValue(fields.artist)
	song.Album = cleanTagValue(fields.album)
	song.Genre = cleanTagValue(fields.genre)
	song.TrackNumber = fields.trackNo

	applyFilenameRecovery(song, fileName, stem)

	return song, nil
}

// readFast opens the file with the extension's strict parser. A parse failure
// comes back as a plain error so the caller falls through to the fallback; a
// failure while reading fields from an already-parsed tag block comes back
// wrapped in ErrTagRead and is final.
func readFast(path string, parse func(io.ReadSeeker) (tag.Metadata, error)) (tagFields, error) {
	f, err := os.Open(path)
	if err != nil {
		return tagFields{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	meta, err := parseFast(f, parse)
	if err != nil {
		return tagFields{}, err
	}

	return fieldsFromMetadata(meta)
}

// parseFast converts panics into errors. dhowden/tag is known to panic on
// some malformed frames, and a corrupt file must route to the fallback parser
// instead of taking the scan down.
func parseFast(r io.ReadSeeker, parse func(io.ReadSeeker) (tag.Metadata, error)) (meta tag.Metadata, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("parse panic: %v", recovered)
		}
	}()

	return parse(r)
}

func fieldsFromMetadata(meta tag.Metadata) (fields tagFields, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			fields = tagFields{}
			err = fmt.Errorf("%w: %v", ErrTagRead, recovered)
		}
	}()

	fields.hasTags = true
	fields.title = meta.Title()
	fields.artist = meta.Artist()
	fields.album = meta.Album()
	fields.genre = meta.Genre()
	if number, _ := meta.Track(); number > 0 {
		fields.trackNo = &number
	}

	return fields, nil
}

// readFallback parses the file with TagLib, which tolerates malformed
// containers the strict parsers reject. An empty tag map means the file is
// valid audio with no tag block.
func readFallback(path string) (tagFields, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return tagFields{}, fmt.Errorf("read tags: %w", err)
	}

	if len(tags) == 0 {
		return tagFields{}, nil
	}

	fields := tagFields{hasTags: true}
	fields.title = firstTagValue(tags, taglib.Title, "TITLE")
	fields.artist = firstTagValue(tags, taglib.Artist, "ARTIST")
	fields.album = firstTagValue(tags, taglib.Album, "ALBUM")
	fields.genre = firstTagValue(tags, taglib.Genre, "GENRE")
	if number := parseNumericTag(firstTagValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK")); number != nil {
		fields.trackNo = number
	}

	return fields, nil
}

// readDuration pulls the container length from stream info, truncated to
// whole seconds. Missing stream info is not an error, just an unknown
// duration.
func readDuration(path string) int {
	properties, err := taglib.ReadProperties(path)
	if err != nil {
		return 0
	}

	if properties.Length <= 0 {
		return 0
	}

	return int(properties.Length / time.Second)
}

// applyFilenameRecovery fills in the artist from the filename when the tags
// left it empty or set to the placeholder. The inferred title only replaces a
// title that is still the filename stem; an explicitly tagged title is never
// clobbered.
func applyFilenameRecovery(song *library.Song, fileName string, stem string) {
	if song.Artist != "" && song.Artist != UnknownArtist {
		return
	}

	artist, title, ok := InferArtistTitle(fileName)
	if !ok {
		return
	}

	song.Artist = artist
	if song.Title == "" || song.Title == stem {
		song.Title = title
	}
}

// cleanTagValue normalizes a raw tag value: embedded NUL characters are
// dropped and whitespace runs collapse to a single space.
func cleanTagValue(value string) string {
	withoutNUL := strings.ReplaceAll(value, "\x00", "")
	return strings.Join(strings.Fields(withoutNUL), " ")
}

// firstTagValue returns the first non-empty value among the given keys. Tags
// can hold several values; only the first one is used.
func firstTagValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		values, ok := tags[key]
		if !ok {
			continue
		}
		for _, value := range values {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}

	return ""
}

func parseNumericTag(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	match := leadingIntegerPattern.FindString(trimmed)
	if match == "" {
		return nil
	}

	parsed, err := strconv.Atoi(match)
	if err != nil || parsed <= 0 {
		return nil
	}

	return &parsed
}
