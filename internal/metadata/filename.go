package metadata

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinNamePartLen is the shortest artist or title a filename split may produce.
// The threshold is heuristic; it exists to reject splits like "A_1" that are
// almost never a real artist/title pair.
var MinNamePartLen = 2

// A separator run is one or more hyphen-like characters: ASCII hyphen, en dash,
// em dash. Surrounding whitespace is handled by trimming the split halves.
var hyphenRunPattern = regexp.MustCompile(`[-\x{2013}\x{2014}]+`)

var byDelimiterPattern = regexp.MustCompile(`(?i) by `)

type splitFunc func(string) (string, string, bool)

// Ordered by how common the convention is in the wild. Hyphen-separated names
// must win over the looser patterns below it; the open-parenthesis split in
// particular over-matches on titles that start with a remix or version tag.
var filenameSplitters = []splitFunc{
	splitHyphenRun,
	splitByWord,
	splitUnderscore,
	splitOpenParen,
}

// InferArtistTitle attempts to recover an (artist, title) pair from a bare
// audio filename such as "Daft Punk - One More Time.mp3". The known audio
// extension is stripped case-insensitively, then each split pattern is tried
// in priority order; the first candidate that passes validation wins. When no
// pattern produces a valid pair the result is ("", "", false), never a
// partial guess.
func InferArtistTitle(fileName string) (artist string, title string, ok bool) {
	stem := strings.TrimSpace(trimAudioExt(fileName))

	for _, split := range filenameSplitters {
		left, right, matched := split(stem)
		if !matched {
			continue
		}

		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)
		if validNamePart(left) && validNamePart(right) {
			return left, right, true
		}
	}

	return "", "", false
}

func trimAudioExt(fileName string) string {
	ext := filepath.Ext(fileName)
	if _, known := fastParsers[strings.ToLower(ext)]; known {
		return strings.TrimSuffix(fileName, ext)
	}

	return fileName
}

// splitHyphenRun splits at the first run of hyphen-like characters. Everything
// after the run stays in the title, so "Artist - Song - Extra" keeps
// "Song - Extra" intact.
func splitHyphenRun(s string) (string, string, bool) {
	loc := hyphenRunPattern.FindStringIndex(s)
	if loc == nil {
		return "", "", false
	}

	return s[:loc[0]], s[loc[1]:], true
}

func splitByWord(s string) (string, string, bool) {
	loc := byDelimiterPattern.FindStringIndex(s)
	if loc == nil {
		return "", "", false
	}

	return s[:loc[0]], s[loc[1]:], true
}

func splitUnderscore(s string) (string, string, bool) {
	i := strings.Index(s, "_")
	if i < 0 {
		return "", "", false
	}

	return s[:i], s[i+1:], true
}

func splitOpenParen(s string) (string, string, bool) {
	i := strings.Index(s, "(")
	if i < 0 {
		return "", "", false
	}

	return s[:i], s[i+1:], true
}

// validNamePart rejects candidates that are empty, shorter than
// MinNamePartLen, or made up solely of digits.
func validNamePart(s string) bool {
	if utf8.RuneCountInString(s) < MinNamePartLen {
		return false
	}

	for _, r := range s {
		if !unicode.IsDigit(r) {
			return true
		}
	}

	return false
}
