package naming

import (
	"fmt"
	"path/filepath"
	"strings"
)

// illegalPathChars are stripped from every interpolated free-text segment.
// Static folder literals like "Movies" and "Season" are never sanitized.
const illegalPathChars = `<>:"/\|?*`

// Namer builds Plex-style canonical library paths. The zero value uses the
// standard "Movies" and "TV Shows" top-level folders.
type Namer struct {
	MoviesDir string
	TVDir     string
}

func (n Namer) moviesDir() string {
	if n.MoviesDir == "" {
		return "Movies"
	}
	return n.MoviesDir
}

func (n Namer) tvDir() string {
	if n.TVDir == "" {
		return "TV Shows"
	}
	return n.TVDir
}

// MoviePath returns {base}/{MoviesDir}/{Title (Year)}/{Title (Year)[ - Version]}{ext}.
// Version carries the resolution or edition qualifier and is omitted when empty.
func (n Namer) MoviePath(base, title, year, version, ext string) string {
	folder := n.movieFolder(title, year)
	return filepath.Join(base, n.moviesDir(), folder, n.movieFilename(title, year, version, ext))
}

// EpisodePath returns
// {base}/{TVDir}/{Show[ (Year)]}/Season {SS}/{Show - SxxEyy[ - Episode Title]}{ext}.
// Season and episode are zero-padded to at least two digits; longer episode
// numbers are kept whole.
func (n Namer) EpisodePath(base, show, year string, season, episode int, episodeTitle, ext string) string {
	return filepath.Join(base, n.tvDir(),
		n.showFolder(show, year),
		seasonFolder(season),
		n.episodeFilename(show, season, episode, episodeTitle, ext))
}

func (n Namer) movieFolder(title, year string) string {
	return fmt.Sprintf("%s (%s)", SanitizeSegment(title), year)
}

func (n Namer) movieFilename(title, year, version, ext string) string {
	name := n.movieFolder(title, year)
	if version != "" {
		name += " - " + SanitizeSegment(version)
	}
	return name + ext
}

func (n Namer) showFolder(show, year string) string {
	safe := SanitizeSegment(show)
	if year != "" {
		return fmt.Sprintf("%s (%s)", safe, year)
	}
	return safe
}

func seasonFolder(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

func (n Namer) episodeFilename(show string, season, episode int, episodeTitle, ext string) string {
	name := fmt.Sprintf("%s - S%02dE%02d", SanitizeSegment(show), season, episode)
	if episodeTitle != "" {
		name += " - " + SanitizeSegment(episodeTitle)
	}
	return name + ext
}

// SanitizeSegment strips filesystem-illegal characters from a free-text path
// segment and trims leading and trailing spaces and dots.
func SanitizeSegment(segment string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalPathChars, r) {
			return -1
		}
		return r
	}, segment)
	return strings.Trim(cleaned, " .")
}
