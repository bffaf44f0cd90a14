package rules

import (
	"strconv"
	"strings"
)

// Kind identifies what a rule extracts from a filename.
type Kind string

const (
	KindTMDBID           Kind = "tmdb-id"
	KindDoubanID         Kind = "douban-id"
	KindSeasonEpisode    Kind = "season-episode"
	KindSeasonEpisodeCJK Kind = "season-episode-cjk"
	KindYear             Kind = "year"
	KindResolution       Kind = "resolution"
	KindEdition          Kind = "edition"
	KindSource           Kind = "source"
	KindVideoCodec       Kind = "video-codec"
	KindAudioCodec       Kind = "audio-codec"
	KindReleaseGroup     Kind = "release-group"
)

// ParseKind canonicalizes a kind string from configuration. It reports false
// for kinds without a registered extractor.
func ParseKind(value string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	_, ok := extractors[kind]
	return kind, ok
}

// MediaKind classifies a matched item.
type MediaKind string

const (
	MediaMovie MediaKind = "movie"
	MediaTV    MediaKind = "tv"
)

// extractors maps each rule kind to its field handler. Registering a handler
// here is all that is needed to introduce a new kind; ParseKind and matcher
// construction consult the same table.
var extractors = map[Kind]func(*MatchResult, []string){
	KindTMDBID:           extractTMDBID,
	KindDoubanID:         extractDoubanID,
	KindSeasonEpisode:    extractSeasonEpisode,
	KindSeasonEpisodeCJK: extractSeasonEpisode,
	KindYear:             extractYear,
	KindResolution:       extractResolution,
	KindEdition:          extractEdition,
	KindSource:           extractSource,
	KindVideoCodec:       extractVideoCodec,
	KindAudioCodec:       extractAudioCodec,
	KindReleaseGroup:     extractReleaseGroup,
}

// Handlers assign first-match-wins: a later rule of the same kind still
// consumes its span but never overwrites an extracted field.

func extractTMDBID(result *MatchResult, groups []string) {
	if result.TMDBID != 0 {
		return
	}
	id, err := strconv.ParseInt(group(groups, 1), 10, 64)
	if err != nil {
		return
	}
	result.TMDBID = id
}

func extractDoubanID(result *MatchResult, groups []string) {
	if result.DoubanID != "" {
		return
	}
	result.DoubanID = group(groups, 1)
}

func extractSeasonEpisode(result *MatchResult, groups []string) {
	if result.Media == MediaTV {
		return
	}
	season, err := strconv.Atoi(group(groups, 1))
	if err != nil {
		return
	}
	episode, err := strconv.Atoi(group(groups, 2))
	if err != nil {
		return
	}
	result.Season = season
	result.Episode = episode
	result.Media = MediaTV
}

func extractYear(result *MatchResult, groups []string) {
	if result.Year != "" {
		return
	}
	result.Year = group(groups, 1)
}

func extractResolution(result *MatchResult, groups []string) {
	if result.Resolution != "" {
		return
	}
	result.Resolution = strings.ToUpper(group(groups, 1))
}

func extractEdition(result *MatchResult, groups []string) {
	if result.Edition != "" {
		return
	}
	result.Edition = group(groups, 1)
}

func extractSource(result *MatchResult, groups []string) {
	if result.Source != "" {
		return
	}
	result.Source = group(groups, 1)
}

func extractVideoCodec(result *MatchResult, groups []string) {
	if result.VideoCodec != "" {
		return
	}
	result.VideoCodec = group(groups, 1)
}

func extractAudioCodec(result *MatchResult, groups []string) {
	if result.AudioCodec != "" {
		return
	}
	result.AudioCodec = group(groups, 1)
}

func extractReleaseGroup(result *MatchResult, groups []string) {
	if result.ReleaseGroup != "" {
		return
	}
	result.ReleaseGroup = group(groups, 1)
}

func group(groups []string, i int) string {
	if i >= 0 && i < len(groups) {
		return groups[i]
	}
	return ""
}
