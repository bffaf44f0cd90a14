package rules

import "reshelf/internal/config"

// Rule is a single prioritized extraction pattern. Lower priorities run
// first; ties keep insertion order. Patterns are compiled case-insensitively
// at matcher construction.
type Rule struct {
	Priority int
	Name     string
	Kind     Kind
	Pattern  string
	Disabled bool
}

// DefaultRules returns the builtin rule table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Priority: 1, Name: "tmdb-id", Kind: KindTMDBID, Pattern: `\{tmdbid=(\d+)\}`},
		{Priority: 2, Name: "douban-id", Kind: KindDoubanID, Pattern: `\{doubanid=(\d+)\}`},
		{Priority: 3, Name: "season-episode", Kind: KindSeasonEpisode, Pattern: `S(\d{1,2})E(\d{1,3})`},
		{Priority: 4, Name: "season-x-episode", Kind: KindSeasonEpisode, Pattern: `\b(\d{1,2})x(\d{2,3})\b`},
		{Priority: 5, Name: "cjk-season-episode", Kind: KindSeasonEpisodeCJK, Pattern: `第(\d{1,2})季.*?第(\d{1,4})[集話话]`},
		{Priority: 6, Name: "year", Kind: KindYear, Pattern: `[\.\s\-\(](19\d{2}|20\d{2})[\.\s\-\)]`},
		{Priority: 7, Name: "resolution", Kind: KindResolution, Pattern: `(2160p|4K|1080p|720p|480p)`},
		{Priority: 8, Name: "edition", Kind: KindEdition, Pattern: `(导演剪辑版|加长版|未删减版|Extended|Director'?s?\s*Cut|Unrated)`},
		{Priority: 9, Name: "source", Kind: KindSource, Pattern: `(BluRay|Blu-Ray|BDRip|WEB-DL|WEB\.DL|WEBDL|WEBRip|HDTV|DVDRip|PDTV|SDTV)`},
		{Priority: 10, Name: "video-codec", Kind: KindVideoCodec, Pattern: `(x264|x265|H\.?264|H\.?265|HEVC|AV1|AVC)`},
		{Priority: 11, Name: "audio-codec", Kind: KindAudioCodec, Pattern: `(DTS(?:-HD|-X)?|TrueHD|Atmos|EAC3|AC3|AAC|FLAC|DD[25]\.[01])`},
		{Priority: 12, Name: "release-group", Kind: KindReleaseGroup, Pattern: `[\s.]-([A-Za-z0-9]+)$`},
	}
}

// FromConfig merges the builtin table with user configuration. Builtins named
// in rules.disabled stay listed but inert, and enabled [[rules.extra]]
// entries are appended for the matcher to compile.
func FromConfig(cfg *config.Config) []Rule {
	if cfg == nil {
		return DefaultRules()
	}
	disabled := make(map[string]struct{}, len(cfg.Rules.Disabled))
	for _, name := range cfg.Rules.Disabled {
		disabled[name] = struct{}{}
	}
	out := make([]Rule, 0, len(DefaultRules())+len(cfg.Rules.Extra))
	for _, rule := range DefaultRules() {
		if _, off := disabled[rule.Name]; off {
			rule.Disabled = true
		}
		out = append(out, rule)
	}
	for _, extra := range cfg.Rules.Extra {
		// Unknown kinds pass through so the matcher can log them.
		kind, _ := ParseKind(extra.Kind)
		out = append(out, Rule{
			Priority: extra.Priority,
			Name:     extra.Name,
			Kind:     kind,
			Pattern:  extra.Pattern,
			Disabled: !extra.IsEnabled(),
		})
	}
	return out
}
