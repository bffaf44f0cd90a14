package rules

// MatchResult is the structured outcome of matching one filename. Season and
// Episode are only meaningful when Media is MediaTV; they are always set
// together by a single season-episode rule.
type MatchResult struct {
	Title        string
	Media        MediaKind
	Year         string
	Season       int
	Episode      int
	TMDBID       int64
	DoubanID     string
	Resolution   string
	Edition      string
	Source       string
	VideoCodec   string
	AudioCodec   string
	ReleaseGroup string
	AppliedRules []string
}

// IsTV reports whether a season-episode rule classified the file.
func (r MatchResult) IsTV() bool {
	return r.Media == MediaTV
}
