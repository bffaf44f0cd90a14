// Package rules turns messy media filenames into structured attributes.
//
// A Matcher walks an ordered rule table: each rule is a prioritized
// case-insensitive pattern tied to an extraction kind (ids, season/episode,
// year, resolution, edition, source, codecs, release group). Matched spans
// are consumed so lower-priority rules never re-claim the same characters,
// and the text left over after every rule has run becomes the title.
//
// The builtin table handles common release naming (scene tags, {tmdbid=}
// tokens, CJK episode markers); configuration can disable builtins or append
// extra rules. Broken user patterns are logged and skipped, never fatal.
package rules
