package rules

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"reshelf/internal/logging"
)

var (
	separatorRuns  = regexp.MustCompile(`[._\-]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

type activeRule struct {
	Rule
	re *regexp.Regexp
}

// Matcher applies prioritized extraction rules to filenames. Match may be
// called concurrently; AddRule and RemoveRule are not safe against concurrent
// Match calls and must be serialized by the caller.
type Matcher struct {
	logger *slog.Logger
	active []activeRule
}

// NewMatcher builds a matcher over the given rules, or over DefaultRules when
// none are supplied. A rule whose pattern fails to compile or whose kind has
// no extractor is kept in the listing but never fires.
func NewMatcher(logger *slog.Logger, ruleSet ...Rule) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(ruleSet) == 0 {
		ruleSet = DefaultRules()
	}
	m := &Matcher{logger: logging.NewComponentLogger(logger, "matcher")}
	for _, rule := range ruleSet {
		m.active = append(m.active, m.compile(rule))
	}
	m.sortActive()
	return m
}

func (m *Matcher) compile(rule Rule) activeRule {
	compiled := activeRule{Rule: rule}
	if _, ok := extractors[rule.Kind]; !ok {
		m.logger.Warn("rule kind unknown, rule will never fire",
			logging.String("rule", rule.Name),
			logging.String("kind", string(rule.Kind)))
		return compiled
	}
	re, err := regexp.Compile("(?i)" + rule.Pattern)
	if err != nil {
		m.logger.Warn("rule pattern failed to compile, rule will never fire",
			logging.String("rule", rule.Name),
			logging.Error(err))
		return compiled
	}
	compiled.re = re
	return compiled
}

func (m *Matcher) sortActive() {
	sort.SliceStable(m.active, func(i, j int) bool {
		return m.active[i].Priority < m.active[j].Priority
	})
}

// Match extracts structured attributes from a filename. The path and
// extension are stripped first; the remainder is consumed rule by rule in
// priority order, and whatever text survives becomes the title.
func (m *Matcher) Match(filename string) MatchResult {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	result := MatchResult{Media: MediaMovie}
	working := name
	for i := range m.active {
		rule := &m.active[i]
		if rule.Disabled || rule.re == nil {
			continue
		}
		loc := rule.re.FindStringSubmatchIndex(working)
		if loc == nil {
			continue
		}
		extractors[rule.Kind](&result, submatches(working, loc))
		result.AppliedRules = append(result.AppliedRules, rule.Name)
		working = removeSpan(working, loc[0], loc[1])
		m.logger.Debug("rule matched",
			logging.String("rule", rule.Name),
			logging.String("remaining", working))
	}
	result.Title = cleanTitle(working)
	return result
}

// AddRule registers a rule and re-sorts the active set.
func (m *Matcher) AddRule(rule Rule) {
	m.active = append(m.active, m.compile(rule))
	m.sortActive()
}

// RemoveRule drops every rule with the given name and reports whether any
// were removed.
func (m *Matcher) RemoveRule(name string) bool {
	kept := m.active[:0]
	removed := false
	for _, rule := range m.active {
		if rule.Name == name {
			removed = true
			continue
		}
		kept = append(kept, rule)
	}
	m.active = kept
	return removed
}

// Rules returns a snapshot of the active set in evaluation order.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.active))
	for i, rule := range m.active {
		out[i] = rule.Rule
	}
	return out
}

// removeSpan replaces text[start:end] with a single space so later rules
// never see claimed characters.
func removeSpan(text string, start, end int) string {
	return text[:start] + " " + text[end:]
}

// submatches expands regexp index pairs into the matched strings, with empty
// strings for groups that did not participate.
func submatches(text string, loc []int) []string {
	groups := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[loc[i]:loc[i+1]])
	}
	return groups
}

// cleanTitle collapses separator and whitespace runs to single spaces and
// trims the result.
func cleanTitle(text string) string {
	text = separatorRuns.ReplaceAllString(text, " ")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
