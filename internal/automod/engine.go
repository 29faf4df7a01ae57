package automod

import (
	"strings"
)

// Seed values for freshly created settings rows. Setting a custom list back
// to its seed value switches the global merge off even when the unite flag
// is on; any other value merges the global list behind the custom terms.
const (
	BlacklistSentinel = "fuck"
	BadLinksSentinel  = "azino777cashcazino-slots.ru"
)

type MatchKind string

const (
	MatchBlacklist MatchKind = "blacklist"
	MatchBadLink   MatchKind = "badlink"
)

// Match reports the first filtered term found in a message.
type Match struct {
	Matched bool
	Term    string
	Kind    MatchKind
}

// ScanInput carries one message together with the community's filter
// configuration.
type ScanInput struct {
	Content     string
	ChannelName string
	AuthorIsBot bool
	AuthorRank  int
	SystemRank  int

	Enabled          bool
	ExcludedChannels string
	CustomBlacklist  string
	UniteBlacklist   bool
	CustomBadLinks   string
	UniteBadLinks    bool
}

// Engine evaluates messages against the merged global and per-community
// term lists.
type Engine struct {
	global *GlobalLists
}

func NewEngine(global *GlobalLists) *Engine {
	return &Engine{global: global}
}

// Scan checks one message. Bot authors, authors ranked at or above the
// system and excluded channels short-circuit to no match. Blacklist terms
// are checked before bad links and the first hit wins.
func (e *Engine) Scan(in ScanInput) Match {
	if !in.Enabled || in.AuthorIsBot || in.AuthorRank >= in.SystemRank {
		return Match{}
	}
	for _, name := range SplitTerms(in.ExcludedChannels) {
		if name == in.ChannelName {
			return Match{}
		}
	}

	content := strings.ToLower(in.Content)

	if term, ok := firstHit(content, e.effectiveTerms(in.CustomBlacklist, BlacklistSentinel, in.UniteBlacklist, e.global.Blacklist)); ok {
		return Match{Matched: true, Term: term, Kind: MatchBlacklist}
	}
	if term, ok := firstHit(content, e.effectiveTerms(in.CustomBadLinks, BadLinksSentinel, in.UniteBadLinks, e.global.BadLinks)); ok {
		return Match{Matched: true, Term: term, Kind: MatchBadLink}
	}
	return Match{}
}

// effectiveTerms always includes the community's own terms. The global list
// is appended only when the unite flag is set and the custom value has been
// changed away from its seed.
func (e *Engine) effectiveTerms(custom, sentinel string, unite bool, global []string) []string {
	terms := SplitTerms(custom)
	if unite && strings.TrimSpace(custom) != sentinel {
		terms = append(terms, global...)
	}
	return terms
}

func firstHit(content string, terms []string) (string, bool) {
	for _, term := range terms {
		if term != "" && strings.Contains(content, strings.ToLower(term)) {
			return term, true
		}
	}
	return "", false
}

// SplitTerms splits a comma separated settings value into trimmed terms.
func SplitTerms(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}
