// CLAUDE:SUMMARY Core types for roster-based judge name resolution: entries, options, matches, spans, results.
package namefind

import (
	"errors"
	"fmt"
	"strings"
)

// Entry is one roster record. Any name field may be empty.
type Entry struct {
	ID     string `json:"id"`
	First  string `json:"first,omitempty"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last"`
	Suffix string `json:"suffix,omitempty"`
}

// Roster maps an identifier to its entry. The map key is authoritative for the ID.
type Roster map[string]Entry

// Mode selects how much of the resolution pipeline runs.
type Mode string

const (
	// ModeAll keeps every candidate that is the best one for its window.
	ModeAll Mode = "all"
	// ModeBest runs full conflict resolution: one identity per claimed span.
	ModeBest Mode = "best"
	// ModeExact is ModeBest restricted to quality codes <= ExactQuality.
	ModeExact Mode = "exact"
)

// ExactQuality is the worst quality code ModeExact keeps.
const ExactQuality = 2

// ErrUnknownMode is returned by ParseMode for anything but all, best or exact.
var ErrUnknownMode = errors.New("unknown match mode")

// ParseMode parses a mode name. Empty means ModeBest.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBest:
		return ModeBest, nil
	case ModeAll:
		return ModeAll, nil
	case ModeExact:
		return ModeExact, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Options are optional parameters for Find. A nil *Options means best mode over the whole roster.
type Options struct {
	Mode Mode
	// Subset restricts candidates to these IDs. Nil means the whole roster;
	// an empty non-nil slice matches nothing.
	Subset []string
}

// Match is one scored candidate: how well a roster entry matched a window.
type Match struct {
	Quality int    `json:"quality"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Text    string `json:"text"`
}

// Claim is a token interval [Start, End) attributed to one identity.
type Claim struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	ID    string `json:"id"`
}

// Span groups the surviving matches of one candidate window.
type Span struct {
	Key     string  `json:"key"`
	Matches []Match `json:"matches"`
	Claims  []Claim `json:"claims,omitempty"`
}

// Result is the outcome of one Find call.
type Result struct {
	Mode   Mode     `json:"mode"`
	Tokens []string `json:"-"`
	// Text is the normalized token string; in best and exact modes every
	// claimed span is replaced by a [ID] tag.
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
}

// IDs flattens the result into matched identifiers in span order, duplicates kept.
func (r *Result) IDs() []string {
	ids := []string{}
	for _, s := range r.Spans {
		for _, m := range s.Matches {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Quality returns the best quality code found for id, or -1 when id was not matched.
func (r *Result) Quality(id string) int {
	best := -1
	for _, s := range r.Spans {
		for _, m := range s.Matches {
			if m.ID == id && (best < 0 || m.Quality < best) {
				best = m.Quality
			}
		}
	}
	return best
}
