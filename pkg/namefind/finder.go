// Package namefind locates roster names (judges) in noisy docket text.
//
// The pipeline is tokenize, propose windows ending at surname occurrences,
// score each (window, entry) pair against a priority-ordered table of name
// shapes, then resolve conflicts so every span of text is attributed to at
// most one identity. Lower quality codes are better; 0 is a full
// first-middle-last match.
//
// When two identities fit the same text equally well, best and exact modes
// give the span to the smaller ID; all mode reports both.
//
// Everything here is pure: no I/O, no logging, no shared mutable state.
package namefind

import (
	"sort"
	"strings"
)

// Find resolves names from roster in text. For repeated calls against the same
// roster, build an Index once and call its Find method.
func Find(r Roster, text string, opts *Options) *Result {
	return NewIndex(r).Find(text, opts)
}

// Find resolves names from the index in text. Unknown modes run as ModeBest.
func (x *Index) Find(text string, opts *Options) *Result {
	mode := ModeBest
	var subset []string
	if opts != nil {
		if opts.Mode == ModeAll || opts.Mode == ModeExact {
			mode = opts.Mode
		}
		subset = opts.Subset
	}

	tokens := x.tok.Tokenize(text)
	res := &Result{
		Mode:   mode,
		Tokens: tokens,
		Text:   strings.Join(tokens, " "),
		Spans:  []Span{},
	}
	if len(tokens) == 0 || len(x.ids) == 0 {
		return res
	}

	var groups []*group
	for _, w := range candidateWindows(x, tokens, x.selectIDs(subset)) {
		var ms []Match
		for _, id := range w.ids {
			if m, ok := score(w, x.entries[id], len(tokens)); ok {
				ms = append(ms, m)
			}
		}
		if len(ms) == 0 {
			continue
		}
		groups = append(groups, &group{key: w.key, tokens: w.tokens, pos: w.pos, matches: localBest(ms)})
	}

	if mode != ModeAll {
		groups = dropRedundant(groups)
		claimSpans(tokens, groups)
		if mode == ModeExact {
			keepExact(groups)
		}
		groups = nonEmpty(groups)
		res.Text = annotate(tokens, groups)
	}

	for _, g := range groups {
		sort.Slice(g.claims, func(i, j int) bool { return g.claims[i].Start < g.claims[j].Start })
		res.Spans = append(res.Spans, Span{Key: g.key, Matches: g.matches, Claims: g.claims})
	}
	return res
}
