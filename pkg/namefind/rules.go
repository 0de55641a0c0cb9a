// CLAUDE:SUMMARY Priority-ordered name-shape rule table (quality code + pattern builder) and the token pattern matcher.
package namefind

// term tests a single window token.
type term func(tok string) bool

func lit(s string) term {
	return func(tok string) bool { return tok == s }
}

// startsWith matches any token beginning with the given initial.
func startsWith(initial string) term {
	return func(tok string) bool { return len(tok) > 0 && tok[:1] == initial }
}

// expandsInitial matches a spelled-out name for an initial: the initial plus at least one more letter.
func expandsInitial(initial string) term {
	return func(tok string) bool {
		return len(tok) >= 2 && tok[:1] == initial && isLetters(tok[1:])
	}
}

// anyLetter matches a lone letter, typically a wrong or garbled middle initial.
func anyLetter(tok string) bool {
	return len(tok) == 1 && isLetters(tok)
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// pattern is a contiguous run of terms, optionally pinned to the window edges.
// A soleToken pattern only applies when the whole text is one token.
type pattern struct {
	terms       []term
	anchorStart bool
	anchorEnd   bool
	soleToken   bool
}

// find returns the leftmost [lo, hi) where p matches tokens.
func (p pattern) find(tokens []string) (int, int, bool) {
	n := len(p.terms)
	if n == 0 || n > len(tokens) {
		return 0, 0, false
	}
	first, last := 0, len(tokens)-n
	if p.anchorEnd {
		first = last
	}
	if p.anchorStart {
		last = 0
	}
	for i := first; i <= last; i++ {
		if p.matchAt(tokens, i) {
			return i, i + n, true
		}
	}
	return 0, 0, false
}

func (p pattern) matchAt(tokens []string, at int) bool {
	for j, t := range p.terms {
		if !t(tokens[at+j]) {
			return false
		}
	}
	return true
}

// rule is one row of the scoring table. build returns false when the entry
// lacks a field the shape needs.
type rule struct {
	quality int
	shape   string
	build   func(n *names) (pattern, bool)
}

// names holds an entry's normalized name tokens.
type names struct {
	fn, mn, ln []string
	fi, mi     string
}

func lits(parts ...[]string) []term {
	var out []term
	for _, p := range parts {
		for _, s := range p {
			out = append(out, lit(s))
		}
	}
	return out
}

func one(s string) []string { return []string{s} }

// rules is tried top to bottom; the first match wins. Quality codes are part
// of the output contract and must not be renumbered.
var rules = []rule{
	{0, "first middle last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(n.fn, n.mn, n.ln)}, len(n.fn) > 0
	}},
	{1, "first middle-initial last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(n.fn, one(n.mi), n.ln)}, len(n.fn) > 0 && len(n.mn) > 0
	}},
	{1, "first-initial middle last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(one(n.fi), n.mn, n.ln)}, len(n.fn) > 0 && len(n.mn) > 0
	}},
	{2, "first last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(n.fn, n.ln)}, len(n.fn) > 0
	}},
	{2, "first middle-name-for-initial last", func(n *names) (pattern, bool) {
		terms := append(lits(n.fn), expandsInitial(n.mi))
		return pattern{terms: append(terms, lits(n.ln)...)}, len(n.fn) > 0 && len(n.mn) > 0
	}},
	{3, "first-initial middle-initial last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(one(n.fi), one(n.mi), n.ln)}, len(n.fn) > 0 && len(n.mn) > 0
	}},
	{4, "first any-initial last", func(n *names) (pattern, bool) {
		terms := append(lits(n.fn), term(anyLetter))
		return pattern{terms: append(terms, lits(n.ln)...)}, len(n.fn) > 0
	}},
	{5, "first-initial last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(one(n.fi), n.ln)}, len(n.fn) > 0
	}},
	{6, "middle-initial last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(one(n.mi), n.ln)}, len(n.mn) > 0
	}},
	{7, "judge last", func(n *names) (pattern, bool) {
		return pattern{terms: lits(one(judgeToken), n.ln), anchorEnd: true}, len(n.ln) > 0
	}},
	{8, "last alone", func(n *names) (pattern, bool) {
		return pattern{terms: lits(n.ln), anchorStart: true, anchorEnd: true, soleToken: true}, len(n.ln) == 1
	}},
	{9, "initials of first middle, last", func(n *names) (pattern, bool) {
		terms := []term{startsWith(n.fi), startsWith(n.mi)}
		return pattern{terms: append(terms, lits(n.ln)...), anchorStart: true, anchorEnd: true},
			len(n.fn) > 0 && len(n.mn) > 0
	}},
	{10, "initial of first, last", func(n *names) (pattern, bool) {
		terms := []term{startsWith(n.fi)}
		return pattern{terms: append(terms, lits(n.ln)...), anchorStart: true, anchorEnd: true},
			len(n.fn) > 0
	}},
}

// compiledRule is a rule bound to one entry.
type compiledRule struct {
	quality int
	pattern pattern
}

// compileRules binds the table to an entry once, skipping rows it cannot satisfy.
func compileRules(n *names) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		p, ok := r.build(n)
		if !ok {
			continue
		}
		out = append(out, compiledRule{quality: r.quality, pattern: p})
	}
	return out
}
