// CLAUDE:SUMMARY Conflict resolution: per-window best filter, redundant-window removal, longest-first span claiming, tag annotation.
package namefind

import (
	"sort"
	"strings"
)

// group is the working state of one window during resolution.
type group struct {
	key     string
	tokens  []string
	pos     int
	matches []Match
	claims  []Claim
}

// localBest keeps the matches sharing the lowest quality code.
func localBest(ms []Match) []Match {
	if len(ms) == 0 {
		return ms
	}
	best := ms[0].Quality
	for _, m := range ms[1:] {
		best = min(best, m.Quality)
	}
	out := ms[:0]
	for _, m := range ms {
		if m.Quality == best {
			out = append(out, m)
		}
	}
	return out
}

// dropRedundant removes a window when a shorter window contained in it
// carries exactly the same matches. Windows whose match sets only partly
// overlap are kept.
func dropRedundant(groups []*group) []*group {
	removed := make([]bool, len(groups))
	for i, a := range groups {
		for j, b := range groups {
			if i == j || len(a.key) >= len(b.key) {
				continue
			}
			if containsRun(b.tokens, a.tokens) && sameMatches(a.matches, b.matches) {
				removed[j] = true
			}
		}
	}
	out := groups[:0]
	for i, g := range groups {
		if !removed[i] {
			out = append(out, g)
		}
	}
	return out
}

func containsRun(hay, needle []string) bool {
	for i := 0; i+len(needle) <= len(hay); i++ {
		if equalRun(hay[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

func equalRun(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameMatches(a, b []Match) bool {
	if len(a) != len(b) {
		return false
	}
	count := make(map[Match]int, len(a))
	for _, m := range a {
		count[m]++
	}
	for _, m := range b {
		if count[m] == 0 {
			return false
		}
		count[m]--
	}
	return true
}

// candidate is one (window, match) pair competing for text.
type candidate struct {
	g        *group
	m        Match
	fragment []string
}

// claimSpans assigns text to matches longest fragment first. claimed is owned
// by this call: once a token is claimed no later (shorter) fragment can use it,
// so a surname that is also someone's first name is not counted twice.
func claimSpans(tokens []string, groups []*group) {
	var cands []candidate
	for _, g := range groups {
		for _, m := range g.matches {
			cands = append(cands, candidate{g: g, m: m, fragment: strings.Fields(m.Text)})
		}
		g.matches = nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if len(a.m.Text) != len(b.m.Text) {
			return len(a.m.Text) > len(b.m.Text)
		}
		if a.m.Quality != b.m.Quality {
			return a.m.Quality < b.m.Quality
		}
		if a.g.pos != b.g.pos {
			return a.g.pos < b.g.pos
		}
		return a.m.ID < b.m.ID
	})

	claimed := make([]bool, len(tokens))
	for _, c := range cands {
		n := len(c.fragment)
		if n == 0 {
			continue
		}
		var got []Claim
		for i := 0; i+n <= len(tokens); {
			if fragmentAt(tokens, claimed, c.fragment, i) {
				got = append(got, Claim{Start: i, End: i + n, ID: c.m.ID})
				i += n
				continue
			}
			i++
		}
		if len(got) == 0 {
			continue
		}
		for _, cl := range got {
			for k := cl.Start; k < cl.End; k++ {
				claimed[k] = true
			}
		}
		c.g.matches = append(c.g.matches, c.m)
		c.g.claims = append(c.g.claims, got...)
	}
}

// fragmentAt reports whether fragment occurs unclaimed at tokens[at:]. A JUDGE
// in the fragment also stands for a JUSTICE in the text, mirroring scoring.
func fragmentAt(tokens []string, claimed []bool, fragment []string, at int) bool {
	for j, f := range fragment {
		if claimed[at+j] {
			return false
		}
		t := tokens[at+j]
		if t != f && !(f == judgeToken && t == justiceToken) {
			return false
		}
	}
	return true
}

// annotate rebuilds the token string with every claim replaced by [ID].
func annotate(tokens []string, groups []*group) string {
	var claims []Claim
	for _, g := range groups {
		claims = append(claims, g.claims...)
	}
	if len(claims) == 0 {
		return strings.Join(tokens, " ")
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].Start < claims[j].Start })

	out := make([]string, 0, len(tokens))
	next := 0
	for i := 0; i < len(tokens); {
		if next < len(claims) && claims[next].Start == i {
			out = append(out, "["+claims[next].ID+"]")
			i = claims[next].End
			next++
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return strings.Join(out, " ")
}

// keepExact drops matches above ExactQuality along with their claims. It runs
// after claiming so exact stays a subset of best: a weak match that won a span
// takes it with it, even from a stronger shorter candidate.
func keepExact(groups []*group) {
	for _, g := range groups {
		kept := make(map[string]bool, len(g.matches))
		ms := g.matches[:0]
		for _, m := range g.matches {
			if m.Quality <= ExactQuality {
				ms = append(ms, m)
				kept[m.ID] = true
			}
		}
		g.matches = ms
		cl := g.claims[:0]
		for _, c := range g.claims {
			if kept[c.ID] {
				cl = append(cl, c)
			}
		}
		g.claims = cl
	}
}

// nonEmpty drops groups left without matches.
func nonEmpty(groups []*group) []*group {
	out := groups[:0]
	for _, g := range groups {
		if len(g.matches) > 0 {
			out = append(out, g)
		}
	}
	return out
}
