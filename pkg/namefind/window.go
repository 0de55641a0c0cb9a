package namefind

import (
	"slices"
	"strings"
)

// windowSize bounds a candidate window: the surname token plus up to four before it.
const windowSize = 5

// window is a run of tokens ending at a surname occurrence, shared by every
// entry whose surname ends there.
type window struct {
	key    string
	tokens []string
	pos    int // end index of the first occurrence
	ids    []string
}

// candidateWindows proposes (window, entry) pairs for entries allowed by
// the set (nil allows all). Only surname presence is checked here; scoring
// decides how good the fit is.
func candidateWindows(x *Index, tokens []string, allowed map[string]bool) []*window {
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}

	byKey := make(map[string]*window)
	var out []*window
	for i, tok := range tokens {
		for _, id := range x.bySurname[tok] {
			if allowed != nil && !allowed[id] {
				continue
			}
			if !allPresent(x.entries[id].names.ln, present) {
				continue
			}
			span := tokens[max(0, i-windowSize+1) : i+1]
			key := strings.Join(span, " ")
			w, ok := byKey[key]
			if !ok {
				w = &window{key: key, tokens: span, pos: i}
				byKey[key] = w
				out = append(out, w)
			}
			// A key always ends in tok, so every visit walks the same sorted
			// bySurname list and ids stay sorted.
			if !slices.Contains(w.ids, id) {
				w.ids = append(w.ids, id)
			}
		}
	}
	return out
}

func allPresent(want []string, present map[string]struct{}) bool {
	for _, t := range want {
		if _, ok := present[t]; !ok {
			return false
		}
	}
	return true
}
