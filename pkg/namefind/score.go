package namefind

import (
	"slices"
	"strings"
)

const (
	judgeToken   = "JUDGE"
	justiceToken = "JUSTICE"
)

// score tests an entry's compiled rules against one window of a textLen-token
// text and returns the first (best) match.
func score(w *window, e *prepared, textLen int) (Match, bool) {
	tokens := w.tokens
	if !e.justiceSurname && slices.Contains(tokens, justiceToken) {
		tokens = asJudge(tokens)
	}
	for _, r := range e.rules {
		if r.pattern.soleToken && textLen != 1 {
			continue
		}
		lo, hi, ok := r.pattern.find(tokens)
		if !ok {
			continue
		}
		return Match{
			Quality: r.quality,
			ID:      e.id,
			Name:    e.name,
			Text:    strings.Join(tokens[lo:hi], " "),
		}, true
	}
	return Match{}, false
}

// asJudge returns a copy of tokens with every JUSTICE read as JUDGE.
func asJudge(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if t == justiceToken {
			t = judgeToken
		}
		out[i] = t
	}
	return out
}
