// CLAUDE:SUMMARY Docket text tokenizer: accent folding, punctuation cleanup, MJ marker removal, camel-case repair, uppercase tokens.
package namefind

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns free text into the uppercase token sequence the matcher works on.
type Tokenizer struct {
	// SplitCamel repairs fused tokens like "JohnRoberts" left by scrapers.
	// It also splits some genuine surnames (DellaVigna becomes Della Vigna).
	// Nil disables the pass.
	SplitCamel func(string) string
}

// DefaultTokenizer is the tokenizer used by NewIndex.
var DefaultTokenizer = &Tokenizer{SplitCamel: SplitCamelCase}

var (
	camelRun = regexp.MustCompile(`([a-z]{3,})([A-Z])`)
	nonName  = regexp.MustCompile(`[^ A-Za-z']`)

	punct = strings.NewReplacer(
		"`", "'",
		"‘", "'",
		"’", "'",
		".", " ",
		"-", " ",
	)
)

// SplitCamelCase inserts a space where three or more lowercase letters run into an uppercase one.
func SplitCamelCase(s string) string {
	return camelRun.ReplaceAllString(s, "$1 $2")
}

// Tokenize normalizes text with the default tokenizer.
func Tokenize(text string) []string {
	return DefaultTokenizer.Tokenize(text)
}

// Tokenize normalizes text and splits it into uppercase tokens. It never fails;
// empty or unusable input yields an empty slice.
func (t *Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}
	s := foldAccents(text)
	s = punct.Replace(s)
	// PACER dockets put "MJ" inside magistrate names.
	s = strings.ReplaceAll(s, " MJ ", " ")
	if t.SplitCamel != nil {
		s = t.SplitCamel(s)
	}
	s = nonName.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = strings.ToUpper(tok)
	}
	return tokens
}

// foldAccents strips combining marks (Hübert -> Hubert). Chained transformers
// keep internal state, so one is built per call.
func foldAccents(s string) string {
	isASCII := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			isASCII = false
			break
		}
	}
	if isASCII {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
