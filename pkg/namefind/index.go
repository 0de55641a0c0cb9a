// CLAUDE:SUMMARY Immutable roster index with pre-normalized names and compiled rules, shared read-only across goroutines.
package namefind

import (
	"slices"
	"sort"
	"strings"
)

// prepared is an entry with its name fields tokenized and its rules compiled.
type prepared struct {
	entry          Entry
	id             string
	names          names
	name           string
	rules          []compiledRule
	justiceSurname bool
}

// Index is a roster prepared for matching. It is never mutated after
// construction and may be shared by any number of goroutines.
type Index struct {
	tok     *Tokenizer
	entries map[string]*prepared
	ids     []string
	// bySurname maps the final surname token to the sorted IDs ending in it.
	bySurname map[string][]string
}

// NewIndex prepares a roster with the default tokenizer.
func NewIndex(r Roster) *Index {
	return NewIndexWith(DefaultTokenizer, r)
}

// NewIndexWith prepares a roster with a custom tokenizer. Roster fields go
// through the same tokenizer as the text so both sides normalize identically.
func NewIndexWith(t *Tokenizer, r Roster) *Index {
	if t == nil {
		t = DefaultTokenizer
	}
	x := &Index{
		tok:       t,
		entries:   make(map[string]*prepared, len(r)),
		ids:       make([]string, 0, len(r)),
		bySurname: make(map[string][]string),
	}
	for id, e := range r {
		e.ID = id
		p := &prepared{entry: e, id: id}
		p.names = names{
			fn: t.Tokenize(e.First),
			mn: t.Tokenize(e.Middle),
			ln: t.Tokenize(e.Last),
		}
		if len(p.names.fn) > 0 {
			p.names.fi = p.names.fn[0][:1]
		}
		if len(p.names.mn) > 0 {
			p.names.mi = p.names.mn[0][:1]
		}
		rendered := append(append(append([]string{}, p.names.fn...), p.names.mn...), p.names.ln...)
		p.name = strings.Join(append(rendered, t.Tokenize(e.Suffix)...), " ")
		p.rules = compileRules(&p.names)
		p.justiceSurname = slices.Contains(p.names.ln, justiceToken)
		x.entries[id] = p
		x.ids = append(x.ids, id)
	}
	sort.Strings(x.ids)
	for _, id := range x.ids {
		// Entries without surname tokens can never anchor a window.
		if ln := x.entries[id].names.ln; len(ln) > 0 {
			final := ln[len(ln)-1]
			x.bySurname[final] = append(x.bySurname[final], id)
		}
	}
	return x
}

// Len returns the number of entries.
func (x *Index) Len() int { return len(x.ids) }

// IDs returns every entry ID in sorted order.
func (x *Index) IDs() []string { return slices.Clone(x.ids) }

// Entry returns the original entry for id.
func (x *Index) Entry(id string) (Entry, bool) {
	p, ok := x.entries[id]
	if !ok {
		return Entry{}, false
	}
	return p.entry, true
}

// Name returns the rendered, normalized name for id (FIRST MIDDLE LAST SUFFIX).
func (x *Index) Name(id string) string {
	if p, ok := x.entries[id]; ok {
		return p.name
	}
	return ""
}

// Surname returns the normalized surname tokens for id.
func (x *Index) Surname(id string) []string {
	if p, ok := x.entries[id]; ok {
		return slices.Clone(p.names.ln)
	}
	return nil
}

// Tokenizer returns the tokenizer the index was built with.
func (x *Index) Tokenizer() *Tokenizer { return x.tok }

// selectIDs turns an optional subset into a lookup set. Nil means every
// entry; an empty subset gives an empty set that matches nothing.
func (x *Index) selectIDs(subset []string) map[string]bool {
	if subset == nil {
		return nil
	}
	out := make(map[string]bool, len(subset))
	for _, id := range subset {
		out[id] = true
	}
	return out
}
