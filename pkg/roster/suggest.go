// CLAUDE:SUMMARY Near-miss surname suggestions by Levenshtein distance, for OCR variants exact token matching misses.
package roster

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultSuggestLimit caps Suggest results when the caller passes limit <= 0.
const DefaultSuggestLimit = 10

// Suggestion is a roster entry whose surname is close to a query.
type Suggestion struct {
	Judge
	Distance int `json:"distance"`
}

// maxDistance scales the edit budget with the query length.
func maxDistance(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// Suggest returns entries whose normalized surname is within an edit budget
// of last, closest first. Exact matches have distance 0.
func (r *Registry) Suggest(rosterID, last string, limit int) ([]Suggestion, error) {
	ro, err := r.Get(rosterID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	x := ro.index
	query := strings.Join(x.Tokenizer().Tokenize(last), " ")
	out := []Suggestion{}
	if query == "" {
		return out, nil
	}
	budget := maxDistance(len(query))

	for _, id := range x.IDs() {
		surname := strings.Join(x.Surname(id), " ")
		if surname == "" || abs(len(surname)-len(query)) > budget {
			continue
		}
		d := levenshtein.ComputeDistance(query, surname)
		if d > budget {
			continue
		}
		e, _ := x.Entry(id)
		out = append(out, Suggestion{
			Judge:    Judge{Entry: e, Roster: ro.Manifest.ID, Name: x.Name(id)},
			Distance: d,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
