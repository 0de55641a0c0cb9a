package namefind

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

func testRoster() Roster {
	return Roster{
		"1001": {First: "John", Middle: "Quincy", Last: "Doe"},
		"1002": {First: "Barbara", Middle: "L.", Last: "Major"},
		"1003": {First: "Sonia", Middle: "", Last: "Sotomayor"},
		"1004": {First: "", Middle: "", Last: "Smith"},
		"1005": {First: "Mary", Middle: "Ann", Last: "St. Clair", Suffix: "Jr."},
		"1006": {First: "Warren", Middle: "Earl", Last: "Justice"},
		"1007": {First: "Thomas", Middle: "", Last: "Stanley"},
		"1008": {First: "Stanley", Middle: "", Last: "Marcus"},
	}
}

func TestFind_FullNameQualityZero(t *testing.T) {
	roster := Roster{"J1": {First: "John", Middle: "Q", Last: "Doe"}}
	res := Find(roster, "Before JOHN Q DOE, Judge.", &Options{Mode: ModeBest})

	if len(res.Spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(res.Spans))
	}
	m := res.Spans[0].Matches
	if len(m) != 1 {
		t.Fatalf("matches = %d, want 1", len(m))
	}
	if m[0].ID != "J1" || m[0].Quality != 0 || m[0].Text != "JOHN Q DOE" {
		t.Errorf("match = %+v, want J1 quality 0 text JOHN Q DOE", m[0])
	}
	if res.Text != "BEFORE [J1] JUDGE" {
		t.Errorf("Text = %q, want BEFORE [J1] JUDGE", res.Text)
	}
}

func TestFind_LongerFragmentWins(t *testing.T) {
	roster := Roster{
		"J1": {First: "John", Last: "Doe"},
		"J2": {Last: "Doe"},
	}
	res := Find(roster, "JOHN DOE presiding", &Options{Mode: ModeBest})

	if got := res.IDs(); !reflect.DeepEqual(got, []string{"J1"}) {
		t.Errorf("IDs = %v, want [J1]", got)
	}
}

func TestFind_EmptyRoster(t *testing.T) {
	res := Find(Roster{}, "Hon. JohnRoberts, presiding.", nil)
	if len(res.Spans) != 0 {
		t.Errorf("spans = %d, want 0", len(res.Spans))
	}
	if res.Text != "HON JOHN ROBERTS PRESIDING" {
		t.Errorf("Text = %q, want normalized input", res.Text)
	}
}

func TestFind_EmptyText(t *testing.T) {
	res := Find(testRoster(), "", nil)
	if len(res.Spans) != 0 || res.Text != "" {
		t.Errorf("result = %+v, want empty", res)
	}
	if ids := res.IDs(); ids == nil || len(ids) != 0 {
		t.Errorf("IDs = %#v, want empty non-nil", ids)
	}
}

func TestFind_JudgeSurnameOnly(t *testing.T) {
	roster := Roster{"S": {Last: "Smith"}}
	res := Find(roster, "JUDGE SMITH", nil)
	if q := res.Quality("S"); q != 7 {
		t.Errorf("quality = %d, want 7", q)
	}
	if res.Text != "[S]" {
		t.Errorf("Text = %q, want [S]", res.Text)
	}
}

func TestFind_JusticeReadAsJudge(t *testing.T) {
	roster := Roster{"S": {Last: "Smith"}}
	res := Find(roster, "Opinion by Justice Smith.", nil)
	if q := res.Quality("S"); q != 7 {
		t.Fatalf("quality = %d, want 7", q)
	}
	if res.Spans[0].Matches[0].Text != "JUDGE SMITH" {
		t.Errorf("Text = %q, want JUDGE SMITH", res.Spans[0].Matches[0].Text)
	}
	if res.Text != "OPINION BY [S]" {
		t.Errorf("tagged = %q, want OPINION BY [S]", res.Text)
	}
}

func TestFind_JusticeSurnameKept(t *testing.T) {
	res := Find(testRoster(), "WARREN E JUSTICE", nil)
	if q := res.Quality("1006"); q != 1 {
		t.Errorf("quality = %d, want 1 (first middle-initial last)", q)
	}
}

func TestFind_QualityCodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		id   string
		want int
	}{
		{"full name", "JOHN QUINCY DOE", "1001", 0},
		{"middle initial", "JOHN Q. DOE", "1001", 1},
		{"first initial full middle", "J. QUINCY DOE", "1001", 1},
		{"first last", "JOHN DOE", "1001", 2},
		{"middle spelled out", "BARBARA LYNN MAJOR", "1002", 2},
		{"initials", "J. Q. DOE", "1001", 3},
		{"wrong middle initial", "JOHN X DOE", "1001", 4},
		{"first initial", "ORDER BY J DOE", "1001", 5},
		{"middle initial only", "ORDER BY Q DOE", "1001", 6},
		{"judge title", "JUDGE DOE", "1001", 7},
		{"surname alone", "DOE", "1001", 8},
		{"initials of variant names", "JONATHAN QUENTIN DOE", "1001", 9},
		{"variant first name", "JACK DOE", "1001", 10},
		{"no middle on file", "SONIA SOTOMAYOR", "1003", 0},
		{"multi token surname", "Mary Ann St. Clair", "1005", 0},
		{"hyphenated surname", "MARY ANN ST-CLAIR", "1005", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Find(testRoster(), tt.text, &Options{Mode: ModeAll})
			if q := res.Quality(tt.id); q != tt.want {
				t.Errorf("Find(%q) quality for %s = %d, want %d (spans %+v)", tt.text, tt.id, q, tt.want, res.Spans)
			}
		})
	}
}

func TestFind_SurnameAloneOnlyAsWholeText(t *testing.T) {
	roster := Roster{"S": {First: "Jane", Last: "Smith"}}

	tests := []struct {
		name, text, want string
		ids            []string
	}{
		{"leading party", "Smith, plaintiff, moves to dismiss", "SMITH PLAINTIFF MOVES TO DISMISS", []string{}},
		{"caption then judge", "SMITH v. JONES, referred to Judge Jane Smith", "SMITH V JONES REFERRED TO JUDGE [S]", []string{"S"}},
		{"whole text", "Smith.", "[S]", []string{"S"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Find(roster, tt.text, nil)
			if res.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Text, tt.want)
			}
			if got := res.IDs(); !reflect.DeepEqual(got, tt.ids) {
				t.Errorf("IDs = %v, want %v", got, tt.ids)
			}
		})
	}
}

func TestFind_MultiTokenSurnameAlone(t *testing.T) {
	for _, text := range []string{"ST CLAIR", "St. Clair, J., concurring"} {
		res := Find(testRoster(), text, &Options{Mode: ModeAll})
		if q := res.Quality("1005"); q != -1 {
			t.Errorf("Find(%q) quality = %d, want no match", text, q)
		}
	}
}

func TestFind_EntryWithoutSurnameSkipped(t *testing.T) {
	roster := testRoster()
	roster["E"] = Entry{First: "Nobody"}
	roster["P"] = Entry{First: "Dot", Last: "."}

	res := Find(roster, "Nobody here. Dot .", &Options{Mode: ModeAll})
	if len(res.Spans) != 0 {
		t.Errorf("spans = %+v, want none", res.Spans)
	}

	res = Find(roster, "Nobody here before John Q Doe", nil)
	if got := res.IDs(); !reflect.DeepEqual(got, []string{"1001"}) {
		t.Errorf("IDs = %v, want [1001]", got)
	}
}

func TestFind_NoCandidate(t *testing.T) {
	tests := []string{
		"THE DOE FAMILY FILED", // window does not fit any shape
		"JOHN QUINCY",          // surname absent
		"DOEBLER",              // surname only as a prefix
	}
	for _, text := range tests {
		res := Find(testRoster(), text, &Options{Mode: ModeAll})
		if q := res.Quality("1001"); q != -1 {
			t.Errorf("Find(%q) quality = %d, want no match", text, q)
		}
	}
}

func TestFind_RenderedName(t *testing.T) {
	res := Find(testRoster(), "mary ann st clair", nil)
	if len(res.Spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(res.Spans))
	}
	if got := res.Spans[0].Matches[0].Name; got != "MARY ANN ST CLAIR JR" {
		t.Errorf("Name = %q, want MARY ANN ST CLAIR JR", got)
	}
}

func TestFind_SurnameThatIsAFirstName(t *testing.T) {
	// STANLEY is 1007's surname and 1008's first name; the longer fragment owns it.
	res := Find(testRoster(), "STANLEY MARCUS, Circuit Judge", nil)
	if got := res.IDs(); !reflect.DeepEqual(got, []string{"1008"}) {
		t.Errorf("IDs = %v, want [1008]", got)
	}
}

func TestFind_TwoJudges(t *testing.T) {
	text := "ORDER signed by Judge Barbara L. Major and referred to John Q Doe."
	res := Find(testRoster(), text, nil)

	if got := res.IDs(); !reflect.DeepEqual(got, []string{"1002", "1001"}) {
		t.Errorf("IDs = %v, want [1002 1001]", got)
	}
	want := "ORDER SIGNED BY JUDGE [1002] AND REFERRED TO [1001]"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestFind_RepeatedMentionCollapses(t *testing.T) {
	res := Find(testRoster(), "JOHN Q DOE and again JOHN Q DOE", nil)
	if got := res.IDs(); !reflect.DeepEqual(got, []string{"1001"}) {
		t.Errorf("IDs = %v, want [1001]", got)
	}
	if res.Text != "[1001] AND AGAIN [1001]" {
		t.Errorf("Text = %q, want both mentions tagged", res.Text)
	}
	if n := len(res.Spans[0].Claims); n != 2 {
		t.Errorf("claims = %d, want 2", n)
	}
}

func TestFind_AllModeKeepsTiesUntagged(t *testing.T) {
	roster := Roster{
		"A": {First: "Ann", Last: "Lee"},
		"B": {First: "Ann", Last: "Lee"},
	}
	res := Find(roster, "ANN LEE", &Options{Mode: ModeAll})
	if got := res.IDs(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("all IDs = %v, want [A B]", got)
	}
	if res.Text != "ANN LEE" {
		t.Errorf("all mode Text = %q, want untagged", res.Text)
	}

	best := Find(roster, "ANN LEE", &Options{Mode: ModeBest})
	if got := best.IDs(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("best IDs = %v, want [A] (one identity per span)", got)
	}
}

func TestFind_ExactMode(t *testing.T) {
	text := "JUDGE SMITH and J. Q. DOE and BARBARA L MAJOR"
	exact := Find(testRoster(), text, &Options{Mode: ModeExact})
	if got := exact.IDs(); !reflect.DeepEqual(got, []string{"1002"}) {
		t.Errorf("exact IDs = %v, want [1002]", got)
	}
	if exact.Text != "JUDGE SMITH AND J Q DOE AND [1002]" {
		t.Errorf("exact Text = %q", exact.Text)
	}
}

func TestFind_ExactFiltersAfterClaiming(t *testing.T) {
	roster := Roster{
		"A": {First: "Ann", Last: "Lee"},
		"B": {First: "Abe", Last: "Lee Park"},
	}
	text := "ANN LEE PARK"

	best := Find(roster, text, nil)
	if best.Text != "[B]" || best.Quality("B") != 10 {
		t.Errorf("best = %q, B quality %d; want [B] at 10", best.Text, best.Quality("B"))
	}
	exact := Find(roster, text, &Options{Mode: ModeExact})
	if len(exact.Spans) != 0 || exact.Text != text {
		t.Errorf("exact = %q %+v, want untouched text and no spans", exact.Text, exact.Spans)
	}
}

func TestFind_Subset(t *testing.T) {
	text := "THOMAS STANLEY and STANLEY MARCUS"
	res := Find(testRoster(), text, &Options{Subset: []string{"1007", "9999"}})
	if got := res.IDs(); !reflect.DeepEqual(got, []string{"1007"}) {
		t.Errorf("IDs = %v, want [1007]", got)
	}

	none := Find(testRoster(), text, &Options{Subset: []string{}})
	if len(none.Spans) != 0 {
		t.Errorf("empty subset spans = %d, want 0", len(none.Spans))
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", ModeBest, true},
		{"best", ModeBest, true},
		{" ALL ", ModeAll, true},
		{"exact", ModeExact, true},
		{"fuzzy", "", false},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

var propertyTexts = []string{
	"Before JOHN Q DOE, Judge.",
	"ORDER signed by Judge Barbara L. Major and referred to John Q Doe.",
	"STANLEY MARCUS and THOMAS STANLEY, Circuit Judges; Justice Smith dissenting",
	"MINUTE ENTRY: Hon. JohnRoberts; MJ Mary Ann St-Clair Jr.; J. DOE",
	"SMITH",
	"JUDGE SMITH JUDGE DOE JOHN DOE JOHN QUINCY DOE",
	"WARREN EARL JUSTICE and JUSTICE SMITH",
}

func TestProperty_NoOverlappingClaims(t *testing.T) {
	for _, text := range propertyTexts {
		res := Find(testRoster(), text, nil)
		used := make([]bool, len(res.Tokens))
		for _, s := range res.Spans {
			for _, c := range s.Claims {
				for k := c.Start; k < c.End; k++ {
					if used[k] {
						t.Errorf("%q: token %d claimed twice", text, k)
					}
					used[k] = true
				}
			}
		}
	}
}

func TestProperty_Idempotent(t *testing.T) {
	idx := NewIndex(testRoster())
	for _, mode := range []Mode{ModeAll, ModeBest, ModeExact} {
		for _, text := range propertyTexts {
			a := idx.Find(text, &Options{Mode: mode})
			b := idx.Find(text, &Options{Mode: mode})
			if !reflect.DeepEqual(a, b) {
				t.Errorf("%s %q: results differ between runs", mode, text)
			}
		}
	}
}

func TestProperty_ExactSubsetOfBest(t *testing.T) {
	idx := NewIndex(testRoster())
	for _, text := range propertyTexts {
		best := idx.Find(text, &Options{Mode: ModeBest}).IDs()
		for _, id := range idx.Find(text, &Options{Mode: ModeExact}).IDs() {
			if !slices.Contains(best, id) {
				t.Errorf("%q: exact id %s not in best %v", text, id, best)
			}
		}
	}
}

func TestProperty_SubsetKeepsQuality(t *testing.T) {
	idx := NewIndex(testRoster())
	for _, text := range propertyTexts {
		full := idx.Find(text, &Options{Mode: ModeAll})
		for _, s := range full.Spans {
			for _, m := range s.Matches {
				sub := idx.Find(text, &Options{Mode: ModeAll, Subset: []string{m.ID}})
				if q := sub.Quality(m.ID); q > m.Quality || q < 0 {
					t.Errorf("%q: %s quality %d in full roster, %d in subset", text, m.ID, m.Quality, q)
				}
			}
		}
	}
}

func TestProperty_FullNameAlwaysZero(t *testing.T) {
	roster := testRoster()
	for id, e := range roster {
		if e.First == "" || e.Middle == "" {
			continue
		}
		text := "ENTRY BEFORE " + strings.Join([]string{e.First, e.Middle, e.Last}, " ") + " TODAY"
		if q := Find(roster, text, nil).Quality(id); q != 0 {
			t.Errorf("%s in %q: quality %d, want 0", id, text, q)
		}
	}
}
