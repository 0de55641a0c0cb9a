package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/judgefinder/pkg/namefind"
)

// writeTestRoster writes a manifest and data file under a fresh rosters dir and returns the dir.
func writeTestRoster(t *testing.T, id, format, dataFile, data string) string {
	t.Helper()
	dir := t.TempDir()
	writeRosterDir(t, dir, id, format, dataFile, data)
	return dir
}

func writeRosterDir(t *testing.T, rostersDir, id, format, dataFile, data string) {
	t.Helper()
	rd := filepath.Join(rostersDir, id)
	os.MkdirAll(rd, 0o755)
	manifest := `id: ` + id + `
version: "1.0"
court: test court
jurisdiction: us
source: unit test
data_file: ` + dataFile + `
` + format
	os.WriteFile(filepath.Join(rd, "manifest.yaml"), []byte(manifest), 0o644)
	os.WriteFile(filepath.Join(rd, dataFile), []byte(data), 0o644)
}

const fjcFormat = `format:
  delimiter: ","
  has_header: true
`

const fjcCSV = "\ufeffnid,Last Name,First Name,Middle Name,Suffix,Birth Year\n" +
	"1001,Doe,John,Quincy,,1950\n" +
	"1002,Major,Barbara,L.,,1960\n" +
	"1003,Smith,,,Jr.,1940\n" +
	",Nobody,No,,,1900\n"

func TestLoadRoster_FJCDefaults(t *testing.T) {
	dir := writeTestRoster(t, "fjc", fjcFormat, "judges.csv", fjcCSV)

	ro, err := LoadRoster(filepath.Join(dir, "fjc"))
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if ro.Manifest.Format.Columns != FJCColumns {
		t.Errorf("columns = %+v, want FJC defaults", ro.Manifest.Format.Columns)
	}
	if len(ro.Entries) != 3 {
		t.Fatalf("entries = %d, want 3 (row without id skipped)", len(ro.Entries))
	}
	want := namefind.Entry{ID: "1001", First: "John", Middle: "Quincy", Last: "Doe"}
	if got := ro.Entries["1001"]; got != want {
		t.Errorf("1001 = %+v, want %+v", got, want)
	}
	if got := ro.Entries["1003"].Suffix; got != "Jr." {
		t.Errorf("1003 suffix = %q, want Jr.", got)
	}
	if ro.Index().Len() != 3 {
		t.Errorf("index len = %d, want 3", ro.Index().Len())
	}
}

func TestLoadRoster_PositionalColumns(t *testing.T) {
	dir := writeTestRoster(t, "plain", "format:\n  delimiter: \";\"\n", "data.csv",
		"J1;John;Q;Doe;\nJ2;Ann;;Lee;III\n")

	ro, err := LoadRoster(filepath.Join(dir, "plain"))
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if got := ro.Entries["J2"]; got.First != "Ann" || got.Last != "Lee" || got.Suffix != "III" {
		t.Errorf("J2 = %+v", got)
	}
}

func TestLoadRoster_CustomColumnsAndEncoding(t *testing.T) {
	format := `format:
  delimiter: ";"
  encoding: windows-1252
  has_header: true
  columns:
    id: code
    first: prenom
    last: nom
`
	// "Ramírez" in windows-1252: í is 0xED.
	data := "code;nom;prenom\nR1;Ram\xedrez;Ana\n"
	dir := writeTestRoster(t, "latin", format, "data.csv", data)

	ro, err := LoadRoster(filepath.Join(dir, "latin"))
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if got := ro.Entries["R1"].Last; got != "Ramírez" {
		t.Errorf("last = %q, want Ramírez", got)
	}
	res := ro.Index().Find("Ana Ramirez presiding", nil)
	if q := res.Quality("R1"); q != 0 {
		t.Errorf("quality = %d, want 0", q)
	}
}

func TestLoadRoster_MissingLastColumn(t *testing.T) {
	format := "format:\n  has_header: true\n  columns:\n    id: nid\n    last: surname\n"
	dir := writeTestRoster(t, "bad", format, "data.csv", "nid,name\n1,Doe\n")

	_, err := LoadRoster(filepath.Join(dir, "bad"))
	if err == nil || !strings.Contains(err.Error(), "surname") {
		t.Errorf("err = %v, want missing column error", err)
	}
}

func TestLoadRoster_JSON(t *testing.T) {
	data := `{
    "1001": {"nid": "1001", "First Name": "John", "Middle Name": "Quincy", "Last Name": "Doe", "Suffix": ""},
    "1003": {"nid": "1003", "First Name": "", "Middle Name": "", "Last Name": "Smith", "Suffix": "Jr."}
}`
	dir := writeTestRoster(t, "json", "", "judges.json", data)

	ro, err := LoadRoster(filepath.Join(dir, "json"))
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(ro.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(ro.Entries))
	}
	if got := ro.Entries["1001"]; got.ID != "1001" || got.Middle != "Quincy" {
		t.Errorf("1001 = %+v", got)
	}
}

func TestLoadRoster_PrefersGob(t *testing.T) {
	dir := writeTestRoster(t, "gob-pref", fjcFormat, "judges.csv", fjcCSV)
	rd := filepath.Join(dir, "gob-pref")

	gobEntries := namefind.Roster{"G1": {ID: "G1", First: "Gob", Last: "Only"}}
	if err := SaveGob(gobEntries, filepath.Join(rd, "data.gob")); err != nil {
		t.Fatalf("SaveGob: %v", err)
	}

	ro, err := LoadRoster(rd)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(ro.Entries) != 1 || ro.Entries["G1"].Last != "Only" {
		t.Errorf("entries = %+v, want gob data only", ro.Entries)
	}
}

func TestSaveGobEmptyRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.gob")
	if err := SaveGob(namefind.Roster{}, path); err != nil {
		t.Fatalf("SaveGob empty: %v", err)
	}
	got, err := loadGob(path)
	if err != nil {
		t.Fatalf("loadGob empty: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("entries = %#v, want empty map", got)
	}
}

func TestLoadManifest(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"minimal", "id: x\n", false},
		{"missing id", "version: \"1\"\n", true},
		{"named columns without header", "id: x\nformat:\n  columns:\n    id: nid\n    last: Last Name\n", true},
		{"bad yaml", "id: [\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.yaml")
			os.WriteFile(path, []byte(tt.yaml), 0o644)
			m, err := LoadManifest(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && m.DataFile != "data.csv" {
				t.Errorf("DataFile = %q, want data.csv", m.DataFile)
			}
		})
	}
}

func TestWriteManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	in := &Manifest{
		ID:        "fjc-article-iii",
		Version:   "2026-10-18",
		Source:    "Federal Judicial Center",
		DataFile:  "judges.csv",
		Format:    FormatSpec{Delimiter: ",", HasHeader: true, Columns: FJCColumns},
		SourceURL: "https://www.fjc.gov/sites/default/files/history/judges.csv",
	}
	if err := WriteManifest(path, in); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	out, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if out.ID != in.ID || out.Format != in.Format || out.SourceURL != in.SourceURL {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
