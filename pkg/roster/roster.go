package roster

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/hazyhaar/judgefinder/pkg/namefind"
)

// Roster is one loaded roster with its manifest and prepared match index.
type Roster struct {
	Manifest *Manifest       `json:"manifest"`
	Entries  namefind.Roster `json:"-"`
	index    *namefind.Index
}

// LoadRoster reads a manifest.yaml and loads data from gob, JSON or CSV.
func LoadRoster(dir string) (*Roster, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, err
	}

	r := &Roster{Manifest: manifest, Entries: make(namefind.Roster)}

	// Gob takes priority over the declared data file.
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		if r.Entries, err = loadGob(gobPath); err != nil {
			return nil, fmt.Errorf("roster %s: %w", manifest.ID, err)
		}
	} else {
		dataPath := filepath.Join(dir, manifest.DataFile)
		if strings.EqualFold(filepath.Ext(dataPath), ".json") {
			err = r.loadJSON(dataPath)
		} else {
			err = r.loadCSV(dataPath)
		}
		if err != nil {
			return nil, fmt.Errorf("roster %s: %w", manifest.ID, err)
		}
	}

	r.index = namefind.NewIndex(r.Entries)
	return r, nil
}

// New wraps an in-memory roster, for callers that do not read from disk.
func New(m *Manifest, entries namefind.Roster) *Roster {
	return &Roster{Manifest: m, Entries: entries, index: namefind.NewIndex(entries)}
}

// Index returns the prepared match index.
func (r *Roster) Index() *namefind.Index { return r.index }

// ReadCSV parses roster rows from rd using f. It is shared by the loader and the importer.
func ReadCSV(rd io.Reader, f FormatSpec) (namefind.Roster, int, error) {
	if enc := f.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, 0, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		rd = transform.NewReader(rd, e.NewDecoder())
	}

	cr := csv.NewReader(rd)
	if delim := f.Delimiter; delim != "" {
		cr.Comma = []rune(delim)[0]
	}
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var header []string
	if f.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("read header: %w", err)
		}
		header = make([]string, len(h))
		for i := range h {
			// FJC exports start with a UTF-8 BOM.
			header[i] = strings.TrimSpace(strings.TrimPrefix(h[i], "\ufeff"))
		}
	}

	idx, err := columnIndexes(f.Columns, header)
	if err != nil {
		return nil, 0, err
	}

	out := make(namefind.Roster)
	var collisions int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}
		e := namefind.Entry{
			ID:     cell(record, idx[0]),
			First:  cell(record, idx[1]),
			Middle: cell(record, idx[2]),
			Last:   cell(record, idx[3]),
			Suffix: cell(record, idx[4]),
		}
		if e.ID == "" {
			continue
		}
		if _, exists := out[e.ID]; exists {
			collisions++
		}
		out[e.ID] = e
	}
	return out, collisions, nil
}

func (r *Roster) loadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	entries, collisions, err := ReadCSV(f, r.Manifest.Format)
	if err != nil {
		return err
	}
	if collisions > 0 {
		slog.Warn("duplicate ids in roster data", "roster", r.Manifest.ID, "collisions", collisions)
	}
	r.Entries = entries
	return nil
}

// loadJSON reads an object of rows keyed by ID, each row an object of column name to value.
func (r *Roster) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	var rows map[string]map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	c := r.Manifest.Format.Columns
	if !r.Manifest.Format.HasHeader && c == positionalColumns {
		c = FJCColumns
	}
	for id, row := range rows {
		r.Entries[id] = namefind.Entry{
			ID:     id,
			First:  strings.TrimSpace(row[c.First]),
			Middle: strings.TrimSpace(row[c.Middle]),
			Last:   strings.TrimSpace(row[c.Last]),
			Suffix: strings.TrimSpace(row[c.Suffix]),
		}
	}
	return nil
}

// columnIndexes resolves id, first, middle, last, suffix to record positions; -1 means absent.
func columnIndexes(c ColumnSpec, header []string) ([5]int, error) {
	var idx [5]int
	for i, name := range c.fields() {
		idx[i] = -1
		if name == "" {
			continue
		}
		if header == nil {
			n, err := strconv.Atoi(name)
			if err != nil {
				return idx, fmt.Errorf("column %q is not an index", name)
			}
			idx[i] = n
			continue
		}
		for j, h := range header {
			if h == name {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 && (i == 0 || i == 3) {
			return idx, fmt.Errorf("column %q not found in header %v", name, header)
		}
	}
	return idx, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
