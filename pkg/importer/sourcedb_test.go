package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeAdapter implements Adapter for test seeding.
type fakeAdapter struct {
	id, rosterID, desc, url, license string
}

func (f *fakeAdapter) ID() string          { return f.id }
func (f *fakeAdapter) RosterID() string    { return f.rosterID }
func (f *fakeAdapter) Description() string { return f.desc }
func (f *fakeAdapter) DefaultURL() string  { return f.url }
func (f *fakeAdapter) License() string     { return f.license }
func (f *fakeAdapter) Import(context.Context, string, string) (*Result, error) {
	return &Result{RosterID: f.rosterID}, nil
}

func tempSourceDB(t *testing.T) *SourceDB {
	t.Helper()
	sdb, err := OpenSourceDB(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return sdb
}

func TestOpenSourceDB_CreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	sdb, err := OpenSourceDB(path)
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	defer sdb.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources on empty db: %v", err)
	}
	if len(sources) != 0 {
		t.Fatalf("expected 0 sources, got %d", len(sources))
	}
}

func TestSeed_KeepsOverrides(t *testing.T) {
	sdb := tempSourceDB(t)

	if err := sdb.Seed([]Adapter{&fakeAdapter{"fjc", "r1", "desc", "https://example.com/judges.csv", "Public Domain"}}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := sdb.SetURL("fjc", "https://mirror.example.com/judges.csv"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}
	// A restart seeds again with the default URL.
	if err := sdb.Seed([]Adapter{&fakeAdapter{"fjc", "r1", "desc", "https://example.com/judges.csv", "Public Domain"}}); err != nil {
		t.Fatalf("Seed again: %v", err)
	}

	url, err := sdb.GetURL("fjc")
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if url != "https://mirror.example.com/judges.csv" {
		t.Errorf("url = %s, want the override", url)
	}
}

func TestUnknownSource(t *testing.T) {
	sdb := tempSourceDB(t)

	if _, err := sdb.GetURL("nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("GetURL err = %v, want ErrUnknownSource", err)
	}
	if err := sdb.SetURL("nope", "https://example.com"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("SetURL err = %v, want ErrUnknownSource", err)
	}
	if err := sdb.RecordImport("nope", 3); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("RecordImport err = %v, want ErrUnknownSource", err)
	}
	if _, err := sdb.GetSource("nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("GetSource err = %v, want ErrUnknownSource", err)
	}
}

func TestUpdateCheck(t *testing.T) {
	sdb := tempSourceDB(t)
	if err := sdb.Seed([]Adapter{&fakeAdapter{"a1", "r1", "desc1", "https://example.com/a1", "CC0"}}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if err := sdb.UpdateCheck("a1", 200, ""); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	src, err := sdb.GetSource("a1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if !src.Healthy() || src.LastCheck == nil || src.LastError != nil {
		t.Fatalf("after 200: %+v", src)
	}

	if err := sdb.UpdateCheck("a1", 404, "not found"); err != nil {
		t.Fatalf("UpdateCheck with error: %v", err)
	}
	src, _ = sdb.GetSource("a1")
	if src.Healthy() {
		t.Error("404 source reported healthy")
	}
	if src.LastError == nil || *src.LastError != "not found" {
		t.Fatalf("last_error = %v, want 'not found'", src.LastError)
	}
}

func TestRecordImport(t *testing.T) {
	sdb := tempSourceDB(t)
	if err := sdb.Seed([]Adapter{&fakeAdapter{"a1", "r1", "desc1", "https://example.com/a1", "CC0"}}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	src, _ := sdb.GetSource("a1")
	if src.LastImport != nil || src.Entries != nil {
		t.Fatalf("fresh source has import data: %+v", src)
	}

	if err := sdb.RecordImport("a1", 3885); err != nil {
		t.Fatalf("RecordImport: %v", err)
	}
	src, _ = sdb.GetSource("a1")
	if src.LastImport == nil || src.Entries == nil || *src.Entries != 3885 {
		t.Errorf("after import: %+v", src)
	}
}

func TestListSources_Order(t *testing.T) {
	sdb := tempSourceDB(t)

	adapters := []Adapter{
		&fakeAdapter{"z-last", "r1", "desc1", "https://example.com/z", "CC0"},
		&fakeAdapter{"a-first", "r2", "desc2", "https://example.com/a", "CC0"},
	}
	if err := sdb.Seed(adapters); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 || sources[0].AdapterID != "a-first" || sources[1].RosterID != "r1" {
		t.Fatalf("sources = %+v", sources)
	}
}
