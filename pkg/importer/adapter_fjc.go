// CLAUDE:SUMMARY Import adapter for the FJC Biographical Directory of Article III federal judges (judges.csv).
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hazyhaar/judgefinder/pkg/roster"
)

func init() {
	Register(&fjcAdapter{})
}

type fjcAdapter struct{}

func (a *fjcAdapter) ID() string       { return "fjc-judges-us" }
func (a *fjcAdapter) RosterID() string { return "fjc-article-iii" }
func (a *fjcAdapter) Description() string {
	return "FJC Biographical Directory of Article III Federal Judges"
}
func (a *fjcAdapter) DefaultURL() string {
	return "https://www.fjc.gov/sites/default/files/history/judges.csv"
}
func (a *fjcAdapter) License() string { return "Public Domain" }

var fjcFormat = roster.FormatSpec{
	Delimiter: ",",
	Encoding:  "utf-8",
	HasHeader: true,
	Columns:   roster.FJCColumns,
}

func (a *fjcAdapter) Import(ctx context.Context, sourceURL, outputDir string) (*Result, error) {
	dir := filepath.Join(outputDir, a.RosterID())
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(dir, "judges.csv")
	tmpPath := filepath.Join(dir, "judges.download.csv")
	slog.Info("downloading roster", "adapter", a.ID(), "url", sourceURL)
	if err := downloadFile(ctx, sourceURL, tmpPath); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer os.Remove(tmpPath)

	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open download: %w", err)
	}
	entries, collisions, err := roster.ReadCSV(f, fjcFormat)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceURL, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("parse %s: no judges found", sourceURL)
	}
	if collisions > 0 {
		slog.Warn("duplicate nid in source", "adapter", a.ID(), "collisions", collisions)
	}

	// Only replace the previous roster once the new one parsed cleanly.
	backup, err := backupFile(filepath.Join(dir, "data.gob"))
	if err != nil {
		return nil, err
	}
	if err := roster.SaveGob(entries, filepath.Join(dir, "data.gob")); err != nil {
		return nil, fmt.Errorf("save gob: %w", err)
	}
	if err := os.Rename(tmpPath, csvPath); err != nil {
		return nil, fmt.Errorf("keep source csv: %w", err)
	}

	err = roster.WriteManifest(filepath.Join(dir, "manifest.yaml"), &roster.Manifest{
		ID:           a.RosterID(),
		Version:      time.Now().UTC().Format("2006-01-02"),
		Court:        "Article III courts",
		Jurisdiction: "us",
		Source:       a.Description(),
		SourceURL:    sourceURL,
		License:      a.License(),
		DataFile:     "judges.csv",
		Format:       fjcFormat,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("roster imported", "roster", a.RosterID(), "entries", len(entries), "backup", backup)
	return &Result{RosterID: a.RosterID(), Dir: dir, Entries: len(entries), Backup: backup}, nil
}
