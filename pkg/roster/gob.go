// CLAUDE:SUMMARY Gob serialization of roster entries for fast loading.
package roster

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/hazyhaar/judgefinder/pkg/namefind"
)

func loadGob(path string) (namefind.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var entries namefind.Roster
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	if entries == nil {
		entries = make(namefind.Roster)
	}
	return entries, nil
}

// SaveGob serializes entries to a gob-encoded file at path.
func SaveGob(entries namefind.Roster, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		f.Close()
		return fmt.Errorf("encode gob: %w", err)
	}
	return f.Close()
}
