package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter downloads a judge roster from an upstream publisher and writes it
// as a roster directory (data.gob + manifest.yaml) the registry can load.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "fjc-judges-us").
	ID() string
	// RosterID returns the target roster ID (e.g. "fjc-article-iii").
	RosterID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license of the upstream data.
	License() string
	// Import downloads the source from sourceURL and writes the roster into
	// a subdirectory of outputDir named after RosterID().
	Import(ctx context.Context, sourceURL, outputDir string) (*Result, error)
}

// Result summarizes one completed import.
type Result struct {
	RosterID string `json:"roster_id"`
	Dir      string `json:"dir"`
	Entries  int    `json:"entries"`
	// Backup is the path the previous data.gob was moved to, if there was one.
	Backup string `json:"backup,omitempty"`
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
