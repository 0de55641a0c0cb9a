package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/judgefinder/pkg/namefind"
)

// ErrUnknownRoster is returned when a roster ID is not loaded.
var ErrUnknownRoster = errors.New("unknown roster")

// ErrUnknownJudge is returned by Lookup when the roster has no such entry.
var ErrUnknownJudge = errors.New("unknown judge")

// Registry holds all loaded rosters and serves name-finding queries.
// Loaded rosters are immutable; Reload swaps the whole set.
type Registry struct {
	mu         sync.RWMutex
	rosters    map[string]*Roster
	rostersDir string
	workers    int
}

// NewRegistry creates a new empty registry for the given directory.
func NewRegistry(rostersDir string) *Registry {
	return &Registry{
		rosters:    make(map[string]*Roster),
		rostersDir: rostersDir,
		workers:    runtime.GOMAXPROCS(0),
	}
}

// SetWorkers bounds the goroutines FindBatch uses. n <= 0 restores the default.
func (r *Registry) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	r.mu.Lock()
	r.workers = n
	r.mu.Unlock()
}

// Load scans the rosters directory and loads every roster. On error the
// previously loaded set stays in place.
func (r *Registry) Load() (err error) {
	var loaded map[string]*Roster
	defer func() { recordLoad(loaded, err) }()

	entries, err := os.ReadDir(r.rostersDir)
	if err != nil {
		return fmt.Errorf("read rosters dir %s: %w", r.rostersDir, err)
	}

	loaded = make(map[string]*Roster)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.rostersDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		ro, err := LoadRoster(dir)
		if err != nil {
			return fmt.Errorf("load roster %s: %w", entry.Name(), err)
		}
		if _, dup := loaded[ro.Manifest.ID]; dup {
			return fmt.Errorf("load roster %s: duplicate id %q", entry.Name(), ro.Manifest.ID)
		}
		loaded[ro.Manifest.ID] = ro
	}

	r.mu.Lock()
	r.rosters = loaded
	r.mu.Unlock()
	return nil
}

// Reload reloads all rosters from disk (hot reload).
func (r *Registry) Reload() error {
	return r.Load()
}

// Add registers an in-memory roster, replacing any roster with the same ID.
func (r *Registry) Add(ro *Roster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make(map[string]*Roster, len(r.rosters)+1)
	for id, v := range r.rosters {
		next[id] = v
	}
	next[ro.Manifest.ID] = ro
	r.rosters = next
}

// Get returns a loaded roster.
func (r *Registry) Get(id string) (*Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(id)
}

// resolve finds a roster by ID. An empty ID selects the only loaded roster.
// Callers hold r.mu.
func (r *Registry) resolve(id string) (*Roster, error) {
	if id == "" {
		if len(r.rosters) == 1 {
			for _, ro := range r.rosters {
				return ro, nil
			}
		}
		return nil, fmt.Errorf("%w: a roster id is required when %d rosters are loaded", ErrUnknownRoster, len(r.rosters))
	}
	ro, ok := r.rosters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoster, id)
	}
	return ro, nil
}

// Find resolves judge names from one roster in text.
func (r *Registry) Find(rosterID, text string, opts *namefind.Options) (*namefind.Result, error) {
	ro, err := r.Get(rosterID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res := ro.index.Find(text, opts)
	recordFind(ro.Manifest.ID, res, time.Since(start))
	return res, nil
}

// FindBatch runs Find over texts in parallel. Results keep the input order.
func (r *Registry) FindBatch(ctx context.Context, rosterID string, texts []string, opts *namefind.Options) ([]*namefind.Result, error) {
	r.mu.RLock()
	ro, err := r.resolve(rosterID)
	workers := r.workers
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	results := make([]*namefind.Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res := ro.index.Find(text, opts)
			recordFind(ro.Manifest.ID, res, time.Since(start))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("find batch: %w", err)
	}
	return results, nil
}

// Judge is a roster entry with its normalized rendered name.
type Judge struct {
	namefind.Entry
	Roster string `json:"roster"`
	Name   string `json:"name"`
}

// Lookup returns one entry by ID.
func (r *Registry) Lookup(rosterID, judgeID string) (*Judge, error) {
	ro, err := r.Get(rosterID)
	if err != nil {
		return nil, err
	}
	e, ok := ro.index.Entry(judgeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q in roster %s", ErrUnknownJudge, judgeID, ro.Manifest.ID)
	}
	return &Judge{Entry: e, Roster: ro.Manifest.ID, Name: ro.index.Name(judgeID)}, nil
}

// Info is the public metadata for a loaded roster.
type Info struct {
	ID           string `json:"id"`
	Version      string `json:"version"`
	Court        string `json:"court,omitempty"`
	Jurisdiction string `json:"jurisdiction"`
	Source       string `json:"source"`
	SourceURL    string `json:"source_url,omitempty"`
	License      string `json:"license"`
	Entries      int    `json:"entries"`
}

// ListRosters returns metadata for all loaded rosters, sorted by ID.
func (r *Registry) ListRosters() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.rosters))
	for _, ro := range r.rosters {
		m := ro.Manifest
		infos = append(infos, Info{
			ID:           m.ID,
			Version:      m.Version,
			Court:        m.Court,
			Jurisdiction: m.Jurisdiction,
			Source:       m.Source,
			SourceURL:    m.SourceURL,
			License:      m.License,
			Entries:      len(ro.Entries),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// RosterCount returns the number of loaded rosters.
func (r *Registry) RosterCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rosters)
}

// TotalEntries returns the total number of entries across all rosters.
func (r *Registry) TotalEntries() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, ro := range r.rosters {
		total += len(ro.Entries)
	}
	return total
}
