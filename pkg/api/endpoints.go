package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/judgefinder/pkg/kit"
	"github.com/hazyhaar/judgefinder/pkg/namefind"
	"github.com/hazyhaar/judgefinder/pkg/roster"
)

// DefaultMaxBatch caps FindBatch requests when Config.MaxBatch is zero.
const DefaultMaxBatch = 100

// errBadRequest marks caller mistakes; transports map it to 400.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// Config tunes the endpoints.
type Config struct {
	DefaultMode namefind.Mode
	MaxBatch    int
	Logger      *slog.Logger
}

// Endpoints are the transport-agnostic actions shared by HTTP and MCP.
type Endpoints struct {
	Find        kit.Endpoint
	FindBatch   kit.Endpoint
	ListRosters kit.Endpoint
	Lookup      kit.Endpoint
	Suggest     kit.Endpoint

	reg *roster.Registry
}

// NewEndpoints builds the endpoints over reg, each wrapped with request IDs,
// logging and latency metrics.
func NewEndpoints(reg *roster.Registry, cfg Config) *Endpoints {
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = namefind.ModeBest
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Named(name), kit.RequestID(), kit.Logging(cfg.Logger), kit.Instrument())(ep)
	}
	return &Endpoints{
		Find:        wrap("find", findEndpoint(reg, cfg)),
		FindBatch:   wrap("find_batch", findBatchEndpoint(reg, cfg)),
		ListRosters: wrap("list_rosters", listRostersEndpoint(reg)),
		Lookup:      wrap("lookup", lookupEndpoint(reg)),
		Suggest:     wrap("suggest", suggestEndpoint(reg)),
		reg:         reg,
	}
}

// Shared request/response types used by both HTTP and MCP transports.

type findReq struct {
	Roster string
	Text   string
	Mode   string
	Subset []string
}

type findBatchReq struct {
	Roster string
	Texts  []string
	Mode   string
	Subset []string
}

type lookupReq struct {
	Roster string
	ID     string
}

type suggestReq struct {
	Roster string
	Last   string
	Limit  int
}

type findResponse struct {
	Roster string `json:"roster"`
	*namefind.Result
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Roster  string          `json:"roster"`
	Results []*findResponse `json:"results"`
}

type rostersResponse struct {
	Rosters []roster.Info `json:"rosters"`
}

type suggestResponse struct {
	Query       string              `json:"query"`
	Suggestions []roster.Suggestion `json:"suggestions"`
}

func options(cfg Config, mode string, subset []string) (*namefind.Options, error) {
	m := cfg.DefaultMode
	if mode != "" {
		var err error
		if m, err = namefind.ParseMode(mode); err != nil {
			return nil, badRequest("%v", err)
		}
	}
	return &namefind.Options{Mode: m, Subset: subset}, nil
}

func rosterID(reg *roster.Registry, id string) (string, error) {
	ro, err := reg.Get(id)
	if err != nil {
		return "", err
	}
	return ro.Manifest.ID, nil
}

func findEndpoint(reg *roster.Registry, cfg Config) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*findReq)
		opts, err := options(cfg, req.Mode, req.Subset)
		if err != nil {
			return nil, err
		}
		id, err := rosterID(reg, req.Roster)
		if err != nil {
			return nil, err
		}
		res, err := reg.Find(id, req.Text, opts)
		if err != nil {
			return nil, err
		}
		return &findResponse{Roster: id, Result: res, IDs: res.IDs()}, nil
	}
}

func findBatchEndpoint(reg *roster.Registry, cfg Config) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*findBatchReq)
		if len(req.Texts) == 0 {
			return nil, badRequest("texts array is empty")
		}
		if len(req.Texts) > cfg.MaxBatch {
			return nil, badRequest("too many texts (max %d, got %d)", cfg.MaxBatch, len(req.Texts))
		}
		opts, err := options(cfg, req.Mode, req.Subset)
		if err != nil {
			return nil, err
		}
		id, err := rosterID(reg, req.Roster)
		if err != nil {
			return nil, err
		}
		results, err := reg.FindBatch(ctx, id, req.Texts, opts)
		if err != nil {
			return nil, err
		}
		resp := batchResponse{Roster: id, Results: make([]*findResponse, len(results))}
		for i, res := range results {
			resp.Results[i] = &findResponse{Roster: id, Result: res, IDs: res.IDs()}
		}
		return resp, nil
	}
}

func listRostersEndpoint(reg *roster.Registry) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return rostersResponse{Rosters: reg.ListRosters()}, nil
	}
}

func lookupEndpoint(reg *roster.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*lookupReq)
		if req.ID == "" {
			return nil, badRequest("missing judge id")
		}
		return reg.Lookup(req.Roster, req.ID)
	}
}

func suggestEndpoint(reg *roster.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*suggestReq)
		if req.Last == "" {
			return nil, badRequest("missing surname")
		}
		s, err := reg.Suggest(req.Roster, req.Last, req.Limit)
		if err != nil {
			return nil, err
		}
		return suggestResponse{Query: req.Last, Suggestions: s}, nil
	}
}
