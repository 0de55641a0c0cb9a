package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/judgefinder/pkg/kit"
	"github.com/hazyhaar/judgefinder/pkg/roster"
)

// maxBody bounds request bodies; docket texts are short but batches add up.
const maxBody = 4 << 20

// NewRouter returns an http.Handler with all judgefinder API routes.
func NewRouter(eps *Endpoints) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps}

	mux.HandleFunc("GET /v1/find", methodNotAllowed)
	mux.HandleFunc("POST /v1/find", h.handleFind)
	mux.HandleFunc("GET /v1/find/batch", methodNotAllowed)
	mux.HandleFunc("POST /v1/find/batch", h.handleFindBatch)
	mux.HandleFunc("GET /v1/rosters", h.handleListRosters)
	mux.HandleFunc("GET /v1/rosters/{roster}/judges/{id}", h.handleLookup)
	mux.HandleFunc("GET /v1/rosters/{roster}/suggest", h.handleSuggest)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return cors(requestID(mux))
}

type handler struct {
	eps *Endpoints
}

// --- find ---

type httpFindRequest struct {
	Roster string   `json:"roster"`
	Text   string   `json:"text"`
	Mode   string   `json:"mode,omitempty"`
	Subset []string `json:"subset,omitempty"`
}

func (h *handler) handleFind(w http.ResponseWriter, r *http.Request) {
	var req httpFindRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.eps.Find(r.Context(), &findReq{Roster: req.Roster, Text: req.Text, Mode: req.Mode, Subset: req.Subset})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- find batch ---

type httpBatchRequest struct {
	Roster string   `json:"roster"`
	Texts  []string `json:"texts"`
	Mode   string   `json:"mode,omitempty"`
	Subset []string `json:"subset,omitempty"`
}

func (h *handler) handleFindBatch(w http.ResponseWriter, r *http.Request) {
	var req httpBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.eps.FindBatch(r.Context(), &findBatchReq{Roster: req.Roster, Texts: req.Texts, Mode: req.Mode, Subset: req.Subset})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- rosters ---

func (h *handler) handleListRosters(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.ListRosters(r.Context(), nil)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Lookup(r.Context(), &lookupReq{Roster: r.PathValue("roster"), ID: r.PathValue("id")})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	resp, err := h.eps.Suggest(r.Context(), &suggestReq{Roster: r.PathValue("roster"), Last: q.Get("last"), Limit: limit})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status       string `json:"status"`
	Rosters      int    `json:"rosters"`
	TotalEntries int    `json:"total_entries"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Rosters:      h.eps.reg.RosterCount(),
		TotalEntries: h.eps.reg.TotalEntries(),
	})
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeErr maps endpoint errors to HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, roster.ErrUnknownRoster), errors.Is(err, roster.ErrUnknownJudge):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
