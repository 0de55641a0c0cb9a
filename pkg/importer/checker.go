package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Checker periodically sends HEAD requests to every roster source URL and
// records whether the publisher still serves it.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// CheckSummary counts the outcome of one CheckAll pass.
type CheckSummary struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// NewChecker creates a Checker that will verify source URLs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every source and persists each result.
func (c *Checker) CheckAll(ctx context.Context) CheckSummary {
	var sum CheckSummary
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return sum
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		sum.Total++
		if c.check(ctx, src) {
			sum.OK++
		} else {
			sum.Failed++
		}
	}

	if sum.Total > 0 {
		c.logger.Info("source check complete", "total", sum.Total, "ok", sum.OK, "failed", sum.Failed)
	}
	return sum
}

// Check checks a single source by adapter ID.
func (c *Checker) Check(ctx context.Context, adapterID string) (*Source, error) {
	src, err := c.sources.GetSource(adapterID)
	if err != nil {
		return nil, err
	}
	c.check(ctx, *src)
	return c.sources.GetSource(adapterID)
}

func (c *Checker) check(ctx context.Context, src Source) bool {
	status, checkErr := c.head(ctx, src.SourceURL)
	errMsg := ""
	if checkErr != nil {
		errMsg = checkErr.Error()
	}

	if err := c.sources.UpdateCheck(src.AdapterID, status, errMsg); err != nil {
		c.logger.Error("source check: update", "adapter", src.AdapterID, "error", err)
	}

	if status >= 200 && status < 400 {
		return true
	}
	c.logger.Warn("source unreachable",
		"adapter", src.AdapterID,
		"url", src.SourceURL,
		"status", status,
		"error", errMsg,
	)
	return false
}

// head performs a single HEAD request and returns the HTTP status code.
// On network error, status is 0.
func (c *Checker) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
