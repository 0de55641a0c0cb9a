package roster

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hazyhaar/judgefinder/pkg/namefind"
)

var (
	// findTotal counts Find calls by roster and mode.
	findTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "judgefinder",
		Subsystem: "find",
		Name:      "requests_total",
		Help:      "Find calls by roster and mode",
	}, []string{"roster", "mode"})

	// matchesTotal counts surviving matches by roster and quality code.
	matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "judgefinder",
		Subsystem: "find",
		Name:      "matches_total",
		Help:      "Matches returned by roster and quality code",
	}, []string{"roster", "quality"})

	findSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "judgefinder",
		Subsystem: "find",
		Name:      "duration_seconds",
		Help:      "Time spent resolving names in one text",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"roster"})

	rosterEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "judgefinder",
		Subsystem: "roster",
		Name:      "entries",
		Help:      "Entries per loaded roster",
	}, []string{"roster"})

	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "judgefinder",
		Subsystem: "roster",
		Name:      "reloads_total",
		Help:      "Roster directory loads by outcome",
	}, []string{"status"})
)

var qualityLabels = [...]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

func recordFind(roster string, res *namefind.Result, elapsed time.Duration) {
	findTotal.WithLabelValues(roster, string(res.Mode)).Inc()
	findSeconds.WithLabelValues(roster).Observe(elapsed.Seconds())
	for _, s := range res.Spans {
		for _, m := range s.Matches {
			if m.Quality >= 0 && m.Quality < len(qualityLabels) {
				matchesTotal.WithLabelValues(roster, qualityLabels[m.Quality]).Inc()
			}
		}
	}
}

func recordLoad(rosters map[string]*Roster, err error) {
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	reloadsTotal.WithLabelValues("ok").Inc()
	rosterEntries.Reset()
	for id, r := range rosters {
		rosterEntries.WithLabelValues(id).Set(float64(len(r.Entries)))
	}
}
