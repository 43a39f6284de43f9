// Package telemetry exposes Prometheus metrics for scoring runs.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/scoring"
)

// #region metrics
var (
	// scoresTotal counts computed scores by verdict
	scoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmf_scores_total",
		Help: "Total PMF scores computed by verdict",
	}, []string{"verdict"})

	// hardKillsTotal counts hard kills by condition
	hardKillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmf_hard_kills_total",
		Help: "Total hard kills by condition code",
	}, []string{"code"})

	// scoreValue tracks the distribution of final scores
	scoreValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmf_score",
		Help:    "Final PMF score",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})

	// penaltiesCapped counts scores whose penalties hit the cap
	penaltiesCapped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmf_penalties_capped_total",
		Help: "Total scores whose penalty total was capped",
	})

	// judgeCallsTotal counts qualitative judge calls by result
	judgeCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmf_judge_calls_total",
		Help: "Total qualitative judge calls by result",
	}, []string{"result"})
)

// #endregion metrics

// #region record
// RecordScore records one computed result.
func RecordScore(res scoring.Result) {
	scoresTotal.WithLabelValues(string(res.Verdict)).Inc()
	scoreValue.Observe(float64(res.Score))
	if res.HardKill != nil {
		hardKillsTotal.WithLabelValues(res.HardKill.Code).Inc()
	}
	if res.Penalties.Capped {
		penaltiesCapped.Inc()
	}
}

// RecordJudgeCall records the outcome of one judge call.
func RecordJudgeCall(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	judgeCallsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the default registry in the text exposition format,
// for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// #endregion record
