package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "victoryfairy"

// Recorder owns the process metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	pollTicks           *prometheus.CounterVec
	pollLatency         prometheus.Histogram
	sourceFailures      *prometheus.CounterVec
	armedJobs           *prometheus.GaugeVec
	jobRuns             *prometheus.CounterVec
	reconciledRecords   *prometheus.CounterVec
	rankingSyncFailures *prometheus.CounterVec
	crawledGames        prometheus.Counter
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_poll_ticks_total",
			Help:      "Score poll ticks grouped by outcome.",
		}, []string{"outcome"}),
		pollLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_poll_tick_seconds",
			Help:      "Duration of one score poll tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_source_failures_total",
			Help:      "Failed sub-requests to the score source.",
		}, []string{"operation"}),
		armedJobs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_armed_jobs",
			Help:      "Currently armed scheduler jobs by kind.",
		}, []string{"kind"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduler job invocations by kind.",
		}, []string{"kind"}),
		reconciledRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_reconciled_total",
			Help:      "Attendance records resolved by status.",
		}, []string{"status"}),
		rankingSyncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_sync_failures_total",
			Help:      "Leaderboard cache writes that failed after commit.",
		}, []string{"operation"}),
		crawledGames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_crawled_games_total",
			Help:      "Game rows upserted by the schedule crawl.",
		}),
	}

	reg.MustRegister(
		r.pollTicks,
		r.pollLatency,
		r.sourceFailures,
		r.armedJobs,
		r.jobRuns,
		r.reconciledRecords,
		r.rankingSyncFailures,
		r.crawledGames,
	)

	return r
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObservePollTick(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.pollTicks.WithLabelValues(outcome).Inc()
	r.pollLatency.Observe(elapsed.Seconds())
}

func (r *Recorder) IncSourceFailure(operation string) {
	if r == nil {
		return
	}
	r.sourceFailures.WithLabelValues(operation).Inc()
}

func (r *Recorder) SetArmedJobs(kind string, count int) {
	if r == nil {
		return
	}
	r.armedJobs.WithLabelValues(kind).Set(float64(count))
}

func (r *Recorder) IncJobRun(kind string) {
	if r == nil {
		return
	}
	r.jobRuns.WithLabelValues(kind).Inc()
}

func (r *Recorder) AddReconciled(status string, count int) {
	if r == nil || count <= 0 {
		return
	}
	r.reconciledRecords.WithLabelValues(status).Add(float64(count))
}

func (r *Recorder) IncRankingSyncFailure(operation string) {
	if r == nil {
		return
	}
	r.rankingSyncFailures.WithLabelValues(operation).Inc()
}

func (r *Recorder) AddCrawledGames(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.crawledGames.Add(float64(count))
}
