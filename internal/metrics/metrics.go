package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the training engine
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted *prometheus.CounterVec // outcome: "target_reached", "capped"
	SessionsActive    prometheus.Gauge
	IterationsTotal   *prometheus.CounterVec // result: "passed", "failed"

	// Test metrics
	TestsGenerated    prometheus.Counter
	AttemptsGraded    *prometheus.CounterVec // passed: "true", "false"
	QuestionFallbacks prometheus.Counter
	GradingFallbacks  prometheus.Counter

	// Provider metrics
	ProviderRequests *prometheus.CounterVec // provider_id
	ProviderErrors   *prometheus.CounterVec // provider_id
	ProviderLatency  *prometheus.HistogramVec

	// Scheduler metrics
	TickDuration      prometheus.Histogram
	SessionsProcessed prometheus.Counter
	SessionsSkipped   *prometheus.CounterVec // reason
	VersionConflicts  prometheus.Counter

	// System metrics
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	EventsPublished *prometheus.CounterVec // type
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// New creates and registers all Prometheus metrics. Registration happens once
// per process; subsequent calls return the shared instance.
func New() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_training_sessions_started_total",
				Help: "Total number of training sessions started",
			}),
			SessionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_training_sessions_completed_total",
				Help: "Total number of training sessions completed, by outcome",
			}, []string{"outcome"}),
			SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "praxis_training_sessions_active",
				Help: "Number of sessions currently in progress",
			}),
			IterationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_training_iterations_total",
				Help: "Total number of progression iterations, by result",
			}, []string{"result"}),
			TestsGenerated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_training_tests_generated_total",
				Help: "Total number of competency tests generated",
			}),
			AttemptsGraded: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_training_attempts_graded_total",
				Help: "Total number of test attempts graded, by pass/fail",
			}, []string{"passed"}),
			QuestionFallbacks: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_training_question_fallbacks_total",
				Help: "Times question generation fell back to the placeholder set",
			}),
			GradingFallbacks: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_training_grading_fallbacks_total",
				Help: "Times free-response grading fell back to partial credit",
			}),
			ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_provider_requests_total",
				Help: "Total requests sent to AI providers",
			}, []string{"provider_id"}),
			ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_provider_errors_total",
				Help: "Total failed requests to AI providers",
			}, []string{"provider_id"}),
			ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "praxis_provider_latency_seconds",
				Help:    "Latency of AI provider requests",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
			}, []string{"provider_id"}),
			TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "praxis_scheduler_tick_duration_seconds",
				Help:    "Duration of scheduler ticks",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			}),
			SessionsProcessed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_scheduler_sessions_processed_total",
				Help: "Sessions advanced by the background scheduler",
			}),
			SessionsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_scheduler_sessions_skipped_total",
				Help: "Sessions skipped by the scheduler, by reason",
			}, []string{"reason"}),
			VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_training_version_conflicts_total",
				Help: "Session writes rejected by the optimistic version check",
			}),
			CacheHits: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_cache_hits_total",
				Help: "Cache hits",
			}),
			CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
				Name: "praxis_cache_misses_total",
				Help: "Cache misses",
			}),
			EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "praxis_events_published_total",
				Help: "Training events published, by type",
			}, []string{"type"}),
		}
	})
	return sharedMetrics
}
