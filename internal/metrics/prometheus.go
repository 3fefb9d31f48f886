package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_predictions_total",
			Help: "Total number of decisions produced",
		},
		[]string{"model_used", "label"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glucorisk_pipeline_duration_seconds",
			Help:    "Decision pipeline duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"path"},
	)

	ProbabilityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glucorisk_probability_score",
			Help:    "Probability of the positive class per decision",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.65, 0.7, 0.8, 0.9, 1.0},
		},
	)

	InferenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_inference_failures_total",
			Help: "Classifier calls that failed and fell back to rules",
		},
		[]string{"model"},
	)

	ThresholdAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_threshold_adjustments_total",
			Help: "Classifier labels changed by the threshold rules",
		},
		[]string{"rule"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "glucorisk_circuit_breaker_state",
			Help: "Circuit breaker state per model (0 closed, 1 half-open, 2 open)",
		},
		[]string{"model"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_store_errors_total",
			Help: "Prediction store operations that failed",
		},
		[]string{"operation"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucorisk_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	FeedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glucorisk_feed_subscribers",
			Help: "Connected live feed subscribers",
		},
	)

	ActiveModelInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "glucorisk_active_model_info",
			Help: "Set to 1 for the classifier chosen at startup",
		},
		[]string{"model"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Calling it
// more than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PredictionsTotal)
		prometheus.MustRegister(PipelineDuration)
		prometheus.MustRegister(ProbabilityScore)
		prometheus.MustRegister(InferenceFailures)
		prometheus.MustRegister(ThresholdAdjustments)
		prometheus.MustRegister(BreakerState)
		prometheus.MustRegister(StoreErrors)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(FeedSubscribers)
		prometheus.MustRegister(ActiveModelInfo)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
