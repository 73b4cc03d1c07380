package output

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

type PrometheusMetrics struct {
	ingestsTotal      prometheus.Counter
	ingestErrorsTotal prometheus.Counter
	ingestDuration    prometheus.Histogram
	rowsTotal         *prometheus.CounterVec
	detectionsTotal   *prometheus.CounterVec
	threatsGauge      prometheus.Gauge
	detectionsGauge   prometheus.Gauge
	lastIngestTime    prometheus.Gauge
	memoryUsage       prometheus.GaugeFunc

	gatherer  prometheus.Gatherer
	lastBatch atomic.Pointer[domain.Dataset]

	server *http.Server
	mu     sync.Mutex
}

type MetricsConfig struct {
	Addr string
	Path string
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Addr: ":9102",
		Path: "/metrics",
	}
}

// NewPrometheusMetrics registers the metric set on reg, or on the default
// registry when reg is nil. Passing a fresh registry keeps parallel test
// instances from colliding.
func NewPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if namespace == "" {
		namespace = "threattrend"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &PrometheusMetrics{gatherer: prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	m.ingestsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingests_total",
		Help:      "Total number of completed ingestion runs",
	})

	m.ingestErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_errors_total",
		Help:      "Total number of ingestion runs rejected with an error",
	})

	m.ingestDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Wall time of one ingest-correlate-reduce run",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	m.rowsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_total",
		Help:      "Log rows seen per kind and match outcome",
	}, []string{"kind", "outcome"})

	m.detectionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detections_total",
		Help:      "Detections produced by type",
	}, []string{"type"})

	m.threatsGauge = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "threats",
		Help:      "Articles in the current batch",
	})

	m.detectionsGauge = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "detections",
		Help:      "Detections in the current batch",
	})

	m.lastIngestTime = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_ingest_timestamp_seconds",
		Help:      "Unix time of the last completed ingestion",
	})

	m.memoryUsage = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "memory_bytes",
		Help:      "Current memory usage in bytes",
	}, func() float64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return float64(ms.Alloc)
	})

	return m
}

func (m *PrometheusMetrics) IncrementIngests() {
	m.ingestsTotal.Inc()
}

func (m *PrometheusMetrics) IncrementIngestErrors() {
	m.ingestErrorsTotal.Inc()
}

func (m *PrometheusMetrics) ObserveIngestDuration(seconds float64) {
	m.ingestDuration.Observe(seconds)
}

func (m *PrometheusMetrics) RecordBatch(ds *domain.Dataset) {
	if ds == nil {
		return
	}

	for _, kind := range []domain.LogKind{domain.KindMail, domain.KindNDR, domain.KindWAF} {
		ks := ds.Stats.ForKind(kind)
		if ks == nil {
			continue
		}
		m.rowsTotal.WithLabelValues(string(kind), "matched").Add(float64(ks.Matched))
		m.rowsTotal.WithLabelValues(string(kind), "unmatched").Add(float64(ks.Unmatched))
	}

	for t, n := range ds.CountByType() {
		m.detectionsTotal.WithLabelValues(string(t)).Add(float64(n))
	}

	m.threatsGauge.Set(float64(len(ds.Threats)))
	m.detectionsGauge.Set(float64(len(ds.Detections)))
	m.lastIngestTime.Set(float64(ds.LoadedAt.Unix()))
	m.lastBatch.Store(ds)
}

// OnDataset implements ports.DatasetSubscriber.
func (m *PrometheusMetrics) OnDataset(ds *domain.Dataset) {
	m.RecordBatch(ds)
}

type readiness struct {
	Ready      bool      `json:"ready"`
	BatchID    string    `json:"batch_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Threats    int       `json:"threats"`
	Detections int       `json:"detections"`
	Unmatched  int       `json:"unmatched_rows"`
}

// ServeReady reports whether at least one batch has been published, plus a
// short summary of the latest one. 503 until the first batch lands.
func (m *PrometheusMetrics) ServeReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ds := m.lastBatch.Load()
	if ds == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(readiness{Ready: false})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(readiness{
		Ready:      true,
		BatchID:    ds.BatchID.String(),
		Source:     ds.Source,
		LoadedAt:   ds.LoadedAt,
		Threats:    len(ds.Threats),
		Detections: len(ds.Detections),
		Unmatched:  ds.Stats.TotalUnmatched(),
	})
}

func (m *PrometheusMetrics) StartServer(config MetricsConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if config.Addr == "" {
		config.Addr = DefaultMetricsConfig().Addr
	}
	if config.Path == "" {
		config.Path = DefaultMetricsConfig().Path
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ready", m.ServeReady)

	m.server = &http.Server{
		Addr:              config.Addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", config.Addr).Str("path", config.Path).Msg("Starting Prometheus metrics server")
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return nil
}

func (m *PrometheusMetrics) StopServer() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return m.server.Close()
	}
	return nil
}
