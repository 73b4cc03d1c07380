package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/ports"
)

// MatcherFactory builds the row matcher for one ingested workbook. The layout
// variant selects the strategy; the threat list seeds it.
type MatcherFactory func(variant domain.LayoutVariant, threats []domain.Threat) ports.RowMatcher

type Pipeline struct {
	ingestor ports.WorkbookIngestor
	matchers MatcherFactory
	metrics  ports.MetricsCollector

	subs []ports.DatasetSubscriber
	mu   sync.Mutex

	runMu   sync.Mutex
	current atomic.Pointer[domain.Dataset]
}

func NewPipeline(ingestor ports.WorkbookIngestor, matchers MatcherFactory, metrics ports.MetricsCollector) *Pipeline {
	return &Pipeline{
		ingestor: ingestor,
		matchers: matchers,
		metrics:  metrics,
	}
}

func (p *Pipeline) AddSubscriber(sub ports.DatasetSubscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, sub)
}

// Analyze runs one full batch: ingest the workbook, match and aggregate every
// log row, reduce, and publish the resulting dataset. The new dataset
// replaces the previous one atomically; there is no partial replacement.
func (p *Pipeline) Analyze(ctx context.Context, path string) (*domain.Dataset, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := time.Now()

	wb, err := p.ingestor.Ingest(ctx, path)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncrementIngestErrors()
		}
		return nil, err
	}

	ds := p.assemble(wb)
	p.current.Store(ds)

	if p.metrics != nil {
		p.metrics.IncrementIngests()
		p.metrics.ObserveIngestDuration(time.Since(start).Seconds())
		p.metrics.RecordBatch(ds)
	}

	log.Info().
		Str("source", ds.Source).
		Str("variant", ds.Stats.Variant).
		Int("threats", len(ds.Threats)).
		Int("detections", len(ds.Detections)).
		Int("rows", ds.Stats.TotalRows()).
		Int("unmatched", ds.Stats.TotalUnmatched()).
		Dur("elapsed", time.Since(start)).
		Msg("Workbook analyzed")

	p.publish(ds)
	return ds, nil
}

func (p *Pipeline) assemble(wb *domain.Workbook) *domain.Dataset {
	ds := domain.NewDataset(wb.Source)
	ds.Threats = wb.Threats
	ds.Stats = domain.IngestStats{
		Variant: string(wb.Variant),
		Sheets:  wb.Sheets,
		Threats: len(wb.Threats),
	}

	matcher := p.matchers(wb.Variant, wb.Threats)
	agg := NewAggregator(matcher, wb.Threats)

	for _, row := range wb.Mail {
		record(&ds.Stats.Mail, agg.Add(row))
	}
	for _, row := range wb.Ndr {
		record(&ds.Stats.NDR, agg.Add(row))
	}
	for _, row := range wb.Waf {
		record(&ds.Stats.WAF, agg.Add(row))
	}

	ds.Detections = Reduce(agg.Candidates())
	return ds
}

func record(stats *domain.KindStats, matched bool) {
	stats.Rows++
	if matched {
		stats.Matched++
	} else {
		stats.Unmatched++
	}
}

// Current returns the last published dataset, nil before the first batch.
func (p *Pipeline) Current() *domain.Dataset {
	return p.current.Load()
}

func (p *Pipeline) publish(ds *domain.Dataset) {
	p.mu.Lock()
	subs := make([]ports.DatasetSubscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, sub := range subs {
		sub.OnDataset(ds)
	}
}

// Watch re-runs the analysis whenever the notifier reports a changed
// workbook. It returns when the context is canceled or the notifier closes
// its path channel. A failed re-analysis keeps the previous dataset.
func (p *Pipeline) Watch(ctx context.Context, notifier ports.ChangeNotifier) error {
	paths, errs := notifier.Start(ctx)
	defer func() {
		if err := notifier.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping workbook watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Error().Err(err).Msg("Workbook watch error")
		case path, ok := <-paths:
			if !ok {
				return nil
			}
			if _, err := p.Analyze(ctx, path); err != nil {
				log.Error().Err(err).Str("path", path).Msg("Re-analysis failed, keeping previous dataset")
			}
		}
	}
}
