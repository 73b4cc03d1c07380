package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beomseockjeong/threat-trend-detection/internal/adapters/match"
	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/ports"
)

type stubIngestor struct {
	wb  *domain.Workbook
	err error
}

func (s stubIngestor) Ingest(_ context.Context, _ string) (*domain.Workbook, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.wb, nil
}

type captureSub struct {
	datasets []*domain.Dataset
}

func (c *captureSub) OnDataset(ds *domain.Dataset) {
	c.datasets = append(c.datasets, ds)
}

func testFactory(variant domain.LayoutVariant, threats []domain.Threat) ports.RowMatcher {
	if variant == domain.LayoutLabeled {
		return match.NewTitleMatcher(threats)
	}
	return match.NewKeywordMatcher(threats)
}

func TestPipeline_EndToEnd(t *testing.T) {
	wb := &domain.Workbook{
		Source:  "report.xlsx",
		Variant: domain.LayoutPositional,
		Sheets:  3,
		Threats: []domain.Threat{{ID: 1, Title: "랜섬웨어 공격 증가"}},
		Ndr: []domain.NdrRow{
			{RuleName: "랜섬웨어 C2 Callback", LogSource: "sensor-01", SrcIP: "10.0.0.8", Count: 4},
		},
		Waf: []domain.WafRow{
			{URLDomain: "공격도구.example.com", RuleName: "SQLI-01", Count: 3},
		},
	}

	p := NewPipeline(stubIngestor{wb: wb}, testFactory, nil)
	ds, err := p.Analyze(context.Background(), "report.xlsx")
	require.NoError(t, err)

	require.Len(t, ds.Detections, 1)
	d := ds.Detections[0]
	assert.Equal(t, 1, d.ID)
	assert.Equal(t, 1, d.ThreatID)
	assert.Equal(t, domain.DetectionNDRWAF, d.Type)
	assert.Equal(t, 7, d.Count)

	assert.Equal(t, 1, ds.Stats.NDR.Rows)
	assert.Equal(t, 1, ds.Stats.NDR.Matched)
	assert.Equal(t, 1, ds.Stats.WAF.Matched)
	assert.Equal(t, 0, ds.Stats.TotalUnmatched())

	assert.Same(t, ds, p.Current())
	assert.NotEqual(t, "", ds.BatchID.String())
}

func TestPipeline_StopwordOnlyTitleYieldsNothing(t *testing.T) {
	wb := &domain.Workbook{
		Source:  "report.xlsx",
		Variant: domain.LayoutPositional,
		Sheets:  2,
		Threats: []domain.Threat{{ID: 1, Title: "또한 및 의"}},
		Ndr: []domain.NdrRow{
			{RuleName: "또한 및 의 관련 탐지", Count: 3},
		},
	}

	p := NewPipeline(stubIngestor{wb: wb}, testFactory, nil)
	ds, err := p.Analyze(context.Background(), "report.xlsx")
	require.NoError(t, err)

	assert.Empty(t, ds.Detections)
	assert.Equal(t, 1, ds.Stats.NDR.Unmatched)
}

func TestPipeline_LabeledVariant(t *testing.T) {
	wb := &domain.Workbook{
		Source:  "report.xlsx",
		Variant: domain.LayoutLabeled,
		Sheets:  2,
		Threats: []domain.Threat{{ID: 1, Title: "랜섬웨어 공격 증가"}},
		Ndr: []domain.NdrRow{
			{RuleName: "Rule_A", Count: 2, ArticleTitle: "랜섬웨어 공격 증가"},
			{RuleName: "Rule_B", Count: 1, ArticleTitle: "목록에 없는 기사"},
		},
	}

	p := NewPipeline(stubIngestor{wb: wb}, testFactory, nil)
	ds, err := p.Analyze(context.Background(), "report.xlsx")
	require.NoError(t, err)

	require.Len(t, ds.Detections, 2)
	assert.Equal(t, 1, ds.Detections[0].ThreatID)
	assert.Equal(t, 2, ds.Detections[0].Count)
	assert.False(t, ds.Detections[1].HasThreat())
	assert.Equal(t, "목록에 없는 기사", ds.Detections[1].Title)
}

func TestPipeline_SubscribersNotified(t *testing.T) {
	wb := &domain.Workbook{Source: "report.xlsx", Variant: domain.LayoutPositional}

	sub := &captureSub{}
	p := NewPipeline(stubIngestor{wb: wb}, testFactory, nil)
	p.AddSubscriber(sub)

	ds, err := p.Analyze(context.Background(), "report.xlsx")
	require.NoError(t, err)

	require.Len(t, sub.datasets, 1)
	assert.Same(t, ds, sub.datasets[0])
}

func TestPipeline_IngestErrorKeepsNoDataset(t *testing.T) {
	p := NewPipeline(stubIngestor{err: errors.New("corrupt workbook")}, testFactory, nil)

	_, err := p.Analyze(context.Background(), "broken.xlsx")
	require.Error(t, err)
	assert.Nil(t, p.Current())
}

func TestPipeline_NewBatchReplacesPrevious(t *testing.T) {
	first := &domain.Workbook{Source: "first.xlsx", Variant: domain.LayoutPositional}
	second := &domain.Workbook{Source: "second.xlsx", Variant: domain.LayoutPositional}

	p := NewPipeline(stubIngestor{wb: first}, testFactory, nil)
	ds1, err := p.Analyze(context.Background(), "first.xlsx")
	require.NoError(t, err)

	p.ingestor = stubIngestor{wb: second}
	ds2, err := p.Analyze(context.Background(), "second.xlsx")
	require.NoError(t, err)

	assert.NotEqual(t, ds1.BatchID, ds2.BatchID)
	assert.Same(t, ds2, p.Current())
	assert.Equal(t, "second.xlsx", p.Current().Source)
}
