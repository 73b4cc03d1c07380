package output

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

func testDataset() *domain.Dataset {
	mailDetail := domain.NewDetail()
	mailDetail.Set("수신일시", "2025-07-15 09:12, 2025-07-15 09:47")
	mailDetail.Set("메일제목", "[국세청] 세무조사 관련 피싱 안내문, 피싱 의심 메일 신고")
	mailDetail.Set("조치량", "유입 2건")

	ndrDetail := domain.NewDetail()
	ndrDetail.Set("NDR 탐지룰", "랜섬웨어 C2 비콘 탐지")
	ndrDetail.Set("조치량", "NDR 탐지 6건 / WAF 차단 3건")
	ndrDetail.Set("WAF 차단룰", "WEB-ATTACK-012")

	wafDetail := domain.NewDetail()
	wafDetail.Set("WAF 차단룰", "SCAN-007")
	wafDetail.Set("조치량", "차단 5건")

	ds := domain.NewDataset("report.xlsx")
	ds.Threats = []domain.Threat{
		{ID: 1, Title: "랜섬웨어 공격 증가", Source: "보안뉴스"},
		{ID: 2, Title: "대규모 피싱 메일 유포 주의보", Source: "전자신문"},
	}
	ds.Detections = []domain.Detection{
		{
			ID: 1, ThreatID: 2, Type: domain.DetectionMail,
			Title: "대규모 피싱 메일 유포 주의보",
			Label: "[Mail] 대규모 피싱 메일 유포 주의보 관련 메일 2건 유입",
			Count: 2, Action: "유입", Source: "메일게이트웨이", Detail: mailDetail,
		},
		{
			ID: 2, ThreatID: 1, Type: domain.DetectionNDRWAF,
			Title: "랜섬웨어 공격 증가",
			Label: "[NDR+WAF] 랜섬웨어 공격 증가 관련 이벤트 9건 탐지/차단",
			Count: 9, Action: "탐지/차단", Source: "NDR/WAF", Detail: ndrDetail,
		},
		{
			ID: 3, ThreatID: 0, Type: domain.DetectionWAF,
			Title: "목록에 없는 기사",
			Label: "[WAF] 목록에 없는 기사 관련 요청 5건 차단",
			Count: 5, Action: "차단", Source: "WAF", Detail: wafDetail,
		},
	}
	ds.Stats = domain.IngestStats{
		Variant: string(domain.LayoutPositional),
		Sheets:  5,
		Threats: 2,
		Mail:    domain.KindStats{Rows: 3, Matched: 2, Unmatched: 1},
		NDR:     domain.KindStats{Rows: 3, Matched: 2, Unmatched: 1},
		WAF:     domain.KindStats{Rows: 2, Matched: 2, Unmatched: 0},
	}
	return ds
}

func TestJSONReporter_WritesEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.jsonl")

	reporter, err := NewJSONReporter(JSONReporterConfig{FilePath: path})
	require.NoError(t, err)

	ds := testDataset()
	require.NoError(t, reporter.Write(context.Background(), ds))
	require.NoError(t, reporter.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var env reportEnvelope
	require.NoError(t, json.Unmarshal(data, &env))

	assert.Equal(t, ds.BatchID.String(), env.BatchID)
	assert.Equal(t, "report.xlsx", env.Source)
	assert.Equal(t, 2, env.Threats)
	assert.Equal(t, 8, env.Rows)
	assert.Equal(t, 2, env.Unmatched)
	require.Len(t, env.Detections, 3)

	// Resolved detections carry the threat id; unresolved ones carry null.
	require.NotNil(t, env.Detections[0].ThreatID)
	assert.Equal(t, 2, *env.Detections[0].ThreatID)
	assert.Nil(t, env.Detections[2].ThreatID)
	assert.Equal(t, "목록에 없는 기사", env.Detections[2].Title)

	// Detail keys survive in insertion order.
	assert.Equal(t,
		[]string{"NDR 탐지룰", "조치량", "WAF 차단룰"},
		env.Detections[1].Detail.Keys())
}

func TestJSONReporter_AppendsOneLinePerBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.jsonl")

	reporter, err := NewJSONReporter(JSONReporterConfig{FilePath: path})
	require.NoError(t, err)

	require.NoError(t, reporter.Write(context.Background(), testDataset()))
	require.NoError(t, reporter.Write(context.Background(), testDataset()))
	require.NoError(t, reporter.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var env reportEnvelope
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &env))
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 2, lines)
}

func TestJSONReporter_DiscardDestination(t *testing.T) {
	reporter, err := NewJSONReporter(JSONReporterConfig{})
	require.NoError(t, err)

	assert.NoError(t, reporter.Write(context.Background(), testDataset()))
	assert.NoError(t, reporter.Flush())
	assert.NoError(t, reporter.Close())
}

func TestJSONReporter_CanceledContext(t *testing.T) {
	reporter, err := NewJSONReporter(JSONReporterConfig{})
	require.NoError(t, err)
	defer reporter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, reporter.Write(ctx, testDataset()), context.Canceled)
}

func TestMemoryReporter(t *testing.T) {
	r := NewMemoryReporter(2)

	first := testDataset()
	second := testDataset()
	third := testDataset()

	require.NoError(t, r.Write(context.Background(), first))
	require.NoError(t, r.Write(context.Background(), second))
	r.OnDataset(third)

	assert.Equal(t, 2, r.Count())
	assert.Same(t, third, r.Latest())

	history := r.History()
	require.Len(t, history, 2)
	assert.Same(t, second, history[0])
	assert.Same(t, third, history[1])
}

func TestMemoryReporter_EmptyBuffer(t *testing.T) {
	r := NewMemoryReporter(0)
	assert.Nil(t, r.Latest())
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.History())
}
