package input

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/ports"
)

// SampleWorkbook returns the built-in demo batch: three articles with log
// rows exercising every detection type, including the NDR/WAF merge and a
// couple of rows that match nothing.
func SampleWorkbook() *domain.Workbook {
	return &domain.Workbook{
		Source:  "sample",
		Variant: domain.LayoutPositional,
		Sheets:  6,
		Threats: []domain.Threat{
			{
				ID:     1,
				Title:  "랜섬웨어 조직, 국내 제조사 공격 정황 포착",
				Source: "보안뉴스",
				Date:   "2025-07-14",
				Body:   "해외 랜섬웨어 조직이 국내 제조 업계를 상대로 초기 침투를 시도한 정황이 확인됐다.",
				Tags:   []string{"랜섬웨어", "제조업"},
			},
			{
				ID:     2,
				Title:  "대규모 피싱 메일 유포 주의보",
				Source: "전자신문",
				Date:   "2025-07-15",
				Body:   "국세청을 사칭한 피싱 메일이 대규모로 유포되고 있어 주의가 필요하다.",
				Tags:   []string{"피싱"},
			},
			{
				ID:     3,
				Title:  "제로데이 취약점 악용 시도 급증",
				Source: "데일리시큐",
				Date:   "2025-07-16",
				Body:   "웹 서버 제로데이 취약점을 노린 스캔 트래픽이 전주 대비 크게 늘었다.",
				Tags:   []string{"취약점", "웹"},
			},
		},
		Mail: []domain.MailRow{
			{Date: "2025-07-15 09:12", Subject: "[국세청] 세무조사 관련 피싱 안내문", Sender: "hometax@nts-alert.com", Recipient: "kim@corp.kr", FilterInfo: "첨부 격리"},
			{Date: "2025-07-15 09:47", Subject: "피싱 의심 메일 신고", Sender: "park@corp.kr", Recipient: "secops@corp.kr", FilterInfo: "수동 신고"},
			{Date: "2025-07-15 11:03", Subject: "주간 보안 동향 보고", Sender: "report@corp.kr", Recipient: "all@corp.kr", FilterInfo: "통과"},
		},
		Ndr: []domain.NdrRow{
			{RuleName: "랜섬웨어 C2 비콘 탐지", LogSource: "ndr-sensor-01", SrcIP: "10.20.30.8", DstIP: "185.220.101.4", DetType: "C2", Basis: "주기적 비콘 패턴", Count: 4},
			{RuleName: "랜섬웨어 유포지 접속", LogSource: "ndr-sensor-02", SrcIP: "10.20.31.17", DstIP: "45.33.12.9", DetType: "Malware", Basis: "알려진 유포지 IP", Count: 2},
			{RuleName: "내부 정책 위반 트래픽", LogSource: "ndr-sensor-01", SrcIP: "10.20.30.5", DstIP: "10.20.40.2", DetType: "Policy", Basis: "포트 정책 위반", Count: 1},
		},
		Waf: []domain.WafRow{
			{URLDomain: "upload.corp.kr", RuleName: "WEB-ATTACK-012", PatternName: "웹쉘 업로드", Basis: "랜섬웨어 침투 시도", Action: "차단", Count: 3},
			{URLDomain: "www.corp.kr", RuleName: "SCAN-007", PatternName: "취약점 스캐너", Basis: "제로데이 스캔 시그니처", Action: "차단", Count: 12},
		},
	}
}

// SampleIngestor serves the built-in sample regardless of path. Used when no
// workbook is supplied at all.
type SampleIngestor struct{}

func (SampleIngestor) Ingest(_ context.Context, _ string) (*domain.Workbook, error) {
	return SampleWorkbook(), nil
}

type sampleFallback struct {
	inner ports.WorkbookIngestor
}

// WithSampleFallback wraps an ingestor so that an empty (but well-formed)
// workbook yields the built-in sample instead. Errors pass through untouched.
func WithSampleFallback(inner ports.WorkbookIngestor) ports.WorkbookIngestor {
	return sampleFallback{inner: inner}
}

func (s sampleFallback) Ingest(ctx context.Context, path string) (*domain.Workbook, error) {
	wb, err := s.inner.Ingest(ctx, path)
	if err != nil || !wb.Empty() {
		return wb, err
	}
	log.Info().Str("path", path).Msg("Workbook has no recognized content, using sample dataset")
	return SampleWorkbook(), nil
}
