package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordExtractor_Extract(t *testing.T) {
	extractor := NewKeywordExtractor()

	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "particles and connectives removed",
			title: "긴급 NDR 탐지 및 대응",
			want:  []string{"긴급", "NDR", "탐지", "대응"},
		},
		{
			name:  "punctuation separates tokens",
			title: "[단독] 랜섬웨어·피싱 공격 급증",
			want:  []string{"단독", "랜섬웨어", "피싱", "공격", "급증"},
		},
		{
			name:  "slash and parentheses split",
			title: "국내/해외 보안업체(대기업) 침해사고",
			want:  []string{"국내", "해외", "보안업체", "대기업", "침해사고"},
		},
		{
			name:  "short tokens dropped",
			title: "A 급 위협 경보",
			want:  []string{"위협", "경보"},
		},
		{
			name:  "duplicates keep first position",
			title: "피싱 메일, 피싱 사이트 주의",
			want:  []string{"피싱", "메일", "사이트", "주의"},
		},
		{
			name:  "english connectives removed",
			title: "New ransomware targets VPN and mail gateways",
			want:  []string{"New", "ransomware", "targets", "VPN", "mail", "gateways"},
		},
		{
			name:  "suffixed particles stay attached",
			title: "랜섬웨어 공격으로 제조업체 생산 중단",
			want:  []string{"랜섬웨어", "공격으로", "제조업체", "생산", "중단"},
		},
		{
			name:  "empty title",
			title: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			title: "   \t  ",
			want:  nil,
		},
		{
			name:  "all stopwords",
			title: "및 또한 그리고 위한",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Extract(tt.title)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordExtractor_ExtraStopwords(t *testing.T) {
	extractor := NewKeywordExtractor("속보", "단독")

	got := extractor.Extract("[단독] 랜섬웨어 공격 속보")
	assert.Equal(t, []string{"랜섬웨어", "공격"}, got)
}

func TestKeywordExtractor_OrderStable(t *testing.T) {
	extractor := NewKeywordExtractor()

	first := extractor.Extract("대규모 피싱 메일 유포 주의")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, extractor.Extract("대규모 피싱 메일 유포 주의"))
	}
}

func BenchmarkKeywordExtractor(b *testing.B) {
	extractor := NewKeywordExtractor()
	title := "[긴급] 국내 금융권 대상 대규모 랜섬웨어·피싱 공격 정황 포착, 메일 게이트웨이 점검 권고"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		extractor.Extract(title)
	}
}
