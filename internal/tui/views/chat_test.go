package views

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

func chatDataset() *domain.Dataset {
	ds := domain.NewDataset("report.xlsx")
	ds.Threats = []domain.Threat{
		domain.NewThreat(1, "랜섬웨어 공격 증가", "보안뉴스", "2025-07-14", "", []string{"랜섬웨어"}),
		domain.NewThreat(2, "대규모 피싱 메일 유포 주의보", "KISA", "2025-07-15", "", nil),
	}
	ds.Detections = []domain.Detection{
		{ID: 1, ThreatID: 2, Type: domain.DetectionMail, Title: "대규모 피싱 메일 유포 주의보", Count: 1, Source: "메일"},
		{ID: 2, ThreatID: 1, Type: domain.DetectionNDRWAF, Title: "랜섬웨어 공격 증가", Count: 9, Source: "NDR"},
	}
	ds.Stats.Mail = domain.KindStats{Rows: 3, Matched: 2, Unmatched: 1}
	ds.Stats.NDR = domain.KindStats{Rows: 2, Matched: 2}
	return ds
}

func TestChatAnswer(t *testing.T) {
	ds := chatDataset()

	tests := []struct {
		name     string
		dataset  *domain.Dataset
		query    string
		contains []string
	}{
		{
			name:     "no dataset loaded",
			dataset:  nil,
			query:    "현황",
			contains: []string{"아직 적재된 배치가 없습니다"},
		},
		{
			name:     "batch summary",
			dataset:  ds,
			query:    "현황",
			contains: []string{"기사 2건", "탐지 2건", "Mail 1건", "NDR+WAF 1건", "미매칭 1행"},
		},
		{
			name:     "threat lookup",
			dataset:  ds,
			query:    "기사 1",
			contains: []string{"[1] 랜섬웨어 공격 증가", "태그: 랜섬웨어", "NDR+WAF 9건"},
		},
		{
			name:     "threat lookup unknown id",
			dataset:  ds,
			query:    "기사 9",
			contains: []string{"9번 기사가 없습니다"},
		},
		{
			name:     "threat lookup non-numeric id",
			dataset:  ds,
			query:    "기사 첫번째",
			contains: []string{"숫자로"},
		},
		{
			name:     "keyword search",
			dataset:  ds,
			query:    "검색 피싱",
			contains: []string{"검색 결과 1건", "[2] 대규모 피싱 메일 유포 주의보"},
		},
		{
			name:     "bare keyword falls back to search",
			dataset:  ds,
			query:    "랜섬웨어",
			contains: []string{"[1] 랜섬웨어 공격 증가"},
		},
		{
			name:     "search without hits",
			dataset:  ds,
			query:    "검색 제로트러스트",
			contains: []string{"일치하는 기사가 없습니다"},
		},
		{
			name:     "unmatched stats",
			dataset:  ds,
			query:    "미매칭",
			contains: []string{"Mail 1/3행 미매칭", "NDR  0/2행 미매칭"},
		},
		{
			name:     "help",
			dataset:  ds,
			query:    "?",
			contains: []string{"검색 <키워드>", "기사 <번호>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(Answer(tt.dataset, tt.query), "\n")
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestChatInput(t *testing.T) {
	c := NewChat(10)

	c.Type([]rune("검색 피시"))
	c.Backspace()
	c.Type([]rune("싱"))
	assert.Equal(t, "검색 피싱", string(c.Input))

	c.Submit(chatDataset())
	assert.Empty(t, c.Input)
	require.NotEmpty(t, c.History)
	assert.True(t, c.History[0].FromUser)
	assert.Equal(t, "검색 피싱", c.History[0].Text)
	assert.Greater(t, len(c.History), 1, "answer lines should follow the question")
}

func TestChatSubmitIgnoresBlank(t *testing.T) {
	c := NewChat(10)
	c.Type([]rune("   "))
	c.Submit(nil)
	assert.Empty(t, c.History)
	assert.Empty(t, c.Input)
}
