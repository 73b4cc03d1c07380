package input

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

type sheetFixture struct {
	name string
	rows [][]interface{}
}

// writeWorkbook builds a real .xlsx file in a temp dir. The first sheet
// replaces the default Sheet1.
func writeWorkbook(t *testing.T, sheets []sheetFixture) string {
	t.Helper()

	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r := range s.rows {
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cellRef, &s.rows[r]))
		}
	}

	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestWorkbookReader_PositionalLayout(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "기사1", rows: [][]interface{}{
			{"제목", "랜섬웨어 조직 활동 증가"},
			{"출처", "보안뉴스"},
			{"날짜", "2026-08-20"},
			{"내용", "국내 기업을 노린 랜섬웨어 활동이 늘었다."},
			{"태그", "랜섬웨어, APT"},
		}},
		{name: "기사2", rows: [][]interface{}{
			{"제목", "대규모 피싱 메일 유포"},
			{"출처", "데일리시큐"},
		}},
		{name: "메일", rows: [][]interface{}{
			{"수신일시", "메일제목", "발신자", "수신자", "필터정보"},
			{"2026-08-21 09:12", "긴급 랜섬웨어 보안 공지", "attacker@ext.com", "kim@corp.kr", "스팸 의심"},
		}},
		{name: "NDR", rows: [][]interface{}{
			{"탐지룰", "로그소스", "출발지IP", "목적지IP", "탐지유형", "판단근거", "건수"},
			{"랜섬웨어 C2 Callback", "ndr-01", "10.0.0.5", "203.0.113.7", "C2", "외부 C2 접속", "4"},
			{"피싱 URL 접속", "ndr-02", "10.0.0.9", "198.51.100.3", "URL", "피싱 도메인", ""},
		}},
		{name: "WAF", rows: [][]interface{}{
			{"URL도메인", "차단룰", "패턴명", "판단근거", "조치", "건수"},
			{"mal.example.com", "SQLi-Block", "union_select", "공격 패턴", "차단", "3"},
			{"c2.example.net", "RCE-Block", "cmd_exec", "공격 패턴", "", "n/a"},
			{"drop.example.org", "XSS-Block", "script_tag", "공격 패턴", "차단", "1,234"},
		}},
	})

	reader := NewWorkbookReader(SheetNames{})
	wb, err := reader.Ingest(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, wb)

	assert.Equal(t, domain.LayoutPositional, wb.Variant)
	assert.Equal(t, 5, wb.Sheets)

	require.Len(t, wb.Threats, 2)
	assert.Equal(t, 1, wb.Threats[0].ID)
	assert.Equal(t, "랜섬웨어 조직 활동 증가", wb.Threats[0].Title)
	assert.Equal(t, "보안뉴스", wb.Threats[0].Source)
	assert.Equal(t, "2026-08-20", wb.Threats[0].Date)
	assert.Equal(t, []string{"랜섬웨어", "APT"}, wb.Threats[0].Tags)
	assert.Equal(t, 2, wb.Threats[1].ID)
	assert.Equal(t, "대규모 피싱 메일 유포", wb.Threats[1].Title)

	// One data row per sheet after the header; the header itself never
	// becomes a row.
	require.Len(t, wb.Mail, 1)
	assert.Equal(t, "긴급 랜섬웨어 보안 공지", wb.Mail[0].Subject)
	assert.Equal(t, "attacker@ext.com", wb.Mail[0].Sender)

	require.Len(t, wb.Ndr, 2)
	assert.Equal(t, "랜섬웨어 C2 Callback", wb.Ndr[0].RuleName)
	assert.Equal(t, 4, wb.Ndr[0].Count)
	assert.Equal(t, 0, wb.Ndr[1].Count, "missing NDR count defaults to 0")

	require.Len(t, wb.Waf, 3)
	assert.Equal(t, 3, wb.Waf[0].Count)
	assert.Equal(t, 1, wb.Waf[1].Count, "non-numeric WAF count defaults to 1")
	assert.Equal(t, 1234, wb.Waf[2].Count, "thousands separator accepted")
	assert.Equal(t, "차단", wb.Waf[0].Action)
	assert.Equal(t, "", wb.Waf[1].Action)
}

func TestWorkbookReader_LabeledLayout(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "기사", rows: [][]interface{}{
			{"기사제목", "출처", "날짜", "태그"},
			{"랜섬웨어 조직 활동 증가", "보안뉴스", "2026-08-20", "랜섬웨어"},
			{"대규모 피싱 메일 유포", "데일리시큐", "2026-08-21", ""},
			{"", "빈제목신문", "", ""},
		}},
		{name: "메일", rows: [][]interface{}{
			{"관련기사", "메일제목", "발신자"},
			{"대규모 피싱 메일 유포", "계정 확인 요청", "phish@ext.com"},
			{"", "", ""},
			{"대규모 피싱 메일 유포", "비밀번호 재설정 안내", "phish2@ext.com"},
		}},
		{name: "NDR", rows: [][]interface{}{
			{"관련기사", "탐지룰", "건수"},
			{"랜섬웨어 조직 활동 증가", "랜섬웨어 C2 Callback", "4"},
			{"목록에 없는 기사", "Unknown Rule", "2"},
		}},
	})

	reader := NewWorkbookReader(SheetNames{})
	wb, err := reader.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.LayoutLabeled, wb.Variant)
	assert.Equal(t, 3, wb.Sheets)

	require.Len(t, wb.Threats, 2, "row without a title is skipped")
	assert.Equal(t, "랜섬웨어 조직 활동 증가", wb.Threats[0].Title)
	assert.Equal(t, "보안뉴스", wb.Threats[0].Source)
	assert.Equal(t, []string{"랜섬웨어"}, wb.Threats[0].Tags)
	assert.Nil(t, wb.Threats[1].Tags)

	require.Len(t, wb.Mail, 2, "blank rows are skipped")
	assert.Equal(t, "계정 확인 요청", wb.Mail[0].Subject)
	assert.Equal(t, "대규모 피싱 메일 유포", wb.Mail[0].ArticleTitle)

	// Columns come from the header, not from position: the first NDR column
	// here is the article reference, not the rule name.
	require.Len(t, wb.Ndr, 2)
	assert.Equal(t, "랜섬웨어 C2 Callback", wb.Ndr[0].RuleName)
	assert.Equal(t, "랜섬웨어 조직 활동 증가", wb.Ndr[0].ArticleTitle)
	assert.Equal(t, 4, wb.Ndr[0].Count)
	assert.Equal(t, "목록에 없는 기사", wb.Ndr[1].ArticleTitle)
}

func TestWorkbookReader_ArticleSheetTitleFallback(t *testing.T) {
	// No B1 title: the first non-empty cell anywhere wins, and bare
	// key-only rows accumulate into the body.
	path := writeWorkbook(t, []sheetFixture{
		{name: "기사1", rows: [][]interface{}{
			{""},
			{"제로데이 취약점 악용 시도 급증"},
			{"출처", "데일리시큐"},
			{"첫 번째 본문 단락"},
			{"두 번째 본문 단락"},
		}},
	})

	reader := NewWorkbookReader(SheetNames{})
	wb, err := reader.Ingest(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, wb.Threats, 1)
	assert.Equal(t, "제로데이 취약점 악용 시도 급증", wb.Threats[0].Title)
	assert.Equal(t, "데일리시큐", wb.Threats[0].Source)
	assert.Equal(t, "첫 번째 본문 단락\n두 번째 본문 단락", wb.Threats[0].Body)
}

func TestWorkbookReader_NoRecognizedSheets(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "Summary", rows: [][]interface{}{
			{"주간 요약 보고서"},
		}},
	})

	reader := NewWorkbookReader(SheetNames{})
	wb, err := reader.Ingest(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, wb)

	assert.True(t, wb.Empty())
	assert.Equal(t, 0, wb.Sheets)
	assert.Equal(t, domain.LayoutPositional, wb.Variant)
}

func TestWorkbookReader_HeaderOnlyLogSheet(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "메일", rows: [][]interface{}{
			{"수신일시", "메일제목", "발신자", "수신자", "필터정보"},
		}},
	})

	reader := NewWorkbookReader(SheetNames{})
	wb, err := reader.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, wb.Sheets)
	assert.Empty(t, wb.Mail)
	assert.True(t, wb.Empty())
}

func TestWorkbookReader_ArticleListWithoutTitleColumn(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "기사", rows: [][]interface{}{
			{"출처", "날짜"},
			{"보안뉴스", "2026-08-20"},
		}},
	})

	reader := NewWorkbookReader(SheetNames{})
	_, err := reader.Ingest(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvalidWorkbook)
}

func TestWorkbookReader_CustomSheetNames(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "articles-1", rows: [][]interface{}{
			{"제목", "랜섬웨어 조직 활동 증가"},
		}},
		{name: "mailgw", rows: [][]interface{}{
			{"수신일시", "메일제목", "발신자", "수신자", "필터정보"},
			{"2026-08-21", "테스트 메일", "a@ext.com", "b@corp.kr", ""},
		}},
	})

	reader := NewWorkbookReader(SheetNames{
		ArticlePrefix: "articles",
		Mail:          "mailgw",
	})
	wb, err := reader.Ingest(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, wb.Threats, 1)
	require.Len(t, wb.Mail, 1)
	assert.Equal(t, "테스트 메일", wb.Mail[0].Subject)
}

func TestWorkbookReader_MissingFile(t *testing.T) {
	reader := NewWorkbookReader(SheetNames{})
	_, err := reader.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestWorkbookReader_CanceledContext(t *testing.T) {
	path := writeWorkbook(t, []sheetFixture{
		{name: "기사1", rows: [][]interface{}{
			{"제목", "랜섬웨어 조직 활동 증가"},
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewWorkbookReader(SheetNames{})
	_, err := reader.Ingest(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		def  int
		want int
	}{
		{name: "plain integer", in: "42", def: 0, want: 42},
		{name: "empty uses default", in: "", def: 1, want: 1},
		{name: "whitespace uses default", in: "  ", def: 0, want: 0},
		{name: "thousands separator", in: "1,024", def: 0, want: 1024},
		{name: "float rendering", in: "3.0", def: 0, want: 3},
		{name: "negative uses default", in: "-7", def: 1, want: 1},
		{name: "non-numeric uses default", in: "없음", def: 1, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseCount(tc.in, tc.def))
		})
	}
}

func TestIndexColumns(t *testing.T) {
	idx := indexColumns([]string{"관련 기사", "탐지룰", "", "건수", "탐지룰"}, ndrAliases)

	assert.Equal(t, 0, idx[fieldArticleTitle], "inner whitespace ignored")
	assert.Equal(t, 1, idx[fieldRuleName], "first matching column wins")
	assert.Equal(t, 3, idx[fieldCount])
	_, ok := idx[fieldBasis]
	assert.False(t, ok)
}
