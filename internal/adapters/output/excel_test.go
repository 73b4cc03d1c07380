package output

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

func TestExcelReporter_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	reporter := NewExcelReporter(path)

	ds := testDataset()
	require.NoError(t, reporter.Write(context.Background(), ds))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	get := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "배치 ID", get(excelSummarySheet, "A1"))
	assert.Equal(t, ds.BatchID.String(), get(excelSummarySheet, "B1"))
	assert.Equal(t, "report.xlsx", get(excelSummarySheet, "B2"))
	assert.Equal(t, "2", get(excelSummarySheet, "B5"), "threat count")

	assert.Equal(t, "번호", get(excelDetectionsSheet, "A1"))
	assert.Equal(t, "상세", get(excelDetectionsSheet, "H1"))

	assert.Equal(t, "Mail", get(excelDetectionsSheet, "B2"))
	assert.Equal(t, "대규모 피싱 메일 유포 주의보", get(excelDetectionsSheet, "C2"))
	assert.Equal(t, "NDR+WAF", get(excelDetectionsSheet, "B3"))
	assert.Equal(t, "9", get(excelDetectionsSheet, "E3"))
	assert.Contains(t, get(excelDetectionsSheet, "H3"), "NDR 탐지룰: 랜섬웨어 C2 비콘 탐지")
	assert.Contains(t, get(excelDetectionsSheet, "H3"), "조치량: NDR 탐지 6건 / WAF 차단 3건")
}

func TestExcelReporter_ReplacesPreviousReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	reporter := NewExcelReporter(path)

	require.NoError(t, reporter.Write(context.Background(), testDataset()))

	smaller := testDataset()
	smaller.Detections = smaller.Detections[:1]
	require.NoError(t, reporter.Write(context.Background(), smaller))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excelDetectionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "header plus one detection")
}

func TestExcelReporter_EmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	reporter := NewExcelReporter(path)

	require.NoError(t, reporter.Write(context.Background(), domain.NewDataset("empty")))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excelDetectionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExcelReporter_CanceledContext(t *testing.T) {
	reporter := NewExcelReporter(filepath.Join(t.TempDir(), "report.xlsx"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, reporter.Write(ctx, testDataset()), context.Canceled)

	assert.NoError(t, reporter.Flush())
	assert.NoError(t, reporter.Close())
}
