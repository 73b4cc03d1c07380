package output

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

const (
	excelSummarySheet    = "요약"
	excelDetectionsSheet = "탐지내역"
)

// ExcelReporter writes each batch as an xlsx workbook with a summary sheet
// and a detection sheet. The file is replaced wholesale on every write, the
// same way an ingested batch replaces the previous one.
type ExcelReporter struct {
	path string
}

func NewExcelReporter(path string) *ExcelReporter {
	return &ExcelReporter{path: path}
}

func (r *ExcelReporter) Write(ctx context.Context, ds *domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSummarySheet); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := writeSummarySheet(f, ds); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if _, err := f.NewSheet(excelDetectionsSheet); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := writeDetectionsSheet(f, ds); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if err := f.SaveAs(r.path); err != nil {
		return fmt.Errorf("write report %s: %w", r.path, err)
	}
	return nil
}

func (r *ExcelReporter) Flush() error { return nil }
func (r *ExcelReporter) Close() error { return nil }

// OnDataset implements ports.DatasetSubscriber. A subscriber cannot
// return the write error, so it is logged here instead.
func (r *ExcelReporter) OnDataset(ds *domain.Dataset) {
	if err := r.Write(context.Background(), ds); err != nil {
		log.Error().Err(err).Str("path", r.path).Msg("Failed to write xlsx report")
	}
}

func writeSummarySheet(f *excelize.File, ds *domain.Dataset) error {
	byType := ds.CountByType()
	rows := [][]interface{}{
		{"배치 ID", ds.BatchID.String()},
		{"입력 파일", ds.Source},
		{"적재 시각", ds.LoadedAt.Format("2006-01-02 15:04:05")},
		{"레이아웃", ds.Stats.Variant},
		{"기사 수", len(ds.Threats)},
		{"탐지 수", len(ds.Detections)},
		{},
		{"구분", "행 수", "매칭", "미매칭"},
		{"메일", ds.Stats.Mail.Rows, ds.Stats.Mail.Matched, ds.Stats.Mail.Unmatched},
		{"NDR", ds.Stats.NDR.Rows, ds.Stats.NDR.Matched, ds.Stats.NDR.Unmatched},
		{"WAF", ds.Stats.WAF.Rows, ds.Stats.WAF.Matched, ds.Stats.WAF.Unmatched},
		{},
		{"탐지 유형", "건"},
		{string(domain.DetectionMail), byType[domain.DetectionMail]},
		{string(domain.DetectionNDR), byType[domain.DetectionNDR]},
		{string(domain.DetectionWAF), byType[domain.DetectionWAF]},
		{string(domain.DetectionNDRWAF), byType[domain.DetectionNDRWAF]},
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(excelSummarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.SetColWidth(excelSummarySheet, "A", "A", 14)
}

func writeDetectionsSheet(f *excelize.File, ds *domain.Dataset) error {
	header := []interface{}{"번호", "유형", "관련기사", "탐지내용", "건수", "조치", "출처", "상세"}
	if err := f.SetSheetRow(excelDetectionsSheet, "A1", &header); err != nil {
		return err
	}

	for i, det := range ds.Detections {
		row := []interface{}{
			det.ID,
			string(det.Type),
			det.Title,
			det.Label,
			det.Count,
			det.Action,
			det.Source,
			renderDetail(det.Detail),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(excelDetectionsSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(excelDetectionsSheet, "C", "D", 40); err != nil {
		return err
	}
	return f.SetColWidth(excelDetectionsSheet, "H", "H", 60)
}

// renderDetail flattens the ordered detail map into one cell, one
// "key: value" line per entry.
func renderDetail(d *domain.Detail) string {
	if d.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range d.Keys() {
		if i > 0 {
			b.WriteByte('\n')
		}
		v, _ := d.Get(k)
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
	}
	return b.String()
}
