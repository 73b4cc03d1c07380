package input

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

// ErrInvalidWorkbook marks a workbook that opened but whose recognized sheets
// cannot be read. A workbook with no recognized sheet at all is not an error;
// it yields an empty result and the caller decides what to fall back to.
var ErrInvalidWorkbook = errors.New("invalid workbook structure")

type SheetNames struct {
	ArticlePrefix string
	Mail          string
	NDR           string
	WAF           string
}

func DefaultSheetNames() SheetNames {
	return SheetNames{
		ArticlePrefix: "기사",
		Mail:          "메일",
		NDR:           "NDR",
		WAF:           "WAF",
	}
}

// WorkbookReader ingests an .xlsx workbook into a domain.Workbook. The read
// is all-or-nothing: either the complete parsed result or an error. The
// context is checked between sheets, never mid-sheet.
type WorkbookReader struct {
	names SheetNames
}

func NewWorkbookReader(names SheetNames) *WorkbookReader {
	defaults := DefaultSheetNames()
	if names.ArticlePrefix == "" {
		names.ArticlePrefix = defaults.ArticlePrefix
	}
	if names.Mail == "" {
		names.Mail = defaults.Mail
	}
	if names.NDR == "" {
		names.NDR = defaults.NDR
	}
	if names.WAF == "" {
		names.WAF = defaults.WAF
	}
	return &WorkbookReader{names: names}
}

func (r *WorkbookReader) Ingest(ctx context.Context, path string) (*domain.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Error closing workbook")
		}
	}()

	wb := &domain.Workbook{Source: path, Variant: domain.LayoutPositional}

	var articleSheets []string
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, r.names.ArticlePrefix) {
			articleSheets = append(articleSheets, name)
		}
	}

	if err := r.readArticles(ctx, f, articleSheets, wb); err != nil {
		return nil, err
	}
	if err := r.readMail(ctx, f, wb); err != nil {
		return nil, err
	}
	if err := r.readNdr(ctx, f, wb); err != nil {
		return nil, err
	}
	if err := r.readWaf(ctx, f, wb); err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", path).
		Str("variant", string(wb.Variant)).
		Int("sheets", wb.Sheets).
		Int("threats", len(wb.Threats)).
		Int("rows", wb.RowCount()).
		Msg("Workbook read")

	return wb, nil
}

func (r *WorkbookReader) readArticles(ctx context.Context, f *excelize.File, sheets []string, wb *domain.Workbook) error {
	if len(sheets) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	wb.Sheets += len(sheets)

	if len(sheets) == 1 {
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return fmt.Errorf("%w: sheet %q unreadable: %v", ErrInvalidWorkbook, sheets[0], err)
		}
		// A header-looking first row (two or more known column names) marks
		// the article list form; a lone recognizable cell does not, since
		// per-article sheets often label their metadata rows.
		if len(rows) > 0 {
			if idx := indexColumns(rows[0], articleAliases); len(idx) >= 2 {
				if _, ok := idx[fieldTitle]; !ok {
					return fmt.Errorf("%w: article sheet %q has no title column", ErrInvalidWorkbook, sheets[0])
				}
				wb.Variant = domain.LayoutLabeled
				readArticleList(rows, idx, wb)
				return nil
			}
		}
		readArticleSheet(sheets[0], rows, wb)
		return nil
	}

	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("%w: sheet %q unreadable: %v", ErrInvalidWorkbook, name, err)
		}
		readArticleSheet(name, rows, wb)
	}
	return nil
}

// readArticleList parses the labeled article sheet: one header row, one
// article per data row.
func readArticleList(rows [][]string, idx map[string]int, wb *domain.Workbook) {
	for _, row := range rows[1:] {
		title := cellAt(row, idx, fieldTitle)
		if title == "" {
			continue
		}
		wb.Threats = append(wb.Threats, domain.NewThreat(
			len(wb.Threats)+1,
			title,
			cellAt(row, idx, fieldSource),
			cellAt(row, idx, fieldDate),
			cellAt(row, idx, fieldBody),
			splitTags(cellAt(row, idx, fieldTags)),
		))
	}
}

// readArticleSheet parses one per-article sheet: the title sits in B1, or
// failing that in the first non-empty cell, with metadata key/value rows
// below it.
func readArticleSheet(sheet string, rows [][]string, wb *domain.Workbook) {
	title := ""
	titleRow := -1
	if len(rows) > 0 {
		title = cell(rows[0], 1)
		if title != "" {
			titleRow = 0
		}
	}
	if title == "" {
		for i, row := range rows {
			for _, c := range row {
				if v := strings.TrimSpace(c); v != "" {
					title = v
					titleRow = i
					break
				}
			}
			if titleRow >= 0 {
				break
			}
		}
	}
	if title == "" {
		log.Warn().Str("sheet", sheet).Msg("Article sheet has no title, skipping")
		return
	}

	t := domain.Threat{ID: len(wb.Threats) + 1, Title: title}
	for _, row := range rows[titleRow+1:] {
		key := cell(row, 0)
		value := cell(row, 1)
		switch domain.NormalizeTitle(key) {
		case "출처", "언론사":
			t.Source = value
		case "날짜", "일자", "게시일":
			t.Date = value
		case "태그":
			t.Tags = splitTags(value)
		case "내용", "본문":
			t.Body = value
		default:
			if key != "" && value == "" {
				if t.Body != "" {
					t.Body += "\n"
				}
				t.Body += key
			}
		}
	}
	wb.Threats = append(wb.Threats, t)
}

// sheetRows fetches one log sheet, nil when the sheet does not exist.
func (r *WorkbookReader) sheetRows(ctx context.Context, f *excelize.File, name string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil || idx == -1 {
		return nil, nil
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q unreadable: %v", ErrInvalidWorkbook, name, err)
	}
	return rows, nil
}

func (r *WorkbookReader) readMail(ctx context.Context, f *excelize.File, wb *domain.Workbook) error {
	rows, err := r.sheetRows(ctx, f, r.names.Mail)
	if err != nil || rows == nil {
		return err
	}
	wb.Sheets++
	if len(rows) < 2 {
		return nil
	}

	idx := indexColumns(rows[0], mailAliases)
	if _, labeled := idx[fieldArticleTitle]; labeled {
		wb.Variant = domain.LayoutLabeled
		for _, row := range rows[1:] {
			if blankRow(row) {
				continue
			}
			wb.Mail = append(wb.Mail, domain.MailRow{
				Date:         cellAt(row, idx, fieldDate),
				Subject:      cellAt(row, idx, fieldSubject),
				Sender:       cellAt(row, idx, fieldSender),
				Recipient:    cellAt(row, idx, fieldRecipient),
				FilterInfo:   cellAt(row, idx, fieldFilterInfo),
				ArticleTitle: cellAt(row, idx, fieldArticleTitle),
			})
		}
		return nil
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		wb.Mail = append(wb.Mail, domain.MailRow{
			Date:       cell(row, 0),
			Subject:    cell(row, 1),
			Sender:     cell(row, 2),
			Recipient:  cell(row, 3),
			FilterInfo: cell(row, 4),
		})
	}
	return nil
}

func (r *WorkbookReader) readNdr(ctx context.Context, f *excelize.File, wb *domain.Workbook) error {
	rows, err := r.sheetRows(ctx, f, r.names.NDR)
	if err != nil || rows == nil {
		return err
	}
	wb.Sheets++
	if len(rows) < 2 {
		return nil
	}

	idx := indexColumns(rows[0], ndrAliases)
	if _, labeled := idx[fieldArticleTitle]; labeled {
		wb.Variant = domain.LayoutLabeled
		for _, row := range rows[1:] {
			if blankRow(row) {
				continue
			}
			wb.Ndr = append(wb.Ndr, domain.NdrRow{
				RuleName:     cellAt(row, idx, fieldRuleName),
				LogSource:    cellAt(row, idx, fieldLogSource),
				SrcIP:        cellAt(row, idx, fieldSrcIP),
				DstIP:        cellAt(row, idx, fieldDstIP),
				DetType:      cellAt(row, idx, fieldDetType),
				Basis:        cellAt(row, idx, fieldBasis),
				Count:        parseCount(cellAt(row, idx, fieldCount), 0),
				ArticleTitle: cellAt(row, idx, fieldArticleTitle),
			})
		}
		return nil
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		wb.Ndr = append(wb.Ndr, domain.NdrRow{
			RuleName:  cell(row, 0),
			LogSource: cell(row, 1),
			SrcIP:     cell(row, 2),
			DstIP:     cell(row, 3),
			DetType:   cell(row, 4),
			Basis:     cell(row, 5),
			Count:     parseCount(cell(row, 6), 0),
		})
	}
	return nil
}

func (r *WorkbookReader) readWaf(ctx context.Context, f *excelize.File, wb *domain.Workbook) error {
	rows, err := r.sheetRows(ctx, f, r.names.WAF)
	if err != nil || rows == nil {
		return err
	}
	wb.Sheets++
	if len(rows) < 2 {
		return nil
	}

	idx := indexColumns(rows[0], wafAliases)
	if _, labeled := idx[fieldArticleTitle]; labeled {
		wb.Variant = domain.LayoutLabeled
		for _, row := range rows[1:] {
			if blankRow(row) {
				continue
			}
			wb.Waf = append(wb.Waf, domain.WafRow{
				URLDomain:    cellAt(row, idx, fieldURLDomain),
				RuleName:     cellAt(row, idx, fieldRuleName),
				PatternName:  cellAt(row, idx, fieldPatternName),
				Basis:        cellAt(row, idx, fieldBasis),
				Action:       cellAt(row, idx, fieldAction),
				Count:        parseCount(cellAt(row, idx, fieldCount), 1),
				ArticleTitle: cellAt(row, idx, fieldArticleTitle),
			})
		}
		return nil
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		wb.Waf = append(wb.Waf, domain.WafRow{
			URLDomain:   cell(row, 0),
			RuleName:    cell(row, 1),
			PatternName: cell(row, 2),
			Basis:       cell(row, 3),
			Action:      cell(row, 4),
			Count:       parseCount(cell(row, 5), 1),
		})
	}
	return nil
}
