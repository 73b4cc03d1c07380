// Package input reads threat-news workbooks into domain rows.
//
// Two sheet layouts exist in the wild. The positional layout carries one
// article per 기사-prefixed sheet and position-indexed log columns; the
// labeled layout carries one article list sheet and header-matched log
// columns, each log row tagged with the article title it belongs to. Header
// matching is tolerant: names are compared after trimming, stripping inner
// whitespace and lowercasing.
package input

import (
	"math"
	"strconv"
	"strings"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

// Canonical field names used by the labeled-header lookup.
const (
	fieldDate         = "date"
	fieldSubject      = "subject"
	fieldSender       = "sender"
	fieldRecipient    = "recipient"
	fieldFilterInfo   = "filterInfo"
	fieldRuleName     = "ruleName"
	fieldLogSource    = "logSource"
	fieldSrcIP        = "srcIP"
	fieldDstIP        = "dstIP"
	fieldDetType      = "detType"
	fieldBasis        = "basis"
	fieldURLDomain    = "urlDomain"
	fieldPatternName  = "patternName"
	fieldAction       = "action"
	fieldCount        = "count"
	fieldArticleTitle = "articleTitle"
	fieldTitle        = "title"
	fieldSource       = "source"
	fieldBody         = "body"
	fieldTags         = "tags"
)

var mailAliases = map[string]string{
	"수신일시": fieldDate, "일시": fieldDate, "수신시간": fieldDate, "날짜": fieldDate,
	"메일제목": fieldSubject, "제목": fieldSubject,
	"발신자": fieldSender, "보낸사람": fieldSender,
	"수신자": fieldRecipient, "받는사람": fieldRecipient,
	"필터정보": fieldFilterInfo, "필터": fieldFilterInfo,
	"관련기사": fieldArticleTitle, "기사제목": fieldArticleTitle,
}

var ndrAliases = map[string]string{
	"탐지룰": fieldRuleName, "탐지룰명": fieldRuleName, "룰명": fieldRuleName,
	"로그소스": fieldLogSource, "로그출처": fieldLogSource,
	"출발지ip": fieldSrcIP, "출발지": fieldSrcIP, "소스ip": fieldSrcIP,
	"목적지ip": fieldDstIP, "목적지": fieldDstIP,
	"탐지유형": fieldDetType, "유형": fieldDetType,
	"판단근거": fieldBasis, "근거": fieldBasis,
	"건수": fieldCount, "탐지건수": fieldCount,
	"관련기사": fieldArticleTitle, "기사제목": fieldArticleTitle,
}

var wafAliases = map[string]string{
	"url도메인": fieldURLDomain, "도메인": fieldURLDomain, "url": fieldURLDomain,
	"차단룰": fieldRuleName, "룰명": fieldRuleName,
	"패턴명": fieldPatternName, "패턴": fieldPatternName,
	"판단근거": fieldBasis, "근거": fieldBasis,
	"조치": fieldAction, "차단여부": fieldAction,
	"건수": fieldCount, "차단건수": fieldCount,
	"관련기사": fieldArticleTitle, "기사제목": fieldArticleTitle,
}

var articleAliases = map[string]string{
	"제목": fieldTitle, "기사제목": fieldTitle, "기사명": fieldTitle,
	"출처": fieldSource, "언론사": fieldSource,
	"날짜": fieldDate, "일자": fieldDate, "게시일": fieldDate,
	"내용": fieldBody, "본문": fieldBody,
	"태그": fieldTags,
}

// indexColumns maps canonical field names to column positions by matching the
// normalized header row against an alias table. The first matching column per
// field wins.
func indexColumns(header []string, aliases map[string]string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		field, ok := aliases[domain.NormalizeTitle(h)]
		if !ok {
			continue
		}
		if _, taken := idx[field]; !taken {
			idx[field] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func cellAt(row []string, idx map[string]int, field string) string {
	i, ok := idx[field]
	if !ok {
		return ""
	}
	return cell(row, i)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCount reads a numeric count cell. Missing, non-numeric and negative
// values fall back to the per-kind default (0 for NDR, 1 for WAF). Thousands
// separators and spreadsheet float rendering ("1,024", "3.0") are accepted.
func parseCount(s string, def int) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return def
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// NaN fails the lower bound, Inf and overflowing values fail the
		// upper one. int(f) on an out-of-range float is not portable.
		if f >= 0 && f <= math.MaxInt32 {
			return int(f)
		}
	}
	return def
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
