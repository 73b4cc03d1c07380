package domain

type LogKind string

const (
	KindMail LogKind = "Mail"
	KindNDR  LogKind = "NDR"
	KindWAF  LogKind = "WAF"
)

type DetailPair struct {
	Key   string
	Value string
}

// Row is one normalized log record of any kind. Rows are ephemeral: they feed
// matching and aggregation, then are discarded with the rest of the batch.
type Row interface {
	Kind() LogKind
	// KeywordFields returns the fields eligible for keyword-substring matching.
	KeywordFields() []string
	// ArticleRef returns the raw article-title tag carried by the labeled
	// sheet layout, empty under the positional layout.
	ArticleRef() string
	// Volume is the row's contribution to the aggregate detection count.
	Volume() int
	// ActionValue returns the row's explicit action cell, empty for kinds
	// without an action column.
	ActionValue() string
	// DetailPairs returns the row's detail fields in their fixed display order.
	DetailPairs() []DetailPair
}

type MailRow struct {
	Date         string `json:"date"`
	Subject      string `json:"subject"`
	Sender       string `json:"sender"`
	Recipient    string `json:"recipient"`
	FilterInfo   string `json:"filter_info"`
	ArticleTitle string `json:"article_title,omitempty"`
}

func (r MailRow) Kind() LogKind { return KindMail }

func (r MailRow) KeywordFields() []string { return []string{r.Subject, r.Sender} }

func (r MailRow) ArticleRef() string { return r.ArticleTitle }

// Mail counts by row cardinality, not by a count column.
func (r MailRow) Volume() int { return 1 }

func (r MailRow) ActionValue() string { return "" }

func (r MailRow) DetailPairs() []DetailPair {
	return []DetailPair{
		{"수신일시", r.Date},
		{"메일제목", r.Subject},
		{"발신자", r.Sender},
		{"수신자", r.Recipient},
		{"필터정보", r.FilterInfo},
	}
}

type NdrRow struct {
	RuleName     string `json:"rule_name"`
	LogSource    string `json:"log_source"`
	SrcIP        string `json:"src_ip"`
	DstIP        string `json:"dst_ip"`
	DetType      string `json:"det_type"`
	Basis        string `json:"basis"`
	Count        int    `json:"count"`
	ArticleTitle string `json:"article_title,omitempty"`
}

func (r NdrRow) Kind() LogKind { return KindNDR }

func (r NdrRow) KeywordFields() []string { return []string{r.RuleName, r.LogSource} }

func (r NdrRow) ArticleRef() string { return r.ArticleTitle }

// NDR sums the per-row event count; a missing count column ingests as 0.
func (r NdrRow) Volume() int { return r.Count }

func (r NdrRow) ActionValue() string { return "" }

func (r NdrRow) DetailPairs() []DetailPair {
	return []DetailPair{
		{"NDR 탐지룰", r.RuleName},
		{"NDR 로그소스", r.LogSource},
		{"NDR 출발지IP", r.SrcIP},
		{"NDR 목적지IP", r.DstIP},
		{"NDR 탐지유형", r.DetType},
		{"NDR 판단근거", r.Basis},
	}
}

type WafRow struct {
	URLDomain    string `json:"url_domain"`
	RuleName     string `json:"rule_name"`
	PatternName  string `json:"pattern_name"`
	Basis        string `json:"basis"`
	Action       string `json:"action"`
	Count        int    `json:"count"`
	ArticleTitle string `json:"article_title,omitempty"`
}

func (r WafRow) Kind() LogKind { return KindWAF }

func (r WafRow) KeywordFields() []string {
	return []string{r.URLDomain, r.RuleName, r.PatternName, r.Basis}
}

func (r WafRow) ArticleRef() string { return r.ArticleTitle }

// WAF sums the per-row block count; a missing count column ingests as 1.
func (r WafRow) Volume() int { return r.Count }

func (r WafRow) ActionValue() string { return r.Action }

func (r WafRow) DetailPairs() []DetailPair {
	return []DetailPair{
		{"WAF URL도메인", r.URLDomain},
		{"WAF 차단룰", r.RuleName},
		{"WAF 패턴명", r.PatternName},
		{"WAF 판단근거", r.Basis},
		{"WAF 조치", r.Action},
	}
}
