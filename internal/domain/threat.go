package domain

import "strings"

type Threat struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Source string   `json:"source"`
	Date   string   `json:"date"`
	Body   string   `json:"body"`
	Tags   []string `json:"tags,omitempty"`
}

func NewThreat(id int, title, source, date, body string, tags []string) Threat {
	return Threat{
		ID:     id,
		Title:  title,
		Source: source,
		Date:   date,
		Body:   body,
		Tags:   tags,
	}
}

// NormalizedTitle strips all whitespace and lowercases the title.
// Both sides of a title comparison must be normalized the same way.
func (t Threat) NormalizedTitle() string {
	return NormalizeTitle(t.Title)
}

func NormalizeTitle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', ' ', '　':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// TitlePrefix returns the first n runes of the normalized title,
// or the whole normalized title when shorter.
func (t Threat) TitlePrefix(n int) string {
	norm := t.NormalizedTitle()
	runes := []rune(norm)
	if len(runes) <= n {
		return norm
	}
	return string(runes[:n])
}
