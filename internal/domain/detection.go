package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type DetectionType string

const (
	DetectionMail   DetectionType = "Mail"
	DetectionNDR    DetectionType = "NDR"
	DetectionWAF    DetectionType = "WAF"
	DetectionNDRWAF DetectionType = "NDR+WAF"
)

// Detection is the aggregate of all log rows matched to one article for one
// log kind (or for the merged NDR+WAF pair). ThreatID 0 means no article
// matched; the record then stands on its raw article-title group.
type Detection struct {
	ID       int           `json:"id"`
	ThreatID int           `json:"threat_id"`
	Type     DetectionType `json:"type"`
	Title    string        `json:"title"`
	Label    string        `json:"label"`
	Count    int           `json:"count"`
	Action   string        `json:"action"`
	Source   string        `json:"source"`
	Detail   *Detail       `json:"detail"`
}

func (d Detection) HasThreat() bool { return d.ThreatID > 0 }

// GroupKey identifies the article group a detection belongs to: the threat id
// when one resolved, otherwise the raw article-title string the rows carried.
func (d Detection) GroupKey() string {
	if d.HasThreat() {
		return "id:" + strconv.Itoa(d.ThreatID)
	}
	return "title:" + d.Title
}

// Detail is a string-to-string mapping that preserves first-insert key order.
// Go maps iterate in random order; detection details are operator-facing and
// must render in the order the fields were collected.
type Detail struct {
	keys   []string
	values map[string]string
}

func NewDetail() *Detail {
	return &Detail{values: make(map[string]string)}
}

// Set inserts or overwrites a key. A key keeps its original position on
// overwrite.
func (d *Detail) Set(key, value string) {
	if d.values == nil {
		d.values = make(map[string]string)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d *Detail) Get(key string) (string, bool) {
	if d == nil || d.values == nil {
		return "", false
	}
	v, ok := d.values[key]
	return v, ok
}

func (d *Detail) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

func (d *Detail) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *Detail) Clone() *Detail {
	if d == nil {
		return NewDetail()
	}
	c := NewDetail()
	for _, k := range d.keys {
		c.Set(k, d.values[k])
	}
	return c
}

// MarshalJSON emits the entries as a JSON object in insertion order.
func (d *Detail) MarshalJSON() ([]byte, error) {
	if d == nil || len(d.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Detail) UnmarshalJSON(data []byte) error {
	d.keys = nil
	d.values = make(map[string]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &json.UnmarshalTypeError{Value: "non-object", Type: nil}
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		d.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
