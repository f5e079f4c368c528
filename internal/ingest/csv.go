package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

func decodeCSV[T any](r io.Reader, tabs bool) ([]T, error) {
	reader := csv.NewReader(r)
	if tabs {
		reader.Comma = '\t'
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return decodeRows[T](&paddedReader{r: reader})
}

// decodeRows maps header-led records onto T using csv struct tags.
func decodeRows[T any](r csvutil.Reader) ([]T, error) {
	dec, err := csvutil.NewDecoder(r)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read header")
	}
	dec.Map = normalizeValue

	var out []T
	for {
		var v T
		if err := dec.Decode(&v); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "ingest: decode row %d", len(out)+2)
		}
		out = append(out, v)
	}
	return out, nil
}

// normalizeValue trims cells and strips currency formatting from numeric
// columns. An empty required number reads as zero; an empty optional one
// stays nil.
func normalizeValue(value, _ string, v any) string {
	value = strings.TrimSpace(value)
	switch v.(type) {
	case float64:
		value = stripMoney(value)
		if value == "" {
			return "0"
		}
	case *float64:
		value = stripMoney(value)
	}
	return value
}

func stripMoney(s string) string {
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// paddedReader pads short records to the header width so ragged rows with
// missing trailing cells decode instead of failing.
type paddedReader struct {
	r     csvutil.Reader
	width int
}

func (p *paddedReader) Read() ([]string, error) {
	rec, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	if p.width == 0 {
		p.width = len(rec)
		return rec, nil
	}
	for len(rec) < p.width {
		rec = append(rec, "")
	}
	if len(rec) > p.width {
		rec = rec[:p.width]
	}
	return rec, nil
}
