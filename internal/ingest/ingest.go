// Package ingest loads merchant run inputs from CSV, XLSX and JSON files.
package ingest

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/merchant-ops/internal/model"
)

// Default per-run input bounds.
const (
	DefaultMaxProducts       = 10
	DefaultMaxMessages       = 20
	DefaultMaxPricingContext = 5
)

// Limits caps how many records of each kind reach a run. Zero or negative
// values disable the cap.
type Limits struct {
	Products       int
	Messages       int
	PricingContext int
}

// DefaultLimits returns the standard 10/20/5 bounds.
func DefaultLimits() Limits {
	return Limits{
		Products:       DefaultMaxProducts,
		Messages:       DefaultMaxMessages,
		PricingContext: DefaultMaxPricingContext,
	}
}

// Bound returns the first n items. The input is returned unchanged when n <= 0
// or it is already short enough.
func Bound[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// Options configures file decoding.
type Options struct {
	// Charset names the text encoding of CSV and JSON files (e.g. "windows-1252").
	// Empty means UTF-8. XLSX files are always UTF-8.
	Charset string
}

// LoadProducts reads a product catalog.
func LoadProducts(path string, opts Options) ([]model.Product, error) {
	return load[model.Product](path, opts)
}

// LoadMessages reads customer support messages.
func LoadMessages(path string, opts Options) ([]model.CustomerMessage, error) {
	return load[model.CustomerMessage](path, opts)
}

// LoadPricingContext reads competitor pricing records.
func LoadPricingContext(path string, opts Options) ([]model.PricingContext, error) {
	return load[model.PricingContext](path, opts)
}

func load[T any](path string, opts Options) ([]T, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		rows, err := readSheet(path)
		if err != nil {
			return nil, err
		}
		return decodeRows[T](&paddedReader{r: &sliceReader{rows: rows}})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r, err := decodeCharset(f, opts.Charset)
	if err != nil {
		return nil, err
	}

	switch ext {
	case ".csv", ".tsv":
		return decodeCSV[T](r, ext == ".tsv")
	case ".json":
		var out []T
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			return nil, eris.Wrapf(err, "ingest: decode json %s", path)
		}
		return out, nil
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", ext)
	}
}

func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
