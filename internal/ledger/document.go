package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/quantperf/internal/contracts"
)

// DateLayout is the calendar date format of ledger documents
const DateLayout = "2006-01-02"

// Document is the file/wire form of a ledger (YAML or JSON)
//
//	run_id: ma5-2018
//	history:
//	  - {date: "2024-01-02", total_assets: 100000}
//	trades:
//	  - {date: "2024-01-03", code: "600000", action: buy}
//	  - {date: "2024-01-09", code: "600000", action: sell, profit: 850.5, return_rate: 0.042}
type Document struct {
	RunID   string          `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	History []HistoryRecord `yaml:"history" json:"history"`
	Trades  []TradeRecord   `yaml:"trades,omitempty" json:"trades,omitempty"`
}

// HistoryRecord is one dated total-asset value
type HistoryRecord struct {
	Date        string  `yaml:"date" json:"date"`
	TotalAssets float64 `yaml:"total_assets" json:"total_assets"`
}

// TradeRecord is one trade entry; profit and return_rate are optional
type TradeRecord struct {
	Date       string   `yaml:"date,omitempty" json:"date,omitempty"`
	Code       string   `yaml:"code,omitempty" json:"code,omitempty"`
	Action     string   `yaml:"action" json:"action"`
	Profit     *float64 `yaml:"profit,omitempty" json:"profit,omitempty"`
	ReturnRate *float64 `yaml:"return_rate,omitempty" json:"return_rate,omitempty"`
}

// Decode reads a YAML or JSON ledger document.
// Unknown fields are rejected so that typos do not silently drop data.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode ledger: empty document")
		}
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	return &doc, nil
}

// Ledger converts the document into a contracts.Ledger
func (d *Document) Ledger() (*contracts.Ledger, error) {
	l := &contracts.Ledger{
		Dates:       make([]time.Time, 0, len(d.History)),
		TotalAssets: make([]float64, 0, len(d.History)),
		Trades:      make([]contracts.Trade, 0, len(d.Trades)),
	}

	for i, h := range d.History {
		date, err := parseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		l.Dates = append(l.Dates, date)
		l.TotalAssets = append(l.TotalAssets, h.TotalAssets)
	}

	for i, t := range d.Trades {
		trade := contracts.Trade{
			Code:       t.Code,
			Action:     contracts.TradeAction(t.Action),
			Profit:     t.Profit,
			ReturnRate: t.ReturnRate,
		}
		if t.Date != "" {
			date, err := parseDate(t.Date)
			if err != nil {
				return nil, fmt.Errorf("trades[%d]: %w", i, err)
			}
			trade.Date = date
		}
		l.Trades = append(l.Trades, trade)
	}

	return l, nil
}

// FromLedger builds a document from a ledger. Dates and values are paired
// over the aligned prefix.
func FromLedger(runID string, l *contracts.Ledger) *Document {
	doc := &Document{RunID: runID}

	for i := 0; i < l.AlignedLen(); i++ {
		doc.History = append(doc.History, HistoryRecord{
			Date:        l.Dates[i].Format(DateLayout),
			TotalAssets: l.TotalAssets[i],
		})
	}

	for _, t := range l.Trades {
		rec := TradeRecord{
			Code:       t.Code,
			Action:     string(t.Action),
			Profit:     t.Profit,
			ReturnRate: t.ReturnRate,
		}
		if !t.Date.IsZero() {
			rec.Date = t.Date.Format(DateLayout)
		}
		doc.Trades = append(doc.Trades, rec)
	}

	return doc
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// LoadDocument reads a ledger document from path
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadFile reads a ledger from path
func LoadFile(path string) (*contracts.Ledger, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}

	l, err := doc.Ledger()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// FileSource loads ledgers from <Dir>/<runID>.yaml|.yml|.json
type FileSource struct {
	Dir string
}

// NewFileSource creates a file-backed source rooted at dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

var documentExtensions = []string{".yaml", ".yml", ".json"}

// Load implements Source
func (s *FileSource) Load(ctx context.Context, runID string) (*contracts.Ledger, error) {
	if runID == "" || filepath.Base(runID) != runID {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}

	for _, ext := range documentExtensions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.Dir, runID+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}

	return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
}
