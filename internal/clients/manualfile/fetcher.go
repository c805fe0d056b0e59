// Package manualfile reads manually-exported transaction files for the
// manual account manager. The format is delimited text with a configurable
// column layout, header/footer skips and number separators.
package manualfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/accounts/manual"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Columns maps row fields to zero-based column positions. Balance is a
// pointer so an omitted key means the file carries no balance column.
type Columns struct {
	AuthDate    int  `yaml:"auth_date"`
	CaptureDate int  `yaml:"capture_date"`
	Description int  `yaml:"description"`
	Amount      int  `yaml:"amount"`
	Balance     *int `yaml:"balance"`
}

// Config describes one export file's shape.
type Config struct {
	Path               string  `yaml:"path"`
	SkipHeaderRows     int     `yaml:"skip_header_rows"`
	SkipFooterRows     int     `yaml:"skip_footer_rows"`
	DateLayout         string  `yaml:"date_layout"`
	Delimiter          string  `yaml:"delimiter"`
	DecimalSeparator   string  `yaml:"decimal_separator"`
	ThousandsSeparator string  `yaml:"thousands_separator"`
	Columns            Columns `yaml:"columns"`
}

// Fetcher reads one file per call; it holds no open handles between reads.
type Fetcher struct {
	cfg Config
}

var _ manual.Fetcher = (*Fetcher)(nil)

// NewFetcher validates the configuration and builds the fetcher.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("manual file fetcher: path is required")
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = "2006-01-02"
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = ","
	}
	return &Fetcher{cfg: cfg}, nil
}

// Rows reads the file and returns the rows whose date falls inside
// [start, end]. Zero start/end leave that side of the window open. The auth
// date drives the filter, with the capture date as fallback.
func (f *Fetcher) Rows(_ context.Context, start, end time.Time) ([]manual.Row, error) {
	file, err := os.Open(f.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", accounts.ErrSourceUnavailable, f.cfg.Path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.Comma = rune(f.cfg.Delimiter[0])
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.cfg.Path, err)
	}

	if len(records) <= f.cfg.SkipHeaderRows+f.cfg.SkipFooterRows {
		return nil, nil
	}
	records = records[f.cfg.SkipHeaderRows : len(records)-f.cfg.SkipFooterRows]

	var rows []manual.Row
	for i, record := range records {
		row, err := f.parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", f.cfg.Path, i+f.cfg.SkipHeaderRows+1, err)
		}

		date := row.AuthDate
		if date.IsZero() {
			date = row.CaptureDate
		}
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *Fetcher) parseRow(record []string) (manual.Row, error) {
	cols := f.cfg.Columns
	width := maxColumn(cols)
	if len(record) <= width {
		return manual.Row{}, fmt.Errorf("row has %d fields, need at least %d", len(record), width+1)
	}

	authDate, err := time.Parse(f.cfg.DateLayout, strings.TrimSpace(record[cols.AuthDate]))
	if err != nil {
		return manual.Row{}, fmt.Errorf("parsing auth date: %w", err)
	}
	captureDate, err := time.Parse(f.cfg.DateLayout, strings.TrimSpace(record[cols.CaptureDate]))
	if err != nil {
		return manual.Row{}, fmt.Errorf("parsing capture date: %w", err)
	}
	amount, err := transaction.ParseAmount(f.normalizeNumber(record[cols.Amount]))
	if err != nil {
		return manual.Row{}, err
	}

	row := manual.Row{
		AuthDate:    authDate,
		CaptureDate: captureDate,
		Description: strings.TrimSpace(record[cols.Description]),
		Amount:      amount,
	}

	if cols.Balance != nil && *cols.Balance >= 0 && *cols.Balance < len(record) {
		raw := strings.TrimSpace(record[*cols.Balance])
		if raw != "" {
			balance, err := transaction.ParseAmount(f.normalizeNumber(raw))
			if err != nil {
				return manual.Row{}, fmt.Errorf("parsing balance: %w", err)
			}
			row.Balance = &balance
		}
	}
	return row, nil
}

// normalizeNumber strips the thousands separator and rewrites the decimal
// separator to a dot.
func (f *Fetcher) normalizeNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if f.cfg.ThousandsSeparator != "" {
		s = strings.ReplaceAll(s, f.cfg.ThousandsSeparator, "")
	}
	if f.cfg.DecimalSeparator != "" && f.cfg.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, f.cfg.DecimalSeparator, ".")
	}
	return s
}

func maxColumn(cols Columns) int {
	width := cols.AuthDate
	for _, c := range []int{cols.CaptureDate, cols.Description, cols.Amount} {
		if c > width {
			width = c
		}
	}
	return width
}
