package tagger

import "fmt"

// Ledger row field positions, matching the 8-field sink row layout.
const (
	rowDescription = 2
	rowType        = 4
	rowCategory    = 5
)

// HistorySource supplies the historical ledger rows the tagger is built from.
// *repository.SQLiteLedger and the in-memory ledger both satisfy it.
type HistorySource interface {
	Transactions() ([][]string, error)
}

type labelPair struct {
	txType   string
	category string
}

// HistoricalTagger classifies by exact-match description lookup against the
// reference sink's history. For each description it returns the (type,
// category) pair observed most often; when two pairs are tied, the pair seen
// first in the history wins, so repeated builds over the same rows are
// deterministic.
type HistoricalTagger struct {
	best map[string]labelPair
}

// NewHistoricalTagger reads the full history from source and builds the
// frequency table once, at construction.
func NewHistoricalTagger(source HistorySource) (*HistoricalTagger, error) {
	rows, err := source.Transactions()
	if err != nil {
		return nil, fmt.Errorf("loading tagging history: %w", err)
	}

	counts := make(map[string]map[labelPair]int)
	order := make(map[string][]labelPair)
	for _, row := range rows {
		if len(row) <= rowCategory {
			continue
		}
		description := row[rowDescription]
		pair := labelPair{txType: row[rowType], category: row[rowCategory]}
		if pair.category == "" {
			continue
		}
		if counts[description] == nil {
			counts[description] = make(map[labelPair]int)
		}
		if counts[description][pair] == 0 {
			order[description] = append(order[description], pair)
		}
		counts[description][pair]++
	}

	best := make(map[string]labelPair, len(counts))
	for description, pairs := range order {
		var top labelPair
		topCount := 0
		for _, pair := range pairs {
			// Strict comparison keeps the first-seen pair on ties.
			if counts[description][pair] > topCount {
				top = pair
				topCount = counts[description][pair]
			}
		}
		best[description] = top
	}

	return &HistoricalTagger{best: best}, nil
}

// Category returns the most frequent historical category for the exact
// description, or "" when the description was never seen.
func (t *HistoricalTagger) Category(description string) string {
	return t.best[description].category
}

// Type returns the most frequent historical type for the exact description,
// or "" when the description was never seen.
func (t *HistoricalTagger) Type(description string) string {
	return t.best[description].txType
}
