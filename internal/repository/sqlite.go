package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_rows (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	capture_date   TEXT NOT NULL,
	auth_date      TEXT NOT NULL,
	description    TEXT NOT NULL,
	account        TEXT NOT NULL,
	type           TEXT NOT NULL,
	category       TEXT NOT NULL,
	absolute_value TEXT NOT NULL,
	signed_value   TEXT NOT NULL,
	inserted_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_ledger_rows_account ON ledger_rows(account);

CREATE TABLE IF NOT EXISTS balances (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	balance_date TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	account      TEXT NOT NULL,
	balance      TEXT NOT NULL
);
`

// SQLiteLedger is the SQLite-backed sink. Rows are stored as pushed, with the
// dates in the configured layout, so the ledger file stays readable with any
// sqlite client.
type SQLiteLedger struct {
	db         *sql.DB
	dateLayout string
}

var _ Repository = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (and bootstraps) the ledger database at path.
// dateLayout is the layout the pushed date columns are formatted with; it is
// needed to answer last-date queries. Empty selects "2006/01/02".
func NewSQLiteLedger(path, dateLayout string) (*SQLiteLedger, error) {
	if dateLayout == "" {
		dateLayout = "2006/01/02"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrapping ledger schema: %w", err)
	}
	return &SQLiteLedger{db: db, dateLayout: dateLayout}, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// LastTransactionDateForAccount returns the maximum auth date recorded for
// the account. The layout sorts lexically in date order, so MAX on the text
// column is safe.
func (l *SQLiteLedger) LastTransactionDateForAccount(account string) (time.Time, bool, error) {
	var last sql.NullString
	err := l.db.QueryRow(
		`SELECT MAX(auth_date) FROM ledger_rows WHERE account = ?`, account,
	).Scan(&last)
	if err != nil {
		return time.Time{}, false, err
	}
	if !last.Valid || last.String == "" {
		return time.Time{}, false, nil
	}
	date, err := time.Parse(l.dateLayout, last.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing stored auth date %q: %w", last.String, err)
	}
	return date, true, nil
}

// BatchInsert appends the rows inside one transaction, skipping exact
// duplicates of rows already in the ledger.
func (l *SQLiteLedger) BatchInsert(rows [][]string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := tx.Prepare(`
		SELECT COUNT(*) FROM ledger_rows
		WHERE capture_date = ? AND auth_date = ? AND description = ?
		  AND account = ? AND type = ? AND category = ?
		  AND absolute_value = ? AND signed_value = ?`)
	if err != nil {
		return err
	}
	defer func() { _ = exists.Close() }()

	insert, err := tx.Prepare(`
		INSERT INTO ledger_rows
		(capture_date, auth_date, description, account, type, category, absolute_value, signed_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = insert.Close() }()

	for _, row := range rows {
		if len(row) != RowWidth {
			return fmt.Errorf("transaction row has %d fields, want %d", len(row), RowWidth)
		}
		args := make([]any, RowWidth)
		for i, field := range row {
			args[i] = field
		}
		var count int
		if err := exists.QueryRow(args...).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := insert.Exec(args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AppendBalances appends the balance rows. Balances are an audit trail, so
// repeats are kept as-is.
func (l *SQLiteLedger) AppendBalances(rows [][]string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range rows {
		if len(row) != BalanceRowWidth {
			return fmt.Errorf("balance row has %d fields, want %d", len(row), BalanceRowWidth)
		}
		_, err := tx.Exec(
			`INSERT INTO balances (balance_date, updated_at, account, balance) VALUES (?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3],
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Transactions returns all stored rows, oldest insertion first.
func (l *SQLiteLedger) Transactions() ([][]string, error) {
	rows, err := l.db.Query(`
		SELECT capture_date, auth_date, description, account, type, category, absolute_value, signed_value
		FROM ledger_rows ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result [][]string
	for rows.Next() {
		row := make([]string, RowWidth)
		if err := rows.Scan(&row[0], &row[1], &row[2], &row[3], &row[4], &row[5], &row[6], &row[7]); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
