package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"bankist/internal/models"

	"github.com/google/uuid"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Storage-level errors. The bank service maps these onto user-facing
// conditions before they reach the frontend.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

// DB wraps a sql.DB connection. It is the account directory, the ledger and
// the audit log; no SQL lives outside this package. The default path
// ":memory:" keeps all state in-process, reset on restart.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			username TEXT UNIQUE NOT NULL,
			pin_hash TEXT NOT NULL,
			interest_rate REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'EUR',
			locale TEXT NOT NULL DEFAULT 'en-US',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS movements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			amount REAL NOT NULL,
			memo TEXT NOT NULL DEFAULT 'other',
			date DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			old_value TEXT,
			new_value TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateAccount inserts a new account. The username is derived from the
// owner's initials exactly once, here; it never changes afterwards.
func (db *DB) CreateAccount(owner, pinHash string, interestRate float64, currency, locale string) (*models.Account, error) {
	username := models.DeriveUsername(owner)

	result, err := db.conn.Exec(
		"INSERT INTO accounts (owner, username, pin_hash, interest_rate, currency, locale) VALUES (?, ?, ?, ?, ?, ?)",
		owner, username, pinHash, interestRate, currency, locale,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.AccountByID(id)
}

// AccountByID retrieves an account by ID.
func (db *DB) AccountByID(id int64) (*models.Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, owner, username, pin_hash, interest_rate, currency, locale, created_at FROM accounts WHERE id = ?",
		id,
	)
	return scanAccount(row)
}

// AccountByUsername retrieves an account by username.
func (db *DB) AccountByUsername(username string) (*models.Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, owner, username, pin_hash, interest_rate, currency, locale, created_at FROM accounts WHERE username = ?",
		username,
	)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Owner, &a.Username, &a.PINHash, &a.InterestRate, &a.Currency, &a.Locale, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AccountCount returns the number of accounts in the directory.
func (db *DB) AccountCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count)
	return count, err
}

// DeleteAccount removes an account and its movements. Subsequent lookups by
// its username report not-found.
func (db *DB) DeleteAccount(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM movements WHERE account_id = ?", id); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}

	return tx.Commit()
}

// AppendMovement appends one ledger entry. Amount, memo and date land in a
// single row, so the pairing invariant holds by construction. No validation
// happens here; that is the bank service's job.
func (db *DB) AppendMovement(accountID int64, amount float64, memo string, date time.Time) error {
	if date.IsZero() {
		date = time.Now()
	}
	_, err := db.conn.Exec(
		"INSERT INTO movements (account_id, amount, memo, date) VALUES (?, ?, ?, ?)",
		accountID, amount, memo, date,
	)
	return err
}

// TransferMovements appends the debit and the credit inside one transaction:
// either both sides of the transfer land, dated, or neither does.
func (db *DB) TransferMovements(fromID, toID int64, amount float64, memo string, date time.Time) error {
	if date.IsZero() {
		date = time.Now()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO movements (account_id, amount, memo, date) VALUES (?, ?, ?, ?)",
		fromID, -amount, memo, date,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO movements (account_id, amount, memo, date) VALUES (?, ?, ?, ?)",
		toID, amount, memo, date,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// Movements retrieves an account's ledger in chronological order.
func (db *DB) Movements(accountID int64) ([]models.Movement, error) {
	rows, err := db.conn.Query(
		"SELECT id, account_id, amount, memo, date FROM movements WHERE account_id = ? ORDER BY date ASC, id ASC",
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []models.Movement
	for rows.Next() {
		var m models.Movement
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Amount, &m.Memo, &m.Date); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	return movements, rows.Err()
}

// BalanceOf returns the sum of the account's movements. The balance is never
// stored; this query is the only source of truth.
func (db *DB) BalanceOf(accountID int64) (float64, error) {
	var balance float64
	err := db.conn.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM movements WHERE account_id = ?",
		accountID,
	).Scan(&balance)
	return balance, err
}

// SummaryOf computes income, outgoing and interest totals for movements dated
// on or after since. Pass the zero time for an all-time summary. Interest is
// earned per deposit at interestRate percent, dropping contributions below
// one unit of currency.
func (db *DB) SummaryOf(accountID int64, since time.Time, interestRate float64) (*models.Summary, error) {
	var s models.Summary

	err := db.conn.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM movements WHERE account_id = ? AND amount > 0 AND date >= ?",
		accountID, since,
	).Scan(&s.Income)
	if err != nil {
		return nil, err
	}

	err = db.conn.QueryRow(
		"SELECT COALESCE(ABS(SUM(amount)), 0) FROM movements WHERE account_id = ? AND amount < 0 AND date >= ?",
		accountID, since,
	).Scan(&s.Outgoing)
	if err != nil {
		return nil, err
	}

	err = db.conn.QueryRow(
		"SELECT COALESCE(SUM(amount * ? / 100), 0) FROM movements WHERE account_id = ? AND amount > 0 AND date >= ? AND amount * ? / 100 >= 1",
		interestRate, accountID, since, interestRate,
	).Scan(&s.Interest)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// CategoryTotals aggregates movements by memo for one calendar month. The
// month boundary is computed from real dates, never from string prefixes.
func (db *DB) CategoryTotals(accountID int64, year int, month time.Month) ([]models.CategoryTotal, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := db.conn.Query(
		`SELECT memo, SUM(amount), COUNT(*) FROM movements
		 WHERE account_id = ? AND date >= ? AND date < ?
		 GROUP BY memo ORDER BY SUM(amount) ASC`,
		accountID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}

	return totals, rows.Err()
}

// AppendAudit records one audit entry with JSON snapshots of the entity
// before and after the action.
func (db *DB) AppendAudit(entityType, entityID, action string, oldValue, newValue []byte) error {
	_, err := db.conn.Exec(
		"INSERT INTO audit_log (id, entity_type, entity_id, action, old_value, new_value) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.NewString(), entityType, entityID, action, nullable(oldValue), nullable(newValue),
	)
	return err
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// AuditTrail returns the most recent audit entries, newest first.
func (db *DB) AuditTrail(limit int) ([]models.AuditEntry, error) {
	rows, err := db.conn.Query(
		"SELECT id, entity_type, entity_id, action, COALESCE(old_value, ''), COALESCE(new_value, ''), created_at FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
