// Package sqlstore implements ledger.Store on database/sql. SQLite (through
// github.com/mattn/go-sqlite3) and PostgreSQL (through github.com/lib/pq)
// are supported.
//
// Every table carries an autoincrement seq column; listing orders by it to
// return records in insertion order. Timestamps are stored as RFC 3339 text
// with nanoseconds so both dialects round-trip them exactly.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// dialect holds the few differences between supported databases.
type dialect struct {
	driver        string
	autoIncrement string
	numbered      bool // $1, $2 placeholders instead of ?
}

var dialects = map[string]dialect{
	DriverSQLite:   {driver: DriverSQLite, autoIncrement: "INTEGER PRIMARY KEY AUTOINCREMENT"},
	DriverPostgres: {driver: DriverPostgres, autoIncrement: "BIGSERIAL PRIMARY KEY", numbered: true},
}

// Store is a ledger.Store on a SQL database.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens the SQLite database file at path, creating it and its
// parent directory when missing.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	return Open(ctx, DriverSQLite, dsn)
}

// OpenPostgres opens a PostgreSQL database from a lib/pq connection string.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	return Open(ctx, DriverPostgres, dsn)
}

// Open connects with driver and dsn and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, errors.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	s := &Store{db: db, dialect: d}
	if err := s.initializeSchema(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initializeSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			seq ` + s.dialect.autoIncrement + `,
			id BIGINT NOT NULL UNIQUE,
			name TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			seq ` + s.dialect.autoIncrement + `,
			id BIGINT NOT NULL UNIQUE,
			occurred_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			transaction_id BIGINT NOT NULL REFERENCES transactions (id),
			position INTEGER NOT NULL,
			account_id BIGINT NOT NULL,
			value BIGINT NOT NULL,
			PRIMARY KEY (transaction_id, position)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func (s *Store) exists(ctx context.Context, tx *sql.Tx, query string, arg any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, s.rebind(query), arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) AddAccount(ctx context.Context, account ledger.Account) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := s.exists(ctx, tx, `SELECT 1 FROM accounts WHERE id = ?`, account.ID)
		if err != nil {
			return errors.Wrapf(err, "failed to look up account %d", account.ID)
		}
		if taken {
			return ledger.NewDuplicateAccountIDError(account.ID)
		}

		taken, err = s.exists(ctx, tx, `SELECT 1 FROM accounts WHERE name = ?`, account.Name)
		if err != nil {
			return errors.Wrapf(err, "failed to look up account %s", account.Name)
		}
		if taken {
			return &ledger.DuplicateNameError{Name: account.Name}
		}

		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO accounts (id, name, type, description) VALUES (?, ?, ?, ?)`),
			account.ID, account.Name, account.Type.String(), account.Description)
		return errors.Wrapf(err, "failed to insert account %d", account.ID)
	})
}

const selectAccount = `SELECT id, name, type, description FROM accounts`

func (s *Store) GetAccount(ctx context.Context, id int64) (*ledger.Account, error) {
	return s.getAccount(ctx, selectAccount+` WHERE id = ?`, id)
}

func (s *Store) GetAccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	return s.getAccount(ctx, selectAccount+` WHERE name = ?`, name)
}

func (s *Store) getAccount(ctx context.Context, query string, arg any) (*ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(query), arg)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query account")
	}
	return account, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx, selectAccount+` ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query accounts")
	}
	defer rows.Close()

	accounts := []ledger.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan account")
		}
		accounts = append(accounts, *account)
	}
	return accounts, errors.Wrap(rows.Err(), "failed to iterate accounts")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.Account, error) {
	var (
		account ledger.Account
		typ     string
	)
	if err := row.Scan(&account.ID, &account.Name, &typ, &account.Description); err != nil {
		return nil, err
	}

	parsed, err := ledger.ParseAccountType(typ)
	if err != nil {
		// Keep the account readable; the validator reports the unknown type.
		parsed = ledger.AccountTypeUnknown
	}
	account.Type = parsed
	return &account, nil
}

func (s *Store) AddTransaction(ctx context.Context, txn ledger.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := s.exists(ctx, tx, `SELECT 1 FROM transactions WHERE id = ?`, txn.ID)
		if err != nil {
			return errors.Wrapf(err, "failed to look up transaction %d", txn.ID)
		}
		if taken {
			return ledger.NewDuplicateTransactionIDError(txn.ID)
		}

		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO transactions (id, occurred_at) VALUES (?, ?)`),
			txn.ID, txn.Timestamp.Format(time.RFC3339Nano))
		if err != nil {
			return errors.Wrapf(err, "failed to insert transaction %d", txn.ID)
		}

		insert := s.rebind(`INSERT INTO entries (transaction_id, position, account_id, value) VALUES (?, ?, ?, ?)`)
		for i, e := range txn.Entries {
			if _, err := tx.ExecContext(ctx, insert, txn.ID, i, e.AccountID, e.Value); err != nil {
				return errors.Wrapf(err, "failed to insert entry %d of transaction %d", i, txn.ID)
			}
		}
		return nil
	})
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT occurred_at FROM transactions WHERE id = ?`), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query transaction %d", id)
	}

	ts, err := parseTimestamp(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "transaction %d", id)
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT account_id, value FROM entries WHERE transaction_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query entries of transaction %d", id)
	}
	defer rows.Close()

	txn := ledger.Transaction{ID: id, Timestamp: ts, Entries: []ledger.Entry{}}
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.AccountID, &e.Value); err != nil {
			return nil, errors.Wrap(err, "failed to scan entry")
		}
		txn.Entries = append(txn.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate entries")
	}

	return &txn, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.occurred_at, e.account_id, e.value
		FROM transactions t
		LEFT JOIN entries e ON e.transaction_id = t.id
		ORDER BY t.seq, e.position`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query transactions")
	}
	defer rows.Close()

	txns := []ledger.Transaction{}
	for rows.Next() {
		var (
			id        int64
			raw       string
			accountID sql.NullInt64
			value     sql.NullInt64
		)
		if err := rows.Scan(&id, &raw, &accountID, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan transaction")
		}

		if len(txns) == 0 || txns[len(txns)-1].ID != id {
			ts, err := parseTimestamp(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "transaction %d", id)
			}
			txns = append(txns, ledger.Transaction{ID: id, Timestamp: ts, Entries: []ledger.Entry{}})
		}
		if accountID.Valid {
			last := &txns[len(txns)-1]
			last.Entries = append(last.Entries, ledger.Entry{AccountID: accountID.Int64, Value: value.Int64})
		}
	}
	return txns, errors.Wrap(rows.Err(), "failed to iterate transactions")
}

func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid timestamp %q", raw)
	}
	return ts, nil
}

// Compile-time check
var _ ledger.Store = (*Store)(nil)
