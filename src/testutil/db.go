package testutil

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/username/moneymint/backend/src/logger"
	_ "modernc.org/sqlite"
)

func init() {
	logger.InitLogger("error")
}

// NewTestDB opens an isolated in-memory database with the full schema
// applied from db/migrations.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	// A single connection keeps the in-memory database alive and mirrors
	// the production setting.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		t.Fatalf("create migration driver: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir(), "moneymint", driver)
	if err != nil {
		t.Fatalf("create migration instance: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.ToSlash(filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations"))
}

// SeedUser inserts a user with the given balance and returns its id.
func SeedUser(t *testing.T, db *sql.DB, username, balance string) int64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO users (username, email, balance) VALUES (?, ?, ?)",
		username, fmt.Sprintf("%s@example.com", username), balance)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedPortfolio inserts a portfolio for the user and returns its id.
func SeedPortfolio(t *testing.T, db *sql.DB, userID int64, name string) int64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO portfolios (user_id, name) VALUES (?, ?)", userID, name)
	if err != nil {
		t.Fatalf("seed portfolio %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedHolding inserts a holding row and returns its id.
func SeedHolding(t *testing.T, db *sql.DB, userID, portfolioID int64, symbol string, quantity int64, avgBuyPrice string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO holdings (user_id, portfolio_id, symbol, quantity, avg_buy_price, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		userID, portfolioID, symbol, quantity, avgBuyPrice)
	if err != nil {
		t.Fatalf("seed holding %s: %v", symbol, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// CountTransactions returns the number of transaction rows for a portfolio.
func CountTransactions(t *testing.T, db *sql.DB, portfolioID int64) int {
	t.Helper()
	var n int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?", portfolioID).Scan(&n); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}
