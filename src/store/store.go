package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/ledger"
	"github.com/username/moneymint/backend/src/models"
)

// SQLStore implements ledger.AccountStore on top of database/sql. All
// lookups map sql.ErrNoRows to the ledger's *NotFound sentinels so the
// ledger never sees driver-level errors for missing records.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the statement implementations shared between the store
// and its transactions.
type queries struct {
	q dbtx
}

func (s *SQLStore) FindUser(ctx context.Context, id int64) (*models.User, error) {
	return queries{s.db}.FindUser(ctx, id)
}

func (s *SQLStore) FindPortfolio(ctx context.Context, id int64) (*models.Portfolio, error) {
	return queries{s.db}.FindPortfolio(ctx, id)
}

func (s *SQLStore) FindHolding(ctx context.Context, userID, portfolioID int64, symbol string) (*models.Holding, error) {
	return queries{s.db}.FindHolding(ctx, userID, portfolioID, symbol)
}

// WithTx runs fn inside one database transaction. Any error from fn (or
// from the commit) rolls back every write performed through the AccountTx.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx ledger.AccountTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(queries{tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (q queries) FindUser(ctx context.Context, id int64) (*models.User, error) {
	var (
		u          models.User
		balanceStr string
	)
	err := q.q.QueryRowContext(ctx,
		`SELECT id, username, email, balance, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &balanceStr, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	u.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("user %d has malformed balance %q: %w", id, balanceStr, err)
	}
	return &u, nil
}

func (q queries) FindPortfolio(ctx context.Context, id int64) (*models.Portfolio, error) {
	var p models.Portfolio
	err := q.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, is_default, created_at FROM portfolios WHERE id = ?`, id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsDefault, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find portfolio %d: %w", id, err)
	}
	return &p, nil
}

func (q queries) FindHolding(ctx context.Context, userID, portfolioID int64, symbol string) (*models.Holding, error) {
	var (
		h        models.Holding
		priceStr string
	)
	err := q.q.QueryRowContext(ctx,
		`SELECT id, user_id, portfolio_id, symbol, quantity, avg_buy_price, updated_at
		 FROM holdings WHERE user_id = ? AND portfolio_id = ? AND symbol = ?`,
		userID, portfolioID, symbol).
		Scan(&h.ID, &h.UserID, &h.PortfolioID, &h.Symbol, &h.Quantity, &priceStr, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrHoldingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find holding (%d,%d,%s): %w", userID, portfolioID, symbol, err)
	}
	h.AvgBuyPrice, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("holding %d has malformed avg_buy_price %q: %w", h.ID, priceStr, err)
	}
	return &h, nil
}

func (q queries) UpsertHolding(ctx context.Context, h *models.Holding) error {
	if h.ID == 0 {
		res, err := q.q.ExecContext(ctx,
			`INSERT INTO holdings (user_id, portfolio_id, symbol, quantity, avg_buy_price, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			h.UserID, h.PortfolioID, h.Symbol, h.Quantity, h.AvgBuyPrice.String(), h.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert holding (%d,%d,%s): %w", h.UserID, h.PortfolioID, h.Symbol, err)
		}
		h.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.q.ExecContext(ctx,
		`UPDATE holdings SET quantity = ?, avg_buy_price = ?, updated_at = ? WHERE id = ?`,
		h.Quantity, h.AvgBuyPrice.String(), h.UpdatedAt, h.ID)
	if err != nil {
		return fmt.Errorf("update holding %d: %w", h.ID, err)
	}
	return nil
}

func (q queries) DeleteHolding(ctx context.Context, id int64) error {
	_, err := q.q.ExecContext(ctx, `DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holding %d: %w", id, err)
	}
	return nil
}

func (q queries) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO transactions (user_id, portfolio_id, symbol, txn_type, quantity, price_per_unit, txn_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.PortfolioID, t.Symbol, t.TxnType, t.Quantity, t.PricePerUnit.String(), t.TxnDate)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (q queries) SaveUserBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE users SET balance = ? WHERE id = ?`, balance.String(), userID)
	if err != nil {
		return fmt.Errorf("save balance for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrUserNotFound
	}
	return nil
}
