package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money fields serialize as plain JSON numbers, matching the wire
	// contract the frontend already consumes.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction types recorded in the trade ledger.
const (
	TxnTypeBuy  = "BUY"
	TxnTypeSell = "SELL"
)

// User represents an account holder. Balance is a decimal currency amount
// and is mutated only by ledger operations.
type User struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Portfolio is a named grouping of holdings belonging to exactly one user.
type Portfolio struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// Holding is a live position in one symbol within one portfolio.
// At most one holding exists per (user, portfolio, symbol); quantity is
// always positive while the row exists — a fully sold holding is deleted.
type Holding struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	PortfolioID int64           `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Transaction is an immutable record of one executed trade.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	PortfolioID  int64           `json:"portfolio_id"`
	Symbol       string          `json:"symbol"`
	TxnType      string          `json:"txn_type"`
	Quantity     int64           `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TxnDate      time.Time       `json:"txn_date"`
}

// CheckoutSession is the redirect target for a simulated payment flow.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
