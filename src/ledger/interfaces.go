package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/models"
)

// Sentinel errors returned by ledger operations and by the collaborators
// implementing the interfaces below.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrInsufficientFunds    = errors.New("insufficient balance")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInvalidAmount        = errors.New("amount must be greater than 0")
	ErrInvalidQuantity      = errors.New("quantity must be greater than 0")
	ErrInvalidPrice         = errors.New("price must be greater than 0")
)

// Reader is the read side of the account store. Lookups return the
// matching *NotFound sentinel when the record does not exist.
type Reader interface {
	FindUser(ctx context.Context, id int64) (*models.User, error)
	FindPortfolio(ctx context.Context, id int64) (*models.Portfolio, error)
	FindHolding(ctx context.Context, userID, portfolioID int64, symbol string) (*models.Holding, error)
}

// AccountTx is the set of store operations available inside one atomic unit.
// All writes performed through it commit or roll back together.
type AccountTx interface {
	Reader
	UpsertHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, id int64) error
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	SaveUserBalance(ctx context.Context, userID int64, balance decimal.Decimal) error
}

// AccountStore persists users, portfolios, holdings and transactions.
// WithTx runs fn inside a single store transaction; a non-nil error from
// fn rolls every write back.
type AccountStore interface {
	Reader
	WithTx(ctx context.Context, fn func(tx AccountTx) error) error
}

// QuoteService provides the current market price for a symbol.
type QuoteService interface {
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
