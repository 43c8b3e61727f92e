package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/models"
)

// Define common service errors
var (
	// ErrQuoteUnavailable reports that the price API could not produce a
	// current price. The ledger absorbs it: a sell degrades to price 0
	// instead of aborting.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// QuoteService defines the interface for fetching current market prices.
type QuoteService interface {
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// PaymentService creates checkout sessions for the simulated top-up flow.
// The balance credit is already committed before a session is requested;
// a session failure never rolls the credit back.
type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, userID int64, amount decimal.Decimal) (*models.CheckoutSession, error)
}
