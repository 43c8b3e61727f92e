package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/models"
)

type paymentServiceImpl struct {
	successURL string
	cancelURL  string
}

// NewPaymentService returns a PaymentService that simulates a hosted
// checkout: the balance top-up has already been applied by the ledger,
// the session only produces a redirect target for the frontend to show.
func NewPaymentService(successURL, cancelURL string) PaymentService {
	return &paymentServiceImpl{
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (s *paymentServiceImpl) CreateCheckoutSession(ctx context.Context, userID int64, amount decimal.Decimal) (*models.CheckoutSession, error) {
	sessionID := uuid.New().String()

	q := url.Values{}
	q.Set("session_id", sessionID)
	q.Set("amount", amount.String())
	q.Set("cancel_url", s.cancelURL)
	redirect := fmt.Sprintf("%s?%s", s.successURL, q.Encode())

	logger.FromContext(ctx).Info("Simulated checkout session created",
		"userID", userID, "sessionID", sessionID, "amount", amount.String())

	return &models.CheckoutSession{
		ID:  sessionID,
		URL: redirect,
	}, nil
}
