package services_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/moneymint/backend/src/services"
)

func TestCreateCheckoutSession(t *testing.T) {
	ps := services.NewPaymentService("https://app.example.com/checkout/success", "https://app.example.com/checkout/cancel")

	session, err := ps.CreateCheckoutSession(context.Background(), 7, decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	u, err := url.Parse(session.URL)
	require.NoError(t, err)
	assert.Equal(t, "/checkout/success", u.Path)
	assert.Equal(t, session.ID, u.Query().Get("session_id"))
	assert.Equal(t, "150", u.Query().Get("amount"))
}

func TestCheckoutSessionIDsAreUnique(t *testing.T) {
	ps := services.NewPaymentService("https://app.example.com/s", "https://app.example.com/c")

	a, err := ps.CreateCheckoutSession(context.Background(), 1, decimal.NewFromInt(10))
	require.NoError(t, err)
	b, err := ps.CreateCheckoutSession(context.Background(), 1, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
