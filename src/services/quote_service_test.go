package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/moneymint/backend/src/services"
	_ "github.com/username/moneymint/backend/src/testutil" // logger init
)

func TestGetCurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current-price", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","current_price":187.32}`))
	}))
	defer srv.Close()

	qs := services.NewQuoteService(srv.URL, 2*time.Second, time.Minute)
	price, err := qs.GetCurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "187.32", price.String())
}

func TestGetCurrentPriceCachesPerSymbol(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"ticker":"AAPL","current_price":100}`))
	}))
	defer srv.Close()

	qs := services.NewQuoteService(srv.URL, 2*time.Second, time.Minute)
	for i := 0; i < 5; i++ {
		_, err := qs.GetCurrentPrice(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, hits.Load())
}

func TestGetCurrentPriceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	qs := services.NewQuoteService(srv.URL, 2*time.Second, time.Minute)
	_, err := qs.GetCurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, services.ErrQuoteUnavailable)
}

func TestGetCurrentPriceUnreachableHost(t *testing.T) {
	qs := services.NewQuoteService("http://127.0.0.1:1", 500*time.Millisecond, time.Minute)
	_, err := qs.GetCurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, services.ErrQuoteUnavailable)
}

func TestGetCurrentPriceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	qs := services.NewQuoteService(srv.URL, 2*time.Second, time.Minute)
	_, err := qs.GetCurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, services.ErrQuoteUnavailable)
}
