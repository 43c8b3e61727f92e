package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/logger"
	"golang.org/x/net/publicsuffix"
)

type currentPriceResponse struct {
	Ticker       string          `json:"ticker"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

type quoteServiceImpl struct {
	httpClient http.Client
	baseURL    string
	priceCache *cache.Cache
}

// NewQuoteService returns a QuoteService backed by the price API at
// baseURL. Responses are cached per symbol for cacheTTL so bursts of
// sells against the same symbol do not hammer the upstream.
func NewQuoteService(baseURL string, timeout, cacheTTL time.Duration) QuoteService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	client := http.Client{
		Jar:     jar,
		Timeout: timeout,
	}

	return &quoteServiceImpl{
		httpClient: client,
		baseURL:    baseURL,
		priceCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *quoteServiceImpl) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if cached, found := s.priceCache.Get(symbol); found {
		return cached.(decimal.Decimal), nil
	}

	reqURL := fmt.Sprintf("%s/current-price?ticker=%s", s.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.FromContext(ctx).Warn("Price API request failed", "symbol", symbol, "error", err)
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.FromContext(ctx).Warn("Price API returned non-OK status", "symbol", symbol, "status", resp.StatusCode)
		return decimal.Decimal{}, fmt.Errorf("%w: status %d", ErrQuoteUnavailable, resp.StatusCode)
	}

	var body currentPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: decoding response: %v", ErrQuoteUnavailable, err)
	}

	s.priceCache.Set(symbol, body.CurrentPrice, cache.DefaultExpiration)
	return body.CurrentPrice, nil
}
