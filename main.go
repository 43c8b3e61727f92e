package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/moneymint/backend/src/config"
	"github.com/username/moneymint/backend/src/database"
	"github.com/username/moneymint/backend/src/handlers"
	"github.com/username/moneymint/backend/src/ledger"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/services"
	"github.com/username/moneymint/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("MoneyMint backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	limiter = rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst)

	accountStore := store.NewSQLStore(database.DB)
	quoteService := services.NewQuoteService(config.Cfg.QuoteAPIBaseURL, config.Cfg.QuoteTimeout, config.Cfg.QuoteCacheTTL)
	paymentService := services.NewPaymentService(config.Cfg.PaymentSuccessURL, config.Cfg.PaymentCancelURL)
	tradeLedger := ledger.New(accountStore, quoteService)

	tradeHandler := handlers.NewTradeHandler(tradeLedger, paymentService)
	userHandler := handlers.NewUserHandler(accountStore)
	portfolioHandler := handlers.NewPortfolioHandler()
	pfManagerHandler := handlers.NewPortfolioManagerHandler()

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "MoneyMint Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/trade/buy", tradeHandler.HandleBuy)
		r.Post("/trade/sell", tradeHandler.HandleSell)
		r.Post("/trade/charge", tradeHandler.HandleCharge)
		r.Post("/trade/checkout-session", tradeHandler.HandleCreateCheckoutSession)

		r.Post("/users", userHandler.HandleCreateUser)
		r.Get("/users/{id}", userHandler.HandleGetUser)

		r.Get("/portfolios", pfManagerHandler.ListPortfolios)
		r.Post("/portfolios", pfManagerHandler.CreatePortfolio)
		r.Delete("/portfolios/{id}", pfManagerHandler.DeletePortfolio)
		r.Get("/portfolios/{id}/holdings", portfolioHandler.HandleGetHoldings)
		r.Get("/portfolios/{id}/transactions", portfolioHandler.HandleGetTransactions)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
