package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/moneymint/backend/src/logger"
	"github.com/username/moneymint/backend/src/models"
)

// Ledger enforces balance and holding consistency across trades. Every
// operation runs its read-modify-write sequence inside one store
// transaction, serialized per user, so concurrent trades against the same
// account cannot corrupt the balance or the cost basis.
type Ledger struct {
	store  AccountStore
	quotes QuoteService
	locks  sync.Map // userID -> *sync.Mutex
}

func New(store AccountStore, quotes QuoteService) *Ledger {
	return &Ledger{
		store:  store,
		quotes: quotes,
	}
}

// lockUser serializes ledger operations for one user. The returned func
// releases the lock.
func (l *Ledger) lockUser(userID int64) func() {
	v, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Buy purchases quantity shares of symbol at the caller-supplied execution
// price, debiting the owning user's balance. The holding's cost basis is
// blended volume-weighted with any existing position.
func (l *Ledger) Buy(ctx context.Context, portfolioID int64, symbol string, quantity int64, price decimal.Decimal) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return ErrInvalidPrice
	}

	portfolio, err := l.store.FindPortfolio(ctx, portfolioID)
	if err != nil {
		return err
	}

	unlock := l.lockUser(portfolio.UserID)
	defer unlock()

	totalCost := price.Mul(decimal.NewFromInt(quantity))

	return l.store.WithTx(ctx, func(tx AccountTx) error {
		user, err := tx.FindUser(ctx, portfolio.UserID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(totalCost) {
			return ErrInsufficientFunds
		}

		now := time.Now().UTC()

		holding, err := tx.FindHolding(ctx, user.ID, portfolio.ID, symbol)
		switch {
		case err == nil:
			newQty := holding.Quantity + quantity
			oldCost := holding.AvgBuyPrice.Mul(decimal.NewFromInt(holding.Quantity))
			holding.AvgBuyPrice = oldCost.Add(totalCost).Div(decimal.NewFromInt(newQty))
			holding.Quantity = newQty
		case errors.Is(err, ErrHoldingNotFound):
			holding = &models.Holding{
				UserID:      user.ID,
				PortfolioID: portfolio.ID,
				Symbol:      symbol,
				Quantity:    quantity,
				AvgBuyPrice: price,
			}
		default:
			return err
		}
		holding.UpdatedAt = now

		if err := tx.UpsertHolding(ctx, holding); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, &models.Transaction{
			UserID:       user.ID,
			PortfolioID:  portfolio.ID,
			Symbol:       symbol,
			TxnType:      models.TxnTypeBuy,
			Quantity:     quantity,
			PricePerUnit: price,
			TxnDate:      now,
		}); err != nil {
			return err
		}
		return tx.SaveUserBalance(ctx, user.ID, user.Balance.Sub(totalCost))
	})
}

// SellResult reports the outcome of a Sell back to the caller.
type SellResult struct {
	ExecutionPrice decimal.Decimal
	NewBalance     decimal.Decimal
}

// Sell liquidates quantity shares of symbol at the current market price
// from the quote source, crediting the proceeds to the owning user. A
// failed quote does not abort the sell: the execution price degrades to
// zero and the trade is still recorded.
func (l *Ledger) Sell(ctx context.Context, portfolioID int64, symbol string, quantity int64) (SellResult, error) {
	if quantity <= 0 {
		return SellResult{}, ErrInvalidQuantity
	}

	portfolio, err := l.store.FindPortfolio(ctx, portfolioID)
	if err != nil {
		return SellResult{}, err
	}

	unlock := l.lockUser(portfolio.UserID)
	defer unlock()

	// Cheap precondition check before the outbound quote call, so a short
	// position never pays for a price fetch. The authoritative check runs
	// again inside the transaction.
	held, err := l.store.FindHolding(ctx, portfolio.UserID, portfolio.ID, symbol)
	if errors.Is(err, ErrHoldingNotFound) {
		return SellResult{}, ErrInsufficientHoldings
	}
	if err != nil {
		return SellResult{}, err
	}
	if held.Quantity < quantity {
		return SellResult{}, ErrInsufficientHoldings
	}

	price, err := l.quotes.GetCurrentPrice(ctx, symbol)
	if err != nil {
		logger.FromContext(ctx).Warn("Quote unavailable, selling at price 0",
			"symbol", symbol, "error", err)
		price = decimal.Zero
	}

	var result SellResult
	err = l.store.WithTx(ctx, func(tx AccountTx) error {
		user, err := tx.FindUser(ctx, portfolio.UserID)
		if err != nil {
			return err
		}
		holding, err := tx.FindHolding(ctx, user.ID, portfolio.ID, symbol)
		if errors.Is(err, ErrHoldingNotFound) {
			return ErrInsufficientHoldings
		}
		if err != nil {
			return err
		}
		if holding.Quantity < quantity {
			return ErrInsufficientHoldings
		}

		now := time.Now().UTC()

		holding.Quantity -= quantity
		if holding.Quantity == 0 {
			if err := tx.DeleteHolding(ctx, holding.ID); err != nil {
				return err
			}
		} else {
			holding.UpdatedAt = now
			if err := tx.UpsertHolding(ctx, holding); err != nil {
				return err
			}
		}

		if err := tx.InsertTransaction(ctx, &models.Transaction{
			UserID:       user.ID,
			PortfolioID:  portfolio.ID,
			Symbol:       symbol,
			TxnType:      models.TxnTypeSell,
			Quantity:     quantity,
			PricePerUnit: price,
			TxnDate:      now,
		}); err != nil {
			return err
		}

		newBalance := user.Balance.Add(price.Mul(decimal.NewFromInt(quantity)))
		if err := tx.SaveUserBalance(ctx, user.ID, newBalance); err != nil {
			return err
		}
		result = SellResult{ExecutionPrice: price, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return SellResult{}, err
	}
	return result, nil
}

// Deposit credits amount to the user's balance and returns the new
// balance. Deposits are balance-only and produce no transaction record.
func (l *Ledger) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	unlock := l.lockUser(userID)
	defer unlock()

	var newBalance decimal.Decimal
	err := l.store.WithTx(ctx, func(tx AccountTx) error {
		user, err := tx.FindUser(ctx, userID)
		if err != nil {
			return err
		}
		newBalance = user.Balance.Add(amount)
		return tx.SaveUserBalance(ctx, userID, newBalance)
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return newBalance, nil
}
