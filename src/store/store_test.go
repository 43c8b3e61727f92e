package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/moneymint/backend/src/ledger"
	"github.com/username/moneymint/backend/src/models"
	"github.com/username/moneymint/backend/src/store"
	"github.com/username/moneymint/backend/src/testutil"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFindUserMapsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)

	_, err := st.FindUser(context.Background(), 404)
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
}

func TestFindUserParsesBalance(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)
	userID := testutil.SeedUser(t, db, "alice", "123.45")

	user, err := st.FindUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Balance.Equal(dec("123.45")))
}

func TestFindPortfolioMapsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)

	_, err := st.FindPortfolio(context.Background(), 404)
	assert.ErrorIs(t, err, ledger.ErrPortfolioNotFound)
}

func TestFindHoldingMapsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)
	userID := testutil.SeedUser(t, db, "alice", "0")
	portfolioID := testutil.SeedPortfolio(t, db, userID, "Main")

	_, err := st.FindHolding(context.Background(), userID, portfolioID, "AAPL")
	assert.ErrorIs(t, err, ledger.ErrHoldingNotFound)
}

func TestUpsertHoldingInsertsThenUpdates(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)
	userID := testutil.SeedUser(t, db, "alice", "0")
	portfolioID := testutil.SeedPortfolio(t, db, userID, "Main")

	err := st.WithTx(context.Background(), func(tx ledger.AccountTx) error {
		h := &models.Holding{
			UserID:      userID,
			PortfolioID: portfolioID,
			Symbol:      "AAPL",
			Quantity:    5,
			AvgBuyPrice: dec("100"),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := tx.UpsertHolding(context.Background(), h); err != nil {
			return err
		}
		require.NotZero(t, h.ID)

		h.Quantity = 8
		h.AvgBuyPrice = dec("112.50")
		return tx.UpsertHolding(context.Background(), h)
	})
	require.NoError(t, err)

	holding, err := st.FindHolding(context.Background(), userID, portfolioID, "AAPL")
	require.NoError(t, err)
	assert.EqualValues(t, 8, holding.Quantity)
	assert.True(t, holding.AvgBuyPrice.Equal(dec("112.50")))
}

func TestSaveUserBalanceUnknownUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)

	err := st.WithTx(context.Background(), func(tx ledger.AccountTx) error {
		return tx.SaveUserBalance(context.Background(), 404, dec("10"))
	})
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
}

// An error from the transaction body must roll back every write.
func TestWithTxRollsBackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)
	userID := testutil.SeedUser(t, db, "alice", "100")
	portfolioID := testutil.SeedPortfolio(t, db, userID, "Main")

	boom := errors.New("boom")
	err := st.WithTx(context.Background(), func(tx ledger.AccountTx) error {
		h := &models.Holding{
			UserID:      userID,
			PortfolioID: portfolioID,
			Symbol:      "AAPL",
			Quantity:    5,
			AvgBuyPrice: dec("100"),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := tx.UpsertHolding(context.Background(), h); err != nil {
			return err
		}
		if err := tx.SaveUserBalance(context.Background(), userID, dec("0")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.FindHolding(context.Background(), userID, portfolioID, "AAPL")
	assert.ErrorIs(t, err, ledger.ErrHoldingNotFound)

	user, err := st.FindUser(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(dec("100")))
}

func TestInsertTransactionAssignsID(t *testing.T) {
	db := testutil.NewTestDB(t)
	st := store.NewSQLStore(db)
	userID := testutil.SeedUser(t, db, "alice", "0")
	portfolioID := testutil.SeedPortfolio(t, db, userID, "Main")

	txn := &models.Transaction{
		UserID:       userID,
		PortfolioID:  portfolioID,
		Symbol:       "AAPL",
		TxnType:      models.TxnTypeBuy,
		Quantity:     5,
		PricePerUnit: dec("100"),
		TxnDate:      time.Now().UTC(),
	}
	err := st.WithTx(context.Background(), func(tx ledger.AccountTx) error {
		return tx.InsertTransaction(context.Background(), txn)
	})
	require.NoError(t, err)
	assert.NotZero(t, txn.ID)
	assert.Equal(t, 1, testutil.CountTransactions(t, db, portfolioID))
}
