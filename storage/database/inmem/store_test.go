package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/billing"
)

func TestStore_InTx(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("rollback", func(t *testing.T) {
		store := NewStore()
		repo := NewBillingRepository(store)

		err := store.InTx(ctx, func(exec core.DBExecutor) error {
			_, err := repo.CreateCharges(ctx, []billing.Charge{{Titulo: "Março", ValorCents: 5000}}, exec)
			require.NoError(t, err)
			return boom
		})
		require.Equal(t, boom, err)

		charges, err := repo.QueryCharges(ctx, billing.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, charges)
	})

	t.Run("rollback keeps writes made outside the transaction", func(t *testing.T) {
		store := NewStore()
		repo := NewBillingRepository(store)
		conf := billing.FinancialConfig{ChavePix: "ibuc@example.com", BeneficiarioNome: "IBUC", BeneficiarioCidade: "Palmas"}

		started := make(chan struct{})
		done := make(chan error, 1)
		err := store.InTx(ctx, func(exec core.DBExecutor) error {
			_, err := repo.CreateCharges(ctx, []billing.Charge{{Titulo: "Março", ValorCents: 5000}}, exec)
			require.NoError(t, err)

			go func() {
				close(started)
				_, err := repo.SaveFinancialConfig(ctx, conf)
				done <- err
			}()
			<-started
			time.Sleep(20 * time.Millisecond)
			return boom
		})
		require.Equal(t, boom, err)
		require.NoError(t, <-done)

		saved, err := repo.GetFinancialConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, conf, saved)

		charges, err := repo.QueryCharges(ctx, billing.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, charges)
	})

	t.Run("panic", func(t *testing.T) {
		store := NewStore()
		repo := NewBillingRepository(store)

		assert.Panics(t, func() {
			_ = store.InTx(ctx, func(exec core.DBExecutor) error {
				_, _ = repo.SaveFinancialConfig(ctx, billing.FinancialConfig{ChavePix: "x"}, exec)
				panic("boom")
			})
		})

		_, err := repo.GetFinancialConfig(ctx)
		assert.Equal(t, billing.ErrConfigNotFound, err)
	})
}
