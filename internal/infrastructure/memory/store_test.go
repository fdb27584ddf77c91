package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func record(productID string, qty int64) *entity.StockRecord {
	return &entity.StockRecord{ID: "rec-" + productID, TenantID: "t1", ProductID: productID, Quantity: decimal.NewFromInt(qty)}
}

func TestTxRunner_ErrorDescartaLosCambios(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.StockRecords().Create(ctx, record("p1", 5)))

	boom := errors.New("fallo a mitad de la transacción")
	err := store.TxRunner().Run(ctx, func(stock repository.StockRecordRepository, txs repository.StockTransactionRepository) error {
		rec, err := stock.GetForUpdate(ctx, "t1", "p1")
		require.NoError(t, err)
		rec.Quantity = decimal.NewFromInt(1)
		require.NoError(t, stock.Update(ctx, rec))
		require.NoError(t, txs.Create(ctx, &entity.StockTransaction{
			ID: "tx-1", TenantID: "t1", ProductID: "p1", Type: entity.TransactionAdjustment,
			PreviousQuantity: decimal.NewFromInt(5), QuantityDelta: decimal.NewFromInt(-4), NewQuantity: decimal.NewFromInt(1),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := store.StockRecords().Get(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(5)))

	_, total, err := store.Transactions().List(ctx, "t1", repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTxRunner_ConfirmaSiNoHayError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.StockRecords().Create(ctx, record("p1", 5)))

	err := store.TxRunner().Run(ctx, func(stock repository.StockRecordRepository, _ repository.StockTransactionRepository) error {
		rec, err := stock.GetForUpdate(ctx, "t1", "p1")
		if err != nil {
			return err
		}
		rec.Quantity = decimal.NewFromInt(9)
		return stock.Update(ctx, rec)
	})
	require.NoError(t, err)

	rec, err := store.StockRecords().Get(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(9)))
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := memory.NewStore().TxRunner().Run(ctx, func(repository.StockRecordRepository, repository.StockTransactionRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// Los registros devueltos son copias: mutarlos no altera el almacenamiento.
func TestStockRecords_DevuelveCopias(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.StockRecords().Create(ctx, record("p1", 5)))

	rec, err := store.StockRecords().Get(ctx, "t1", "p1")
	require.NoError(t, err)
	rec.Quantity = decimal.NewFromInt(100)

	again, err := store.StockRecords().Get(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.True(t, again.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestTransactions_RechazaEntradaDesbalanceada(t *testing.T) {
	err := memory.NewStore().Transactions().Create(context.Background(), &entity.StockTransaction{
		TenantID: "t1", ProductID: "p1", Type: entity.TransactionAddition,
		PreviousQuantity: decimal.NewFromInt(1), QuantityDelta: decimal.NewFromInt(1), NewQuantity: decimal.NewFromInt(3),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAlerts_UnaActivaPorProductoYTipo(t *testing.T) {
	ctx := context.Background()
	alerts := memory.NewStore().Alerts()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := alerts.CreateIfNoActive(ctx, &entity.Alert{
				ID: fmt.Sprintf("alerta-%d", i), TenantID: "t1", ProductID: "p1",
				AlertType: entity.AlertLowStock, Status: entity.AlertActive,
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	// Otro tipo de alerta para el mismo producto sí se crea.
	_, ok, err := alerts.CreateIfNoActive(ctx, &entity.Alert{ID: "x", TenantID: "t1", ProductID: "p1", AlertType: entity.AlertOutOfStock, Status: entity.AlertActive})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAlerts_UpdateStatusConEstadoDesactualizado(t *testing.T) {
	ctx := context.Background()
	alerts := memory.NewStore().Alerts()
	a, _, err := alerts.CreateIfNoActive(ctx, &entity.Alert{ID: "a1", TenantID: "t1", ProductID: "p1", AlertType: entity.AlertLowStock, Status: entity.AlertActive})
	require.NoError(t, err)

	resolved := *a
	resolved.Status = entity.AlertResolved
	require.NoError(t, alerts.UpdateStatus(ctx, &resolved, entity.AlertActive))

	// Una transición leída antes de la resolución ya no aplica.
	stale := *a
	stale.Status = entity.AlertAcknowledged
	assert.ErrorIs(t, alerts.UpdateStatus(ctx, &stale, entity.AlertActive), domain.ErrConflict)

	got, err := alerts.GetByID(ctx, "t1", "a1")
	require.NoError(t, err)
	assert.Equal(t, entity.AlertResolved, got.Status)
}

func TestTransactions_ExistsByReferencePorServicioYVigencia(t *testing.T) {
	ctx := context.Background()
	txs := memory.NewStore().Transactions()
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, txs.Create(ctx, &entity.StockTransaction{
		ID: "tx1", TenantID: "t1", ProductID: "p1", Type: entity.TransactionDeduction,
		PreviousQuantity: decimal.NewFromInt(10), QuantityDelta: decimal.NewFromInt(-3), NewQuantity: decimal.NewFromInt(7),
		ReferenceType: entity.ReferenceServiceCompletion, ReferenceID: "visita-1",
		Metadata: map[string]any{"service_id": "limpieza"}, CreatedAt: at,
	}))

	lookup := repository.ReferenceLookup{
		ProductID: "p1", Type: entity.TransactionDeduction,
		ReferenceType: entity.ReferenceServiceCompletion, ReferenceID: "visita-1",
		ServiceID: "limpieza", Since: at.Add(-time.Hour),
	}
	ok, err := txs.ExistsByReference(ctx, "t1", lookup)
	require.NoError(t, err)
	assert.True(t, ok)

	otherService := lookup
	otherService.ServiceID = "masaje"
	ok, err = txs.ExistsByReference(ctx, "t1", otherService)
	require.NoError(t, err)
	assert.False(t, ok)

	recreated := lookup
	recreated.Since = at.Add(time.Minute)
	ok, err = txs.ExistsByReference(ctx, "t1", recreated)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProducts_CatalogoAbierto(t *testing.T) {
	ctx := context.Background()

	p, err := memory.NewStore().Products().GetByID(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = memory.NewStore(memory.WithOpenCatalog()).Products().GetByID(ctx, "t1", "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.DisplayName())
}
