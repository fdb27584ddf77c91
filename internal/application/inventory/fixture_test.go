package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: casos de uso reales sobre el almacenamiento en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenantID  = "tenant-1"
	serviceID = "limpieza-facial"
	actorID   = "user-1"
)

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	alerts    *inventory.AlertManager
	stock     *inventory.StockUseCase
	ledger    *inventory.LedgerUseCase
	configs   *inventory.AlertConfigUseCase
	services  *inventory.ServiceProductsUseCase
	deduction *inventory.DeductionUseCase
	restock   *inventory.ReplenishmentUseCase
}

func newFixture(t *testing.T, products ...string) *fixture {
	t.Helper()
	return newFixtureWithEvaluator(t, nil, products...)
}

// newFixtureWithEvaluator permite sustituir el evaluador de alertas (nil = AlertManager real).
func newFixtureWithEvaluator(t *testing.T, evaluator inventory.AlertEvaluator, products ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	for _, p := range products {
		store.AddProduct(&entity.Product{ID: p, TenantID: tenantID, Name: "Producto " + p})
	}
	log := logger.Nop()
	alerts := inventory.NewAlertManager(store.StockRecords(), store.AlertConfigs(), store.Alerts(), log)
	if evaluator == nil {
		evaluator = alerts
	}
	stock := inventory.NewStockUseCase(store.TxRunner(), store.StockRecords(), store.Products(), evaluator, log)
	return &fixture{
		ctx:       context.Background(),
		store:     store,
		alerts:    alerts,
		stock:     stock,
		ledger:    inventory.NewLedgerUseCase(store.Transactions()),
		configs:   inventory.NewAlertConfigUseCase(store.AlertConfigs(), store.Products()),
		services:  inventory.NewServiceProductsUseCase(store.ServiceProducts(), store.Products()),
		deduction: inventory.NewDeductionUseCase(store.ServiceProducts(), stock, store.Products(), evaluator, otel.Tracer("test"), log),
		restock:   inventory.NewReplenishmentUseCase(store.StockRecords(), store.Products()),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// createRecord crea un registro con cantidad y punto de reorden.
func (f *fixture) createRecord(t *testing.T, productID, qty, reorder string) *entity.StockRecord {
	t.Helper()
	rec, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{
		ProductID:    productID,
		Quantity:     dec(qty),
		ReorderLevel: decPtr(reorder),
		ActorID:      actorID,
	})
	require.NoError(t, err)
	return rec
}

// bom configura la lista de materiales del servicio.
func (f *fixture) bom(t *testing.T, lines ...inventory.ServiceProductInput) {
	t.Helper()
	_, err := f.services.Replace(f.ctx, tenantID, serviceID, lines)
	require.NoError(t, err)
}

func line(productID, qty string) inventory.ServiceProductInput {
	return inventory.ServiceProductInput{ProductID: productID, Quantity: dec(qty)}
}

func optionalLine(productID, qty string) inventory.ServiceProductInput {
	l := line(productID, qty)
	l.Optional = true
	return l
}

func (f *fixture) quantity(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	rec, err := f.stock.Get(f.ctx, tenantID, productID)
	require.NoError(t, err)
	return rec.Quantity
}

func (f *fixture) entries(t *testing.T, filter repository.TransactionFilter) []*entity.StockTransaction {
	t.Helper()
	filter.Limit = 100
	items, _, err := f.ledger.List(f.ctx, tenantID, filter)
	require.NoError(t, err)
	return items
}

func (f *fixture) activeAlerts(t *testing.T, productID string) []*entity.Alert {
	t.Helper()
	items, _, err := f.alerts.List(f.ctx, tenantID, repository.AlertFilter{ProductID: productID, Status: entity.AlertActive})
	require.NoError(t, err)
	return items
}
