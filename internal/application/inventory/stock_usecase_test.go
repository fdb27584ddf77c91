package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Alta, actualización y baja
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_AgregaEntradaInicial(t *testing.T) {
	f := newFixture(t, "crema")
	rec := f.createRecord(t, "crema", "12.5", "5")

	assert.NotEmpty(t, rec.ID)
	assert.True(t, dec("12.5").Equal(rec.Quantity))

	all := f.entries(t, repository.TransactionFilter{ProductID: "crema"})
	require.Len(t, all, 1)
	e := all[0]
	assert.Equal(t, entity.TransactionInitial, e.Type)
	assert.True(t, e.PreviousQuantity.IsZero())
	assert.True(t, dec("12.5").Equal(e.QuantityDelta))
	assert.True(t, dec("12.5").Equal(e.NewQuantity))
	assert.Equal(t, rec.ID, e.ReferenceID)
	assert.Equal(t, actorID, e.ActorID)
}

func TestCreate_Duplicado(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "1", "0")

	_, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{ProductID: "crema", Quantity: dec("3")})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Len(t, f.entries(t, repository.TransactionFilter{}), 1)
}

func TestCreate_ProductoInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{ProductID: "fantasma", Quantity: dec("3")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_CantidadNegativa(t *testing.T) {
	f := newFixture(t, "crema")

	_, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{ProductID: "crema", Quantity: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_BajoElPuntoDeReordenCreaAlerta(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")

	active := f.activeAlerts(t, "crema")
	require.Len(t, active, 1)
	assert.Equal(t, entity.AlertLowStock, active[0].AlertType)
}

func TestUpdate_CambioDeCantidadRegistraAjuste(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "10", "2")

	rec, err := f.stock.Update(f.ctx, tenantID, "crema", inventory.UpdateStockRecordInput{
		Quantity: decPtr("6"),
		Notes:    "conteo físico",
		ActorID:  actorID,
	})
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(rec.Quantity))

	adjustments := f.entries(t, repository.TransactionFilter{Type: entity.TransactionAdjustment})
	require.Len(t, adjustments, 1)
	a := adjustments[0]
	assert.True(t, dec("10").Equal(a.PreviousQuantity))
	assert.True(t, dec("-4").Equal(a.QuantityDelta))
	assert.True(t, dec("6").Equal(a.NewQuantity))
	assert.Equal(t, "conteo físico", a.Notes)
}

func TestUpdate_SinCambioDeCantidadNoRegistraEntrada(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "10", "2")

	loc := "bodega 2"
	rec, err := f.stock.Update(f.ctx, tenantID, "crema", inventory.UpdateStockRecordInput{
		ReorderLevel: decPtr("4"),
		Location:     &loc,
	})
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(rec.ReorderLevel))
	assert.Equal(t, "bodega 2", rec.Location)
	assert.Len(t, f.entries(t, repository.TransactionFilter{}), 1)
}

func TestUpdate_Inexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.stock.Update(f.ctx, tenantID, "crema", inventory.UpdateStockRecordInput{Quantity: decPtr("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_ConservaElHistorial(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "10", "2")

	require.NoError(t, f.stock.Delete(f.ctx, tenantID, "crema"))

	_, err := f.stock.Get(f.ctx, tenantID, "crema")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.entries(t, repository.TransactionFilter{ProductID: "crema"}), 1)

	assert.ErrorIs(t, f.stock.Delete(f.ctx, tenantID, "crema"), domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos manuales
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_EntradaRecalculaCostoPromedio(t *testing.T) {
	f := newFixture(t, "crema")
	_, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{
		ProductID: "crema",
		Quantity:  dec("10"),
		UnitCost:  decPtr("10"),
	})
	require.NoError(t, err)

	entry, err := f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{
		ProductID: "crema",
		Type:      entity.TransactionAddition,
		Quantity:  dec("10"),
		UnitCost:  decPtr("20"),
		ActorID:   actorID,
	})
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(entry.NewQuantity))
	assert.Equal(t, entity.ReferenceManual, entry.ReferenceType)

	rec, err := f.stock.Get(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	require.NotNil(t, rec.UnitCost)
	assert.True(t, dec("15").Equal(*rec.UnitCost), "costo promedio %s", rec.UnitCost)
}

func TestAdjust_AjusteNegativoMayorQueElStock(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "3", "0")

	_, err := f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{
		ProductID: "crema",
		Type:      entity.TransactionAdjustment,
		Quantity:  dec("-5"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	detail, ok := inventory.IsInsufficientStock(err)
	require.True(t, ok)
	assert.True(t, dec("3").Equal(detail.Current))
	assert.True(t, dec("5").Equal(detail.Required))

	assert.True(t, dec("3").Equal(f.quantity(t, "crema")))
	assert.Len(t, f.entries(t, repository.TransactionFilter{}), 1)
}

func TestAdjust_TiposNoPermitidos(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "3", "0")

	_, err := f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionDeduction, Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionAdjustment, Quantity: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionAddition, Quantity: dec("-2")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjust_SinRegistro(t *testing.T) {
	f := newFixture(t, "crema")

	_, err := f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionAddition, Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Cada entrada del libro cumple previo + delta = nuevo, y la última coincide con el registro.
func TestLibro_EntradasBalanceadas(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "5", "1")
	f.bom(t, line("crema", "1.25"))

	_, err := f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionAddition, Quantity: dec("2.5")})
	require.NoError(t, err)
	_, err = f.deduction.FulfillServiceConsumption(f.ctx, tenantID, serviceID, "visita-1", actorID)
	require.NoError(t, err)
	_, err = f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionAdjustment, Quantity: dec("-0.25")})
	require.NoError(t, err)

	all := f.entries(t, repository.TransactionFilter{ProductID: "crema"})
	require.Len(t, all, 4)
	for _, e := range all {
		assert.True(t, e.Balanced(), "%s desbalanceada", e.Type)
	}
	// Más reciente primero, y cada entrada parte de la cantidad final de la anterior.
	for i := 0; i < len(all)-1; i++ {
		assert.True(t, all[i].PreviousQuantity.Equal(all[i+1].NewQuantity))
	}
	assert.True(t, all[0].NewQuantity.Equal(f.quantity(t, "crema")))
	assert.True(t, dec("6").Equal(f.quantity(t, "crema")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta del libro
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_FiltrosYPaginacion(t *testing.T) {
	f := newFixture(t, "crema", "guantes")
	f.createRecord(t, "crema", "10", "0")
	f.createRecord(t, "guantes", "10", "0")
	for i := 0; i < 3; i++ {
		_, err := f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{ProductID: "crema", Type: entity.TransactionAddition, Quantity: dec("1")})
		require.NoError(t, err)
	}

	items, total, err := f.ledger.List(f.ctx, tenantID, repository.TransactionFilter{ProductID: "crema", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, items, 2)
	assert.True(t, dec("13").Equal(items[0].NewQuantity))

	items, _, err = f.ledger.List(f.ctx, tenantID, repository.TransactionFilter{ProductID: "crema", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entity.TransactionInitial, items[1].Type)

	_, total, err = f.ledger.List(f.ctx, tenantID, repository.TransactionFilter{Type: entity.TransactionInitial})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = f.ledger.List(f.ctx, "otro-tenant", repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLedger_FiltrosInvalidos(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.ledger.List(f.ctx, tenantID, repository.TransactionFilter{Type: "robo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.ledger.List(f.ctx, "", repository.TransactionFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Precisión decimal
// ──────────────────────────────────────────────────────────────────────────────

func TestPrecision_RechazaMasDeCuatroDecimales(t *testing.T) {
	f := newFixture(t, "crema", "gel")
	f.createRecord(t, "crema", "0.0001", "0")

	_, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{ProductID: "gel", Quantity: dec("1.00001")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{ProductID: "gel", Quantity: dec("1"), UnitCost: decPtr("0.12345")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.stock.Update(f.ctx, tenantID, "crema", inventory.UpdateStockRecordInput{ReorderLevel: decPtr("2.00005")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.stock.ApplyMovement(f.ctx, tenantID, inventory.MovementInput{
		ProductID: "crema",
		Type:      entity.TransactionDeduction,
		Quantity:  dec("0.00001"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.True(t, dec("0.0001").Equal(f.quantity(t, "crema")))
	assert.Len(t, f.entries(t, repository.TransactionFilter{ProductID: "crema"}), 1)

	_, err = f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{ProductID: "gel", Quantity: dec("1.250000")})
	assert.NoError(t, err, "los ceros a la derecha son válidos")
}

// El costo promedio se redondea a la escala del almacenamiento.
func TestAdjust_CostoPromedioRedondeado(t *testing.T) {
	f := newFixture(t, "crema")
	_, err := f.stock.Create(f.ctx, tenantID, inventory.CreateStockRecordInput{
		ProductID: "crema",
		Quantity:  dec("3"),
		UnitCost:  decPtr("1"),
	})
	require.NoError(t, err)

	_, err = f.stock.Adjust(f.ctx, tenantID, inventory.MovementInput{
		ProductID: "crema",
		Type:      entity.TransactionAddition,
		Quantity:  dec("3"),
		UnitCost:  decPtr("2.0001"),
	})
	require.NoError(t, err)

	rec, err := f.stock.Get(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	require.NotNil(t, rec.UnitCost)
	// (3*1 + 3*2.0001) / 6 = 1.50005 → 1.5001
	assert.True(t, dec("1.5001").Equal(*rec.UnitCost), "costo %s", rec.UnitCost)
}
