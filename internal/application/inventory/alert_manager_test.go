package inventory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Evaluación y deduplicación
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_NoDuplicaAlertaActiva(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")

	ev, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	assert.Equal(t, inventory.AlertOutcomeDeduplicated, ev.Outcome)
	require.NotNil(t, ev.Alert)

	ev2, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	assert.Equal(t, ev.Alert.ID, ev2.Alert.ID)

	_, total, err := f.alerts.List(f.ctx, tenantID, repository.AlertFilter{ProductID: "crema"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// La alerta activa existente no se actualiza con el valor nuevo.
func TestEvaluate_AlertaExistenteConservaSuValor(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "4", "5")

	_, err := f.stock.Update(f.ctx, tenantID, "crema", inventory.UpdateStockRecordInput{Quantity: decPtr("3")})
	require.NoError(t, err)

	active := f.activeAlerts(t, "crema")
	require.Len(t, active, 1)
	assert.True(t, dec("4").Equal(active[0].CurrentValue))
}

func TestEvaluate_SinCondicionNoCreaAlerta(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "20", "5")

	ev, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	assert.Equal(t, inventory.AlertOutcomeNone, ev.Outcome)
	assert.Nil(t, ev.Alert)
}

func TestEvaluate_SinRegistro(t *testing.T) {
	f := newFixture(t, "crema")

	ev, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, inventory.AlertOutcomeFailed, ev.Outcome)
}

func TestEvaluate_ResolverPermiteNuevaAlerta(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")
	first := f.activeAlerts(t, "crema")[0]

	_, err := f.alerts.Resolve(f.ctx, tenantID, first.ID, "se pidió reposición")
	require.NoError(t, err)
	assert.Empty(t, f.activeAlerts(t, "crema"))

	ev, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	assert.Equal(t, inventory.AlertOutcomeCreated, ev.Outcome)
	assert.NotEqual(t, first.ID, ev.Alert.ID)

	_, total, err := f.alerts.List(f.ctx, tenantID, repository.AlertFilter{ProductID: "crema"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestEvaluate_ReconocerTambienLiberaLaActiva(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")
	first := f.activeAlerts(t, "crema")[0]

	ack, err := f.alerts.Acknowledge(f.ctx, tenantID, first.ID, actorID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.AlertAcknowledged, ack.Status)
	assert.Equal(t, actorID, ack.AcknowledgedBy)
	require.NotNil(t, ack.AcknowledgedAt)

	ev, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	assert.Equal(t, inventory.AlertOutcomeCreated, ev.Outcome)
}

func TestEvaluate_UmbralConfigurado(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "8", "5")
	assert.Empty(t, f.activeAlerts(t, "crema"))

	_, err := f.configs.Upsert(f.ctx, tenantID, "crema", inventory.AlertConfigInput{LowStockThreshold: decPtr("10")})
	require.NoError(t, err)

	ev, err := f.alerts.Evaluate(f.ctx, tenantID, "crema")
	require.NoError(t, err)
	require.Equal(t, inventory.AlertOutcomeCreated, ev.Outcome)
	assert.Equal(t, entity.AlertLowStock, ev.Alert.AlertType)
	assert.True(t, dec("10").Equal(ev.Alert.Threshold))
}

func TestEvaluate_Sobrestock(t *testing.T) {
	f := newFixture(t, "crema")
	enabled := true
	_, err := f.configs.Upsert(f.ctx, tenantID, "crema", inventory.AlertConfigInput{
		OverstockThreshold: decPtr("50"),
		OverstockEnabled:   &enabled,
	})
	require.NoError(t, err)
	f.createRecord(t, "crema", "80", "5")

	active := f.activeAlerts(t, "crema")
	require.Len(t, active, 1)
	assert.Equal(t, entity.AlertOverstock, active[0].AlertType)
	assert.Equal(t, entity.SeverityMedium, active[0].Severity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones manuales y consulta
// ──────────────────────────────────────────────────────────────────────────────

func TestTransiciones_NoPermitidas(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")
	a := f.activeAlerts(t, "crema")[0]

	resolved, err := f.alerts.Resolve(f.ctx, tenantID, a.ID, "")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = f.alerts.Acknowledge(f.ctx, tenantID, a.ID, actorID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.alerts.Resolve(f.ctx, tenantID, a.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Reconocer y resolver en paralelo: exactamente una resolución gana y el estado final es resolved.
func TestTransiciones_ConcurrentesNoReabrenUnaResuelta(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")
	a := f.activeAlerts(t, "crema")[0]

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.alerts.Acknowledge(f.ctx, tenantID, a.ID, actorID, "")
			} else {
				_, err = f.alerts.Resolve(f.ctx, tenantID, a.ID, "")
				if err == nil {
					mu.Lock()
					resolved++
					mu.Unlock()
				}
			}
			if err != nil && !errors.Is(err, domain.ErrConflict) {
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, resolved)
	items, _, err := f.alerts.List(f.ctx, tenantID, repository.AlertFilter{ProductID: "crema"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entity.AlertResolved, items[0].Status)
	assert.NotNil(t, items[0].ResolvedAt)
}

func TestTransiciones_AlertaDeOtroTenant(t *testing.T) {
	f := newFixture(t, "crema")
	f.createRecord(t, "crema", "2", "5")
	a := f.activeAlerts(t, "crema")[0]

	_, err := f.alerts.Resolve(f.ctx, "otro-tenant", a.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltrosInvalidos(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.alerts.List(f.ctx, tenantID, repository.AlertFilter{Status: "cerrada"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = f.alerts.List(f.ctx, tenantID, repository.AlertFilter{Severity: "baja"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = f.alerts.List(f.ctx, tenantID, repository.AlertFilter{AlertType: "robo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
