package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// AlertOutcome resultado de una evaluación de alertas.
type AlertOutcome string

const (
	AlertOutcomeCreated      AlertOutcome = "created"
	AlertOutcomeDeduplicated AlertOutcome = "deduplicated"
	AlertOutcomeNone         AlertOutcome = "none"
	AlertOutcomeFailed       AlertOutcome = "failed"
)

// Evaluation alerta producida (nueva o existente) y cómo se llegó a ella.
type Evaluation struct {
	Outcome AlertOutcome
	Alert   *entity.Alert
}

// AlertManager evalúa los registros de stock contra su configuración y crea alertas sin duplicar
// las activas. También expone la consulta y las transiciones manuales de alertas.
type AlertManager struct {
	records repository.StockRecordRepository
	configs repository.AlertConfigRepository
	alerts  repository.AlertRepository
	log     *logger.Logger
	now     func() time.Time
}

// NewAlertManager construye el gestor de alertas.
func NewAlertManager(
	records repository.StockRecordRepository,
	configs repository.AlertConfigRepository,
	alerts repository.AlertRepository,
	log *logger.Logger,
) *AlertManager {
	return &AlertManager{
		records: records,
		configs: configs,
		alerts:  alerts,
		log:     log,
		now:     time.Now,
	}
}

var _ AlertEvaluator = (*AlertManager)(nil)

// Evaluate carga el registro y su configuración (o la por defecto), aplica la tabla de decisión
// y crea la alerta si no hay una activa del mismo tipo. Una alerta activa existente se devuelve
// tal cual, sin actualizar su umbral ni su valor.
func (m *AlertManager) Evaluate(ctx context.Context, tenantID, productID string) (Evaluation, error) {
	record, err := m.records.Get(ctx, tenantID, productID)
	if err != nil {
		return Evaluation{Outcome: AlertOutcomeFailed}, err
	}
	if record == nil {
		return Evaluation{Outcome: AlertOutcomeFailed}, domain.ErrNotFound
	}
	cfg, err := m.configs.Get(ctx, tenantID, productID)
	if err != nil {
		return Evaluation{Outcome: AlertOutcomeFailed}, err
	}

	decision := domaininv.DecideAlert(record, cfg)
	if decision == nil {
		return Evaluation{Outcome: AlertOutcomeNone}, nil
	}

	now := m.now()
	candidate := &entity.Alert{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		ProductID:    productID,
		AlertType:    decision.Type,
		Severity:     decision.Severity,
		Threshold:    decision.Threshold,
		CurrentValue: record.Quantity,
		Status:       entity.AlertActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stored, created, err := m.alerts.CreateIfNoActive(ctx, candidate)
	if err != nil {
		return Evaluation{Outcome: AlertOutcomeFailed}, err
	}
	if !created {
		return Evaluation{Outcome: AlertOutcomeDeduplicated, Alert: stored}, nil
	}

	m.log.Info().
		Str("tenant_id", tenantID).
		Str("product_id", productID).
		Str("alert_type", string(stored.AlertType)).
		Str("severity", string(stored.Severity)).
		Str("current_value", stored.CurrentValue.String()).
		Msg("alerta de inventario creada")
	return Evaluation{Outcome: AlertOutcomeCreated, Alert: stored}, nil
}

// EvaluateBestEffort evalúa alertas sin afectar la operación principal: cualquier error se
// registra y se reporta como AlertOutcomeFailed. evaluator nil equivale a "sin alertas".
func EvaluateBestEffort(ctx context.Context, evaluator AlertEvaluator, log *logger.Logger, tenantID, productID string) Evaluation {
	if evaluator == nil {
		return Evaluation{Outcome: AlertOutcomeNone}
	}
	ev, err := evaluator.Evaluate(ctx, tenantID, productID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("tenant_id", tenantID).
			Str("product_id", productID).
			Msg("evaluación de alertas fallida; se continúa")
		return Evaluation{Outcome: AlertOutcomeFailed}
	}
	return ev
}

// List lista alertas del tenant con filtros y paginación.
func (m *AlertManager) List(ctx context.Context, tenantID string, filter repository.AlertFilter) ([]*entity.Alert, int, error) {
	if filter.AlertType != "" && !filter.AlertType.Valid() {
		return nil, 0, domain.Invalid("tipo de alerta inválido: %q", filter.AlertType)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.Invalid("estado de alerta inválido: %q", filter.Status)
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		return nil, 0, domain.Invalid("severidad inválida: %q", filter.Severity)
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return m.alerts.List(ctx, tenantID, filter)
}

// Acknowledge marca una alerta activa como reconocida por actorID.
func (m *AlertManager) Acknowledge(ctx context.Context, tenantID, alertID, actorID, notes string) (*entity.Alert, error) {
	return m.transition(ctx, tenantID, alertID, entity.AlertAcknowledged, func(a *entity.Alert, now time.Time) {
		a.AcknowledgedBy = actorID
		a.AcknowledgedAt = &now
	}, notes)
}

// Resolve cierra una alerta activa o reconocida. Una evaluación posterior puede crear otra.
func (m *AlertManager) Resolve(ctx context.Context, tenantID, alertID, notes string) (*entity.Alert, error) {
	return m.transition(ctx, tenantID, alertID, entity.AlertResolved, func(a *entity.Alert, now time.Time) {
		a.ResolvedAt = &now
	}, notes)
}

func (m *AlertManager) transition(
	ctx context.Context,
	tenantID, alertID string,
	next entity.AlertStatus,
	apply func(a *entity.Alert, now time.Time),
	notes string,
) (*entity.Alert, error) {
	alert, err := m.alerts.GetByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrNotFound
	}
	if !alert.Status.CanTransitionTo(next) {
		return nil, domain.ErrConflict
	}
	from := alert.Status
	now := m.now()
	alert.Status = next
	alert.UpdatedAt = now
	if notes != "" {
		alert.Notes = notes
	}
	apply(alert, now)
	if err := m.alerts.UpdateStatus(ctx, alert, from); err != nil {
		return nil, err
	}
	return alert, nil
}
