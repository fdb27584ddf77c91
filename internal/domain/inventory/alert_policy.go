package inventory

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AlertDecision resultado de evaluar la política sobre un registro de stock.
type AlertDecision struct {
	Type      entity.AlertType
	Severity  entity.AlertSeverity
	Threshold decimal.Decimal
}

// EffectiveLowStockThreshold umbral de stock bajo: el configurado o, si falta, el punto de reorden.
func EffectiveLowStockThreshold(record *entity.StockRecord, cfg *entity.AlertConfig) decimal.Decimal {
	if cfg != nil && cfg.LowStockThreshold != nil {
		return *cfg.LowStockThreshold
	}
	return record.ReorderLevel
}

// DecideAlert aplica la tabla de decisión; gana la primera regla que coincide:
//  1. sin stock (si está habilitado)           -> out_of_stock / critical
//  2. stock <= umbral bajo (si está habilitado) -> low_stock / high si es 0, medium si no
//  3. stock > umbral de sobrestock (si aplica)  -> overstock / medium
//
// Devuelve nil si no corresponde alerta. cfg nil equivale a la configuración por defecto.
func DecideAlert(record *entity.StockRecord, cfg *entity.AlertConfig) *AlertDecision {
	if cfg == nil {
		cfg = entity.DefaultAlertConfig(record.TenantID, record.ProductID)
	}
	qty := record.Quantity
	low := EffectiveLowStockThreshold(record, cfg)

	if cfg.OutOfStockEnabled && qty.IsZero() {
		return &AlertDecision{Type: entity.AlertOutOfStock, Severity: entity.SeverityCritical, Threshold: low}
	}
	if cfg.LowStockEnabled && qty.LessThanOrEqual(low) {
		severity := entity.SeverityMedium
		if qty.IsZero() {
			severity = entity.SeverityHigh
		}
		return &AlertDecision{Type: entity.AlertLowStock, Severity: severity, Threshold: low}
	}
	if cfg.OverstockEnabled && cfg.OverstockThreshold != nil && qty.GreaterThan(*cfg.OverstockThreshold) {
		return &AlertDecision{Type: entity.AlertOverstock, Severity: entity.SeverityMedium, Threshold: *cfg.OverstockThreshold}
	}
	return nil
}
