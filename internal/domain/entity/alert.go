package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType tipo de alerta de inventario.
type AlertType string

const (
	AlertLowStock      AlertType = "low_stock"
	AlertOutOfStock    AlertType = "out_of_stock"
	AlertOverstock     AlertType = "overstock"
	AlertExpiryWarning AlertType = "expiry_warning"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertLowStock, AlertOutOfStock, AlertOverstock, AlertExpiryWarning:
		return true
	}
	return false
}

// AlertSeverity severidad de la alerta.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
)

func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium:
		return true
	}
	return false
}

// AlertStatus estado de la alerta: active -> acknowledged -> resolved.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertActive, AlertAcknowledged, AlertResolved:
		return true
	}
	return false
}

// CanTransitionTo define las transiciones permitidas por acción del operador.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertActive:
		return next == AlertAcknowledged || next == AlertResolved
	case AlertAcknowledged:
		return next == AlertResolved
	}
	return false
}

// Alert alerta de umbral de stock. Como máximo una activa por (TenantID, ProductID, AlertType).
type Alert struct {
	ID             string
	TenantID       string
	ProductID      string
	AlertType      AlertType
	Severity       AlertSeverity
	Threshold      decimal.Decimal
	CurrentValue   decimal.Decimal
	Status         AlertStatus
	AcknowledgedBy string
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time
	Notes          string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
