package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AlertConfigRequest body para PUT /api/inventory/alert-configs/:product_id (actualización parcial).
type AlertConfigRequest struct {
	LowStockThreshold    *decimal.Decimal `json:"low_stock_threshold,omitempty"`
	LowStockEnabled      *bool            `json:"low_stock_enabled,omitempty"`
	OutOfStockEnabled    *bool            `json:"out_of_stock_enabled,omitempty"`
	OverstockThreshold   *decimal.Decimal `json:"overstock_threshold,omitempty"`
	OverstockEnabled     *bool            `json:"overstock_enabled,omitempty"`
	ExpiryWarningDays    *int             `json:"expiry_warning_days,omitempty"`
	ExpiryWarningEnabled *bool            `json:"expiry_warning_enabled,omitempty"`
	EmailNotifications   *bool            `json:"email_notifications,omitempty"`
}

// ToInput convierte el body al input del caso de uso.
func (r AlertConfigRequest) ToInput() inventory.AlertConfigInput {
	return inventory.AlertConfigInput{
		LowStockThreshold:    r.LowStockThreshold,
		LowStockEnabled:      r.LowStockEnabled,
		OutOfStockEnabled:    r.OutOfStockEnabled,
		OverstockThreshold:   r.OverstockThreshold,
		OverstockEnabled:     r.OverstockEnabled,
		ExpiryWarningDays:    r.ExpiryWarningDays,
		ExpiryWarningEnabled: r.ExpiryWarningEnabled,
		EmailNotifications:   r.EmailNotifications,
	}
}

// AlertConfigResponse configuración vigente (guardada o por defecto).
type AlertConfigResponse struct {
	ProductID            string           `json:"product_id"`
	LowStockThreshold    *decimal.Decimal `json:"low_stock_threshold"`
	LowStockEnabled      bool             `json:"low_stock_enabled"`
	OutOfStockEnabled    bool             `json:"out_of_stock_enabled"`
	OverstockThreshold   *decimal.Decimal `json:"overstock_threshold"`
	OverstockEnabled     bool             `json:"overstock_enabled"`
	ExpiryWarningDays    *int             `json:"expiry_warning_days"`
	ExpiryWarningEnabled bool             `json:"expiry_warning_enabled"`
	EmailNotifications   bool             `json:"email_notifications"`
}

// FromAlertConfig mapea la configuración.
func FromAlertConfig(c *entity.AlertConfig) AlertConfigResponse {
	return AlertConfigResponse{
		ProductID:            c.ProductID,
		LowStockThreshold:    c.LowStockThreshold,
		LowStockEnabled:      c.LowStockEnabled,
		OutOfStockEnabled:    c.OutOfStockEnabled,
		OverstockThreshold:   c.OverstockThreshold,
		OverstockEnabled:     c.OverstockEnabled,
		ExpiryWarningDays:    c.ExpiryWarningDays,
		ExpiryWarningEnabled: c.ExpiryWarningEnabled,
		EmailNotifications:   c.EmailNotifications,
	}
}

// AlertResponse alerta de inventario.
type AlertResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	AlertType      string          `json:"alert_type"`
	Severity       string          `json:"severity"`
	Threshold      decimal.Decimal `json:"threshold"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	Status         string          `json:"status"`
	AcknowledgedBy string          `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FromAlert mapea la alerta.
func FromAlert(a *entity.Alert) AlertResponse {
	return AlertResponse{
		ID:             a.ID,
		ProductID:      a.ProductID,
		AlertType:      string(a.AlertType),
		Severity:       string(a.Severity),
		Threshold:      a.Threshold,
		CurrentValue:   a.CurrentValue,
		Status:         string(a.Status),
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: a.AcknowledgedAt,
		ResolvedAt:     a.ResolvedAt,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AlertPage página de alertas.
type AlertPage struct {
	Items []AlertResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AlertActionRequest body opcional para acknowledge/resolve.
type AlertActionRequest struct {
	Notes string `json:"notes,omitempty"`
}
