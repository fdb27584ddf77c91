package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertConfig política de alertas por producto y tenant.
// LowStockThreshold nil significa "usar el ReorderLevel del registro de stock".
type AlertConfig struct {
	TenantID             string
	ProductID            string
	LowStockThreshold    *decimal.Decimal
	LowStockEnabled      bool
	OutOfStockEnabled    bool
	OverstockThreshold   *decimal.Decimal
	OverstockEnabled     bool
	ExpiryWarningDays    *int
	ExpiryWarningEnabled bool
	EmailNotifications   bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultAlertConfig configuración que aplica cuando el producto no tiene una guardada.
func DefaultAlertConfig(tenantID, productID string) *AlertConfig {
	return &AlertConfig{
		TenantID:             tenantID,
		ProductID:            productID,
		LowStockEnabled:      true,
		OutOfStockEnabled:    true,
		OverstockEnabled:     false,
		ExpiryWarningEnabled: false,
		EmailNotifications:   true,
	}
}

// AlertConfigPatch actualización parcial de la configuración; los campos nil conservan su valor.
type AlertConfigPatch struct {
	LowStockThreshold    *decimal.Decimal
	LowStockEnabled      *bool
	OutOfStockEnabled    *bool
	OverstockThreshold   *decimal.Decimal
	OverstockEnabled     *bool
	ExpiryWarningDays    *int
	ExpiryWarningEnabled *bool
	EmailNotifications   *bool
}

// Apply copia en c los campos informados en p.
func (c *AlertConfig) Apply(p AlertConfigPatch) {
	if p.LowStockThreshold != nil {
		v := *p.LowStockThreshold
		c.LowStockThreshold = &v
	}
	if p.LowStockEnabled != nil {
		c.LowStockEnabled = *p.LowStockEnabled
	}
	if p.OutOfStockEnabled != nil {
		c.OutOfStockEnabled = *p.OutOfStockEnabled
	}
	if p.OverstockThreshold != nil {
		v := *p.OverstockThreshold
		c.OverstockThreshold = &v
	}
	if p.OverstockEnabled != nil {
		c.OverstockEnabled = *p.OverstockEnabled
	}
	if p.ExpiryWarningDays != nil {
		v := *p.ExpiryWarningDays
		c.ExpiryWarningDays = &v
	}
	if p.ExpiryWarningEnabled != nil {
		c.ExpiryWarningEnabled = *p.ExpiryWarningEnabled
	}
	if p.EmailNotifications != nil {
		c.EmailNotifications = *p.EmailNotifications
	}
}
