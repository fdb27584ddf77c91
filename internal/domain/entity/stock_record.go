package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord representa la existencia actual de un producto para un tenant.
// Hay como máximo un registro por (TenantID, ProductID); Quantity nunca es negativa.
type StockRecord struct {
	ID              string
	TenantID        string
	ProductID       string
	Quantity        decimal.Decimal
	ReorderLevel    decimal.Decimal
	ReorderQuantity decimal.Decimal
	UnitCost        *decimal.Decimal // costo promedio ponderado; nil si nunca se informó
	Location        string
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BelowReorderLevel indica si la existencia está en o por debajo del punto de reorden.
func (r *StockRecord) BelowReorderLevel() bool {
	return r.Quantity.LessThanOrEqual(r.ReorderLevel)
}

// Clone devuelve una copia independiente (incluye metadata y costo).
func (r *StockRecord) Clone() *StockRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.UnitCost != nil {
		cost := *r.UnitCost
		c.UnitCost = &cost
	}
	c.Metadata = cloneMetadata(r.Metadata)
	return &c
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
