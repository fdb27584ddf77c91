package entity

import "github.com/shopspring/decimal"

// ServiceProduct línea de la lista de materiales de un servicio: cuánto de un producto
// consume cada ejecución. Única por (TenantID, ServiceID, ProductID).
type ServiceProduct struct {
	TenantID  string
	ServiceID string
	ProductID string
	Quantity  decimal.Decimal
	// Optional: si no hay stock suficiente la línea se omite en lugar de reportarse como error.
	Optional bool
	Metadata map[string]any
}
