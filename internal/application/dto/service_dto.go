package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ServiceProductLine línea de la lista de materiales.
type ServiceProductLine struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Optional  bool            `json:"optional"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// ReplaceServiceProductsRequest body para PUT /api/inventory/services/:service_id/products.
type ReplaceServiceProductsRequest struct {
	Products []ServiceProductLine `json:"products"`
}

// ToInput convierte el body al input del caso de uso.
func (r ReplaceServiceProductsRequest) ToInput() []inventory.ServiceProductInput {
	out := make([]inventory.ServiceProductInput, 0, len(r.Products))
	for _, p := range r.Products {
		out = append(out, inventory.ServiceProductInput{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Optional:  p.Optional,
			Metadata:  p.Metadata,
		})
	}
	return out
}

// ServiceProductsResponse lista de materiales del servicio.
type ServiceProductsResponse struct {
	ServiceID string               `json:"service_id"`
	Products  []ServiceProductLine `json:"products"`
}

// FromServiceProducts mapea las líneas del servicio.
func FromServiceProducts(serviceID string, lines []*entity.ServiceProduct) ServiceProductsResponse {
	out := ServiceProductsResponse{ServiceID: serviceID, Products: make([]ServiceProductLine, 0, len(lines))}
	for _, l := range lines {
		out.Products = append(out.Products, ServiceProductLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Optional:  l.Optional,
			Metadata:  l.Metadata,
		})
	}
	return out
}

// FulfillRequest body para POST /api/inventory/services/:service_id/fulfill.
// reference_id identifica la ejecución del servicio (visita, cita); repetirlo no descuenta dos veces.
type FulfillRequest struct {
	ReferenceID string `json:"reference_id"`
}

// LineResultDTO línea descontada.
type LineResultDTO struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	TransactionID    string          `json:"transaction_id"`
	PreviousQuantity decimal.Decimal `json:"previous_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	Deducted         decimal.Decimal `json:"deducted"`
	AlertOutcome     string          `json:"alert_outcome"`
	AlertID          string          `json:"alert_id,omitempty"`
}

// LineErrorDTO línea que no se pudo descontar.
type LineErrorDTO struct {
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name,omitempty"`
	Code        string           `json:"code"`
	Message     string           `json:"message"`
	Current     *decimal.Decimal `json:"current,omitempty"`
	Required    *decimal.Decimal `json:"required,omitempty"`
}

// LineSkipDTO línea omitida.
type LineSkipDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Reason      string `json:"reason"`
}

// FulfillmentResponse resultado agregado del consumo.
type FulfillmentResponse struct {
	ServiceID   string          `json:"service_id"`
	ReferenceID string          `json:"reference_id"`
	Success     bool            `json:"success"`
	Results     []LineResultDTO `json:"results"`
	Errors      []LineErrorDTO  `json:"errors"`
	Skipped     []LineSkipDTO   `json:"skipped"`
}

// FromFulfillment mapea el resultado del orquestador.
func FromFulfillment(r *inventory.FulfillmentResult) FulfillmentResponse {
	out := FulfillmentResponse{
		ServiceID:   r.ServiceID,
		ReferenceID: r.ReferenceID,
		Success:     r.Success,
		Results:     make([]LineResultDTO, 0, len(r.Results)),
		Errors:      make([]LineErrorDTO, 0, len(r.Errors)),
		Skipped:     make([]LineSkipDTO, 0, len(r.Skipped)),
	}
	for _, l := range r.Results {
		out.Results = append(out.Results, LineResultDTO{
			ProductID:        l.ProductID,
			ProductName:      l.ProductName,
			TransactionID:    l.TransactionID,
			PreviousQuantity: l.PreviousQuantity,
			NewQuantity:      l.NewQuantity,
			Deducted:         l.Deducted,
			AlertOutcome:     string(l.AlertOutcome),
			AlertID:          l.AlertID,
		})
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, LineErrorDTO{
			ProductID:   e.ProductID,
			ProductName: e.ProductName,
			Code:        e.Code,
			Message:     e.Message,
			Current:     e.Current,
			Required:    e.Required,
		})
	}
	for _, s := range r.Skipped {
		out.Skipped = append(out.Skipped, LineSkipDTO{ProductID: s.ProductID, ProductName: s.ProductName, Reason: s.Reason})
	}
	return out
}
