package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CreateStockRecordRequest body para POST /api/inventory/stock.
type CreateStockRecordRequest struct {
	ProductID       string           `json:"product_id"`
	Quantity        decimal.Decimal  `json:"quantity"`
	ReorderLevel    *decimal.Decimal `json:"reorder_level,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Location        string           `json:"location,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// ToInput convierte el body al input del caso de uso.
func (r CreateStockRecordRequest) ToInput(actorID string) inventory.CreateStockRecordInput {
	return inventory.CreateStockRecordInput{
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		ReorderLevel:    r.ReorderLevel,
		ReorderQuantity: r.ReorderQuantity,
		UnitCost:        r.UnitCost,
		Location:        r.Location,
		Metadata:        r.Metadata,
		ActorID:         actorID,
	}
}

// UpdateStockRecordRequest body para PATCH /api/inventory/stock/:product_id. Campos ausentes no cambian.
type UpdateStockRecordRequest struct {
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	ReorderLevel    *decimal.Decimal `json:"reorder_level,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Location        *string          `json:"location,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// ToInput convierte el body al input del caso de uso.
func (r UpdateStockRecordRequest) ToInput(actorID string) inventory.UpdateStockRecordInput {
	return inventory.UpdateStockRecordInput{
		Quantity:        r.Quantity,
		ReorderLevel:    r.ReorderLevel,
		ReorderQuantity: r.ReorderQuantity,
		UnitCost:        r.UnitCost,
		Location:        r.Location,
		Metadata:        r.Metadata,
		Notes:           r.Notes,
		ActorID:         actorID,
	}
}

// MovementRequest body para POST /api/inventory/stock/:product_id/movements.
// type: addition (quantity > 0) o adjustment (quantity con signo).
type MovementRequest struct {
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
}

// ToInput convierte el body al input del caso de uso.
func (r MovementRequest) ToInput(productID, actorID string) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID:     productID,
		Type:          entity.TransactionType(r.Type),
		Quantity:      r.Quantity,
		UnitCost:      r.UnitCost,
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		Notes:         r.Notes,
		ActorID:       actorID,
		Metadata:      r.Metadata,
	}
}

// StockRecordResponse registro de stock.
type StockRecordResponse struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"product_id"`
	Quantity        decimal.Decimal  `json:"quantity"`
	ReorderLevel    decimal.Decimal  `json:"reorder_level"`
	ReorderQuantity decimal.Decimal  `json:"reorder_quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Location        string           `json:"location,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// FromStockRecord mapea la entidad a la respuesta.
func FromStockRecord(r *entity.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		ReorderLevel:    r.ReorderLevel,
		ReorderQuantity: r.ReorderQuantity,
		UnitCost:        r.UnitCost,
		Location:        r.Location,
		Metadata:        r.Metadata,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// TransactionResponse entrada del libro de movimientos.
type TransactionResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Type             string          `json:"type"`
	QuantityDelta    decimal.Decimal `json:"quantity_delta"`
	PreviousQuantity decimal.Decimal `json:"previous_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	ReferenceType    string          `json:"reference_type,omitempty"`
	ReferenceID      string          `json:"reference_id,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	ActorID          string          `json:"actor_id,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// FromTransaction mapea la entrada del libro a la respuesta.
func FromTransaction(t *entity.StockTransaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		ProductID:        t.ProductID,
		Type:             string(t.Type),
		QuantityDelta:    t.QuantityDelta,
		PreviousQuantity: t.PreviousQuantity,
		NewQuantity:      t.NewQuantity,
		ReferenceType:    t.ReferenceType,
		ReferenceID:      t.ReferenceID,
		Notes:            t.Notes,
		ActorID:          t.ActorID,
		Metadata:         t.Metadata,
		CreatedAt:        t.CreatedAt,
	}
}

// TransactionPage página del libro.
type TransactionPage struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// ReplenishmentSuggestionDTO producto en o bajo su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ProductID         string           `json:"product_id"`
	ProductName       string           `json:"product_name,omitempty"`
	CurrentStock      decimal.Decimal  `json:"current_stock"`
	ReorderLevel      decimal.Decimal  `json:"reorder_level"`
	Deficit           decimal.Decimal  `json:"deficit"`
	SuggestedOrderQty decimal.Decimal  `json:"suggested_order_qty"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost,omitempty"`
	Location          string           `json:"location,omitempty"`
}

// FromReplenishment mapea la sugerencia de reposición.
func FromReplenishment(s inventory.ReplenishmentSuggestion) ReplenishmentSuggestionDTO {
	return ReplenishmentSuggestionDTO{
		ProductID:         s.Record.ProductID,
		ProductName:       s.ProductName,
		CurrentStock:      s.Record.Quantity,
		ReorderLevel:      s.Record.ReorderLevel,
		Deficit:           s.Deficit,
		SuggestedOrderQty: s.SuggestedOrderQty,
		UnitCost:          s.Record.UnitCost,
		EstimatedCost:     s.EstimatedCost,
		Location:          s.Record.Location,
	}
}

// MovementResponse resultado de un movimiento manual: entrada del libro y registro actualizado.
type MovementResponse struct {
	Transaction TransactionResponse  `json:"transaction"`
	Record      *StockRecordResponse `json:"record,omitempty"`
}
