package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ReplenishmentSuggestion producto en o bajo su punto de reorden con la cantidad sugerida de pedido.
type ReplenishmentSuggestion struct {
	Record            *entity.StockRecord
	ProductName       string
	Deficit           decimal.Decimal // ReorderLevel - Quantity (0 si está justo en el punto)
	SuggestedOrderQty decimal.Decimal
	EstimatedCost     *decimal.Decimal // SuggestedOrderQty * UnitCost, si hay costo
}

// ReplenishmentUseCase genera la lista de reposición a partir de los registros de stock.
type ReplenishmentUseCase struct {
	records     repository.StockRecordRepository
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(records repository.StockRecordRepository, productRepo repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{records: records, productRepo: productRepo}
}

// ListLowStock devuelve los registros en o bajo el punto de reorden, mayor déficit primero.
// La cantidad sugerida es ReorderQuantity; si no está definida se repone hasta 1.5 × ReorderLevel.
func (uc *ReplenishmentUseCase) ListLowStock(ctx context.Context, tenantID string, limit, offset int) ([]ReplenishmentSuggestion, error) {
	limit, offset = normalizePage(limit, offset)
	records, err := uc.records.ListBelowReorderLevel(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []ReplenishmentSuggestion{}, nil
	}

	idealFactor := decimal.NewFromFloat(1.5)
	out := make([]ReplenishmentSuggestion, 0, len(records))
	for _, r := range records {
		suggested := r.ReorderQuantity
		if !suggested.IsPositive() {
			suggested = r.ReorderLevel.Mul(idealFactor).Sub(r.Quantity)
			if suggested.IsNegative() {
				suggested = decimal.Zero
			}
		}
		deficit := r.ReorderLevel.Sub(r.Quantity)
		if deficit.IsNegative() {
			deficit = decimal.Zero
		}
		s := ReplenishmentSuggestion{
			Record:            r,
			Deficit:           deficit,
			SuggestedOrderQty: suggested,
		}
		if r.UnitCost != nil {
			cost := suggested.Mul(*r.UnitCost)
			s.EstimatedCost = &cost
		}
		// El nombre es informativo: un fallo del catálogo no invalida la lista.
		if p, err := uc.productRepo.GetByID(ctx, tenantID, r.ProductID); err == nil && p != nil {
			s.ProductName = p.DisplayName()
		}
		out = append(out, s)
	}
	return out, nil
}
