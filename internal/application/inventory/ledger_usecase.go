package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// LedgerUseCase consulta el libro de movimientos. No expone modificación ni borrado:
// las correcciones se registran como un nuevo adjustment.
type LedgerUseCase struct {
	transactions repository.StockTransactionRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(transactions repository.StockTransactionRepository) *LedgerUseCase {
	return &LedgerUseCase{transactions: transactions}
}

// List devuelve una página de movimientos del tenant, más reciente primero, y el total.
func (uc *LedgerUseCase) List(ctx context.Context, tenantID string, filter repository.TransactionFilter) ([]*entity.StockTransaction, int, error) {
	if tenantID == "" {
		return nil, 0, domain.Invalid("tenant requerido")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, domain.Invalid("tipo de movimiento inválido: %q", filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, domain.Invalid("rango de fechas inválido")
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return uc.transactions.List(ctx, tenantID, filter)
}

// normalizePage aplica límite por defecto (20) y máximo (100).
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
