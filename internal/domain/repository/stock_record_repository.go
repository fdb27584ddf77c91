package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockRecordRepository define el puerto de persistencia para registros de stock (uno por tenant+producto).
// Get y GetForUpdate devuelven (nil, nil) si no existe el registro.
type StockRecordRepository interface {
	// Create devuelve domain.ErrAlreadyExists si ya hay registro para el producto.
	Create(ctx context.Context, record *entity.StockRecord) error
	Get(ctx context.Context, tenantID, productID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, tenantID, productID string) (*entity.StockRecord, error)
	// Update persiste todos los campos mutables; domain.ErrNotFound si no existe.
	Update(ctx context.Context, record *entity.StockRecord) error
	// Delete elimina el registro pero no su historial; domain.ErrNotFound si no existe.
	Delete(ctx context.Context, tenantID, productID string) error
	// ListBelowReorderLevel registros con cantidad <= punto de reorden, mayor déficit primero.
	ListBelowReorderLevel(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error)
}
