package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductRepository consulta de solo lectura al catálogo de productos.
type ProductRepository interface {
	// GetByID devuelve (nil, nil) si el producto no existe para el tenant.
	GetByID(ctx context.Context, tenantID, productID string) (*entity.Product, error)
}
