package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ServiceProductRepository lista de materiales de servicios (qué productos consume cada servicio).
type ServiceProductRepository interface {
	ListByService(ctx context.Context, tenantID, serviceID string) ([]*entity.ServiceProduct, error)
	// ReplaceForService reemplaza todas las líneas del servicio.
	ReplaceForService(ctx context.Context, tenantID, serviceID string, lines []*entity.ServiceProduct) error
}
