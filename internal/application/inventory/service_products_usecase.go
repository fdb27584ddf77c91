package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ServiceProductInput línea de la lista de materiales de un servicio.
type ServiceProductInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Optional  bool
	Metadata  map[string]any
}

// ServiceProductsUseCase mantiene la lista de materiales de cada servicio.
type ServiceProductsUseCase struct {
	services    repository.ServiceProductRepository
	productRepo repository.ProductRepository
}

// NewServiceProductsUseCase construye el caso de uso.
func NewServiceProductsUseCase(services repository.ServiceProductRepository, productRepo repository.ProductRepository) *ServiceProductsUseCase {
	return &ServiceProductsUseCase{services: services, productRepo: productRepo}
}

// Replace reemplaza la lista de materiales completa del servicio. Una lista vacía la borra.
func (uc *ServiceProductsUseCase) Replace(ctx context.Context, tenantID, serviceID string, lines []ServiceProductInput) ([]*entity.ServiceProduct, error) {
	if tenantID == "" || serviceID == "" {
		return nil, domain.Invalid("tenant y servicio son requeridos")
	}
	seen := make(map[string]struct{}, len(lines))
	out := make([]*entity.ServiceProduct, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, domain.Invalid("producto requerido en cada línea")
		}
		if !l.Quantity.IsPositive() {
			return nil, domain.Invalid("la cantidad de %s debe ser positiva", l.ProductID)
		}
		if exceedsScale(&l.Quantity) {
			return nil, domain.Invalid("la cantidad de %s admite como máximo %d decimales", l.ProductID, entity.QuantityScale)
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil, domain.Invalid("producto repetido: %s", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}

		product, err := uc.productRepo.GetByID(ctx, tenantID, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		out = append(out, &entity.ServiceProduct{
			TenantID:  tenantID,
			ServiceID: serviceID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Optional:  l.Optional,
			Metadata:  l.Metadata,
		})
	}
	if err := uc.services.ReplaceForService(ctx, tenantID, serviceID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// List devuelve las líneas del servicio (vacío si no tiene).
func (uc *ServiceProductsUseCase) List(ctx context.Context, tenantID, serviceID string) ([]*entity.ServiceProduct, error) {
	return uc.services.ListByService(ctx, tenantID, serviceID)
}
