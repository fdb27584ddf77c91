package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AlertConfigInput actualización parcial de la configuración; los campos nil conservan su valor.
type AlertConfigInput = entity.AlertConfigPatch

// AlertConfigUseCase administra la política de alertas por producto (la escriben los administradores).
type AlertConfigUseCase struct {
	configs     repository.AlertConfigRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewAlertConfigUseCase construye el caso de uso.
func NewAlertConfigUseCase(configs repository.AlertConfigRepository, productRepo repository.ProductRepository) *AlertConfigUseCase {
	return &AlertConfigUseCase{configs: configs, productRepo: productRepo, now: time.Now}
}

// Upsert crea la configuración con los valores por defecto o actualiza solo los campos informados.
// La mezcla ocurre en el repositorio: dos actualizaciones parciales concurrentes no se pisan.
func (uc *AlertConfigUseCase) Upsert(ctx context.Context, tenantID, productID string, in AlertConfigInput) (*entity.AlertConfig, error) {
	if tenantID == "" || productID == "" {
		return nil, domain.Invalid("tenant y producto son requeridos")
	}
	if isNegative(in.LowStockThreshold) || isNegative(in.OverstockThreshold) {
		return nil, domain.Invalid("los umbrales no pueden ser negativos")
	}
	if exceedsScale(in.LowStockThreshold, in.OverstockThreshold) {
		return nil, errScale
	}
	if in.ExpiryWarningDays != nil && *in.ExpiryWarningDays < 0 {
		return nil, domain.Invalid("los días de aviso de vencimiento no pueden ser negativos")
	}
	product, err := uc.productRepo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	return uc.configs.Merge(ctx, tenantID, productID, in, uc.now())
}

// Get devuelve la configuración guardada o la por defecto si el producto no tiene una.
func (uc *AlertConfigUseCase) Get(ctx context.Context, tenantID, productID string) (*entity.AlertConfig, error) {
	cfg, err := uc.configs.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return entity.DefaultAlertConfig(tenantID, productID), nil
	}
	return cfg, nil
}
