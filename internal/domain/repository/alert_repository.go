package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AlertFilter filtros para listar alertas. Campos vacíos no filtran.
type AlertFilter struct {
	ProductID string
	AlertType entity.AlertType
	Status    entity.AlertStatus
	Severity  entity.AlertSeverity
	Limit     int
	Offset    int
}

// AlertRepository puerto de persistencia de alertas.
type AlertRepository interface {
	// CreateIfNoActive inserta la alerta salvo que ya exista una activa del mismo
	// (tenant, producto, tipo); en ese caso devuelve la existente sin modificarla y created=false.
	CreateIfNoActive(ctx context.Context, alert *entity.Alert) (stored *entity.Alert, created bool, err error)
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, tenantID, id string) (*entity.Alert, error)
	// UpdateStatus persiste la transición solo si el estado guardado sigue siendo from;
	// si otra transición ganó devuelve domain.ErrConflict.
	UpdateStatus(ctx context.Context, alert *entity.Alert, from entity.AlertStatus) error
	List(ctx context.Context, tenantID string, filter AlertFilter) ([]*entity.Alert, int, error)
}

// AlertConfigRepository puerto de persistencia de la configuración de alertas.
type AlertConfigRepository interface {
	// Get devuelve (nil, nil) si el producto no tiene configuración guardada.
	Get(ctx context.Context, tenantID, productID string) (*entity.AlertConfig, error)
	// Merge aplica patch sobre la configuración guardada (o la por defecto si no hay) en una
	// sola operación atómica y devuelve el resultado.
	Merge(ctx context.Context, tenantID, productID string, patch entity.AlertConfigPatch, now time.Time) (*entity.AlertConfig, error)
}
