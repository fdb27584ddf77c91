package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransactionFilter filtros para consultar el libro de movimientos. Campos vacíos no filtran.
type TransactionFilter struct {
	ProductID     string
	Type          entity.TransactionType
	ReferenceType string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// StockTransactionRepository puerto del libro de movimientos: solo inserción y lectura.
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error
	// List devuelve la página pedida (más reciente primero) y el total que cumple los filtros.
	List(ctx context.Context, tenantID string, filter TransactionFilter) ([]*entity.StockTransaction, int, error)
	// ExistsByReference indica si ya hay un movimiento que coincide con ref.
	ExistsByReference(ctx context.Context, tenantID string, ref ReferenceLookup) (bool, error)
}

// ReferenceLookup identifica un movimiento ya aplicado sobre el registro vigente del producto.
type ReferenceLookup struct {
	ProductID     string
	Type          entity.TransactionType
	ReferenceType string
	ReferenceID   string
	// ServiceID compara con metadata.service_id; vacío no filtra.
	ServiceID string
	// Since descarta movimientos anteriores al alta del registro (registro borrado y creado de nuevo).
	Since time.Time
}
