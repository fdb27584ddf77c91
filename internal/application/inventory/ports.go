package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que el cambio de cantidad y su entrada en el libro se apliquen juntos o no se apliquen.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		txRepo repository.StockTransactionRepository,
	) error) error
}

// AlertEvaluator evalúa las alertas de un producto tras un cambio de stock.
// Lo implementa *AlertManager; los casos de uso dependen de la interfaz para poder aislarlo en tests.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, tenantID, productID string) (Evaluation, error)
}
