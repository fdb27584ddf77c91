package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)

// StockTransactionRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type StockTransactionRepo struct {
	q Querier
}

// NewStockTransactionRepository construye el adaptador del libro. Pasar pool o tx (Querier).
func NewStockTransactionRepository(q Querier) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

// Create agrega una entrada. La tabla también verifica el balance con un CHECK.
func (r *StockTransactionRepo) Create(ctx context.Context, t *entity.StockTransaction) error {
	if !t.Balanced() {
		return domain.Invalid("entrada desbalanceada: %s + %s != %s", t.PreviousQuantity, t.QuantityDelta, t.NewQuantity)
	}
	query := `
		INSERT INTO inventory_transactions (id, tenant_id, product_id, type, quantity_delta,
			previous_quantity, new_quantity, reference_type, reference_id, notes, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.ProductID, string(t.Type), t.QuantityDelta,
		t.PreviousQuantity, t.NewQuantity, nullIfEmpty(t.ReferenceType), nullIfEmpty(t.ReferenceID),
		t.Notes, nullIfEmpty(t.ActorID), metadataOrEmpty(t.Metadata), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	return nil
}

// List página del libro, más reciente primero, y total que cumple los filtros.
func (r *StockTransactionRepo) List(ctx context.Context, tenantID string, f repository.TransactionFilter) ([]*entity.StockTransaction, int, error) {
	w := &whereBuilder{}
	w.add("tenant_id = $%d", tenantID)
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.Type != "" {
		w.add("type = $%d", string(f.Type))
	}
	if f.ReferenceType != "" {
		w.add("reference_type = $%d", f.ReferenceType)
	}
	if f.From != nil {
		w.add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("created_at <= $%d", *f.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_transactions`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock transactions: %w", err)
	}

	pageSQL, args := w.page(f.Limit, f.Offset)
	query := `
		SELECT id, tenant_id, product_id, type, quantity_delta, previous_quantity, new_quantity,
			reference_type, reference_id, notes, actor_id, metadata, created_at
		FROM inventory_transactions` + w.sql() + `
		ORDER BY created_at DESC, seq DESC` + pageSQL
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock transactions: %w", err)
	}
	defer rows.Close()

	out := []*entity.StockTransaction{}
	for rows.Next() {
		t, err := scanStockTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func scanStockTransaction(row pgx.Row) (*entity.StockTransaction, error) {
	var (
		t                       entity.StockTransaction
		txType                  string
		refType, refID, actorID *string
	)
	err := row.Scan(
		&t.ID, &t.TenantID, &t.ProductID, &txType, &t.QuantityDelta, &t.PreviousQuantity, &t.NewQuantity,
		&refType, &refID, &t.Notes, &actorID, &t.Metadata, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = entity.TransactionType(txType)
	t.ReferenceType = emptyIfNull(refType)
	t.ReferenceID = emptyIfNull(refID)
	t.ActorID = emptyIfNull(actorID)
	return &t, nil
}

// ExistsByReference usada dentro de la tx, después de bloquear el registro de stock.
func (r *StockTransactionRepo) ExistsByReference(ctx context.Context, tenantID string, ref repository.ReferenceLookup) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM inventory_transactions
			WHERE tenant_id = $1 AND product_id = $2 AND type = $3
				AND reference_type = $4 AND reference_id = $5
				AND ($6 = '' OR metadata->>'service_id' = $6)
				AND created_at >= $7
		)`
	var exists bool
	err := r.q.QueryRow(ctx, query,
		tenantID, ref.ProductID, string(ref.Type), ref.ReferenceType, ref.ReferenceID, ref.ServiceID, ref.Since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists stock transaction by reference: %w", err)
	}
	return exists, nil
}
