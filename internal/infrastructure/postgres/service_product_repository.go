package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ServiceProductRepository = (*ServiceProductRepo)(nil)

// ServiceProductRepo listas de materiales de servicios sobre PostgreSQL.
type ServiceProductRepo struct {
	pool *pgxpool.Pool
}

// NewServiceProductRepository requiere el pool: el reemplazo abre su propia transacción.
func NewServiceProductRepository(pool *pgxpool.Pool) *ServiceProductRepo {
	return &ServiceProductRepo{pool: pool}
}

// ListByService líneas del servicio ordenadas por producto.
func (r *ServiceProductRepo) ListByService(ctx context.Context, tenantID, serviceID string) ([]*entity.ServiceProduct, error) {
	query := `
		SELECT tenant_id, service_id, product_id, quantity, optional, metadata
		FROM inventory_service_products
		WHERE tenant_id = $1 AND service_id = $2
		ORDER BY product_id`
	rows, err := r.pool.Query(ctx, query, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list service products: %w", err)
	}
	defer rows.Close()

	out := []*entity.ServiceProduct{}
	for rows.Next() {
		var l entity.ServiceProduct
		if err := rows.Scan(&l.TenantID, &l.ServiceID, &l.ProductID, &l.Quantity, &l.Optional, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scan service product: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// ReplaceForService borra e inserta las líneas en una sola transacción.
func (r *ServiceProductRepo) ReplaceForService(ctx context.Context, tenantID, serviceID string, lines []*entity.ServiceProduct) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM inventory_service_products WHERE tenant_id = $1 AND service_id = $2`,
		tenantID, serviceID); err != nil {
		return fmt.Errorf("delete service products: %w", err)
	}
	insert := `
		INSERT INTO inventory_service_products (tenant_id, service_id, product_id, quantity, optional, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, l := range lines {
		if _, err := tx.Exec(ctx, insert, tenantID, serviceID, l.ProductID, l.Quantity, l.Optional, metadataOrEmpty(l.Metadata)); err != nil {
			switch {
			case isForeignKeyViolation(err):
				return domain.ErrNotFound
			case isUniqueViolation(err):
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("insert service product: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
