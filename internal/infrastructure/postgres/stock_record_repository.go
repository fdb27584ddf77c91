package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador de registros de stock. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockRecordColumns = `id, tenant_id, product_id, quantity, reorder_level, reorder_quantity,
	unit_cost, location, metadata, created_at, updated_at`

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ID, &s.TenantID, &s.ProductID, &s.Quantity, &s.ReorderLevel, &s.ReorderQuantity,
		&s.UnitCost, &s.Location, &s.Metadata, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta el registro. ErrAlreadyExists si ya hay uno para (tenant, producto).
func (r *StockRecordRepo) Create(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO inventory_stock_records (` + stockRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.TenantID, s.ProductID, s.Quantity, s.ReorderLevel, s.ReorderQuantity,
		s.UnitCost, s.Location, metadataOrEmpty(s.Metadata), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

// Get obtiene el registro de stock; (nil, nil) si no existe.
func (r *StockRecordRepo) Get(ctx context.Context, tenantID, productID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM inventory_stock_records WHERE tenant_id = $1 AND product_id = $2`
	s, err := scanStockRecord(r.q.QueryRow(ctx, query, tenantID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el registro y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, tenantID, productID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM inventory_stock_records WHERE tenant_id = $1 AND product_id = $2
		FOR UPDATE`
	s, err := scanStockRecord(r.q.QueryRow(ctx, query, tenantID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return s, nil
}

// Update persiste cantidad, umbrales, costo, ubicación y metadata.
func (r *StockRecordRepo) Update(ctx context.Context, s *entity.StockRecord) error {
	query := `
		UPDATE inventory_stock_records
		SET quantity = $3, reorder_level = $4, reorder_quantity = $5, unit_cost = $6,
			location = $7, metadata = $8, updated_at = $9
		WHERE tenant_id = $1 AND product_id = $2`
	tag, err := r.q.Exec(ctx, query,
		s.TenantID, s.ProductID, s.Quantity, s.ReorderLevel, s.ReorderQuantity, s.UnitCost,
		s.Location, metadataOrEmpty(s.Metadata), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el registro; el libro de movimientos se conserva.
func (r *StockRecordRepo) Delete(ctx context.Context, tenantID, productID string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM inventory_stock_records WHERE tenant_id = $1 AND product_id = $2`,
		tenantID, productID)
	if err != nil {
		return fmt.Errorf("delete stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListBelowReorderLevel registros en o bajo el punto de reorden, mayor déficit primero.
func (r *StockRecordRepo) ListBelowReorderLevel(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + `
		FROM inventory_stock_records
		WHERE tenant_id = $1 AND quantity <= reorder_level
		ORDER BY (reorder_level - quantity) DESC, product_id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	out := []*entity.StockRecord{}
	for rows.Next() {
		s, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
