package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.AlertRepository       = (*AlertRepo)(nil)
	_ repository.AlertConfigRepository = (*AlertConfigRepo)(nil)
)

// AlertRepo alertas de inventario sobre PostgreSQL.
// La unicidad de la alerta activa la garantiza el índice parcial uq_inventory_alerts_active.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador de alertas.
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, tenant_id, product_id, alert_type, severity, threshold, current_value, status,
	acknowledged_by, acknowledged_at, resolved_at, notes, metadata, created_at, updated_at`

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var (
		a                          entity.Alert
		alertType, severity, state string
		ackBy                      *string
	)
	err := row.Scan(
		&a.ID, &a.TenantID, &a.ProductID, &alertType, &severity, &a.Threshold, &a.CurrentValue, &state,
		&ackBy, &a.AcknowledgedAt, &a.ResolvedAt, &a.Notes, &a.Metadata, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AlertType = entity.AlertType(alertType)
	a.Severity = entity.AlertSeverity(severity)
	a.Status = entity.AlertStatus(state)
	a.AcknowledgedBy = emptyIfNull(ackBy)
	return &a, nil
}

// maxDedupAttempts reintentos si la alerta activa que causó el conflicto se resuelve antes de leerla.
const maxDedupAttempts = 3

// CreateIfNoActive inserta con ON CONFLICT DO NOTHING contra el índice parcial y, si hubo
// conflicto, devuelve la alerta activa existente.
func (r *AlertRepo) CreateIfNoActive(ctx context.Context, a *entity.Alert) (*entity.Alert, bool, error) {
	insert := `
		INSERT INTO inventory_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (tenant_id, product_id, alert_type) WHERE status = 'active' DO NOTHING
		RETURNING ` + alertColumns
	active := `SELECT ` + alertColumns + `
		FROM inventory_alerts
		WHERE tenant_id = $1 AND product_id = $2 AND alert_type = $3 AND status = 'active'`

	for attempt := 0; attempt < maxDedupAttempts; attempt++ {
		stored, err := scanAlert(r.q.QueryRow(ctx, insert,
			a.ID, a.TenantID, a.ProductID, string(a.AlertType), string(a.Severity), a.Threshold,
			a.CurrentValue, string(a.Status), nullIfEmpty(a.AcknowledgedBy), a.AcknowledgedAt,
			a.ResolvedAt, a.Notes, metadataOrEmpty(a.Metadata), a.CreatedAt, a.UpdatedAt,
		))
		if err == nil {
			return stored, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			if isForeignKeyViolation(err) {
				return nil, false, domain.ErrNotFound
			}
			return nil, false, fmt.Errorf("insert alert: %w", err)
		}

		existing, err := scanAlert(r.q.QueryRow(ctx, active, a.TenantID, a.ProductID, string(a.AlertType)))
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("get active alert: %w", err)
		}
	}
	return nil, false, fmt.Errorf("insert alert: %w", domain.ErrConflict)
}

// GetByID (nil, nil) si no existe para el tenant.
func (r *AlertRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM inventory_alerts WHERE tenant_id = $1 AND id = $2`
	a, err := scanAlert(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// UpdateStatus persiste estado, reconocimiento, resolución y notas si el estado guardado sigue
// siendo from. Sin filas afectadas, otra transición se aplicó antes: ErrConflict.
func (r *AlertRepo) UpdateStatus(ctx context.Context, a *entity.Alert, from entity.AlertStatus) error {
	query := `
		UPDATE inventory_alerts
		SET status = $3, acknowledged_by = $4, acknowledged_at = $5, resolved_at = $6, notes = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2 AND status = $9`
	tag, err := r.q.Exec(ctx, query,
		a.TenantID, a.ID, string(a.Status), nullIfEmpty(a.AcknowledgedBy), a.AcknowledgedAt,
		a.ResolvedAt, a.Notes, a.UpdatedAt, string(from),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// List alertas del tenant, más reciente primero.
func (r *AlertRepo) List(ctx context.Context, tenantID string, f repository.AlertFilter) ([]*entity.Alert, int, error) {
	w := &whereBuilder{}
	w.add("tenant_id = $%d", tenantID)
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.AlertType != "" {
		w.add("alert_type = $%d", string(f.AlertType))
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if f.Severity != "" {
		w.add("severity = $%d", string(f.Severity))
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_alerts`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}

	pageSQL, args := w.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx,
		`SELECT `+alertColumns+` FROM inventory_alerts`+w.sql()+` ORDER BY created_at DESC, id`+pageSQL,
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := []*entity.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// AlertConfigRepo configuración de alertas por producto.
type AlertConfigRepo struct {
	q Querier
}

// NewAlertConfigRepository construye el adaptador de configuración de alertas.
func NewAlertConfigRepository(q Querier) *AlertConfigRepo {
	return &AlertConfigRepo{q: q}
}

// Get (nil, nil) si el producto no tiene configuración guardada.
func (r *AlertConfigRepo) Get(ctx context.Context, tenantID, productID string) (*entity.AlertConfig, error) {
	query := `
		SELECT tenant_id, product_id, low_stock_threshold, low_stock_enabled, out_of_stock_enabled,
			overstock_threshold, overstock_enabled, expiry_warning_days, expiry_warning_enabled,
			email_notifications, created_at, updated_at
		FROM inventory_alert_configs WHERE tenant_id = $1 AND product_id = $2`
	var c entity.AlertConfig
	err := r.q.QueryRow(ctx, query, tenantID, productID).Scan(
		&c.TenantID, &c.ProductID, &c.LowStockThreshold, &c.LowStockEnabled, &c.OutOfStockEnabled,
		&c.OverstockThreshold, &c.OverstockEnabled, &c.ExpiryWarningDays, &c.ExpiryWarningEnabled,
		&c.EmailNotifications, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert config: %w", err)
	}
	return &c, nil
}

// Merge inserta la configuración por defecto con el parche aplicado o, si ya existe, actualiza
// solo los campos informados con COALESCE. Es una sola sentencia: la fila queda bloqueada
// durante el ON CONFLICT y dos parches concurrentes no se pisan.
func (r *AlertConfigRepo) Merge(ctx context.Context, tenantID, productID string, patch entity.AlertConfigPatch, now time.Time) (*entity.AlertConfig, error) {
	ins := entity.DefaultAlertConfig(tenantID, productID)
	ins.Apply(patch)

	query := `
		INSERT INTO inventory_alert_configs AS c (tenant_id, product_id, low_stock_threshold, low_stock_enabled,
			out_of_stock_enabled, overstock_threshold, overstock_enabled, expiry_warning_days,
			expiry_warning_enabled, email_notifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (tenant_id, product_id) DO UPDATE SET
			low_stock_threshold = COALESCE($12, c.low_stock_threshold),
			low_stock_enabled = COALESCE($13, c.low_stock_enabled),
			out_of_stock_enabled = COALESCE($14, c.out_of_stock_enabled),
			overstock_threshold = COALESCE($15, c.overstock_threshold),
			overstock_enabled = COALESCE($16, c.overstock_enabled),
			expiry_warning_days = COALESCE($17, c.expiry_warning_days),
			expiry_warning_enabled = COALESCE($18, c.expiry_warning_enabled),
			email_notifications = COALESCE($19, c.email_notifications),
			updated_at = $11
		RETURNING tenant_id, product_id, low_stock_threshold, low_stock_enabled, out_of_stock_enabled,
			overstock_threshold, overstock_enabled, expiry_warning_days, expiry_warning_enabled,
			email_notifications, created_at, updated_at`
	var c entity.AlertConfig
	err := r.q.QueryRow(ctx, query,
		tenantID, productID, ins.LowStockThreshold, ins.LowStockEnabled, ins.OutOfStockEnabled,
		ins.OverstockThreshold, ins.OverstockEnabled, ins.ExpiryWarningDays, ins.ExpiryWarningEnabled,
		ins.EmailNotifications, now,
		patch.LowStockThreshold, patch.LowStockEnabled, patch.OutOfStockEnabled, patch.OverstockThreshold,
		patch.OverstockEnabled, patch.ExpiryWarningDays, patch.ExpiryWarningEnabled, patch.EmailNotifications,
	).Scan(
		&c.TenantID, &c.ProductID, &c.LowStockThreshold, &c.LowStockEnabled, &c.OutOfStockEnabled,
		&c.OverstockThreshold, &c.OverstockEnabled, &c.ExpiryWarningDays, &c.ExpiryWarningEnabled,
		&c.EmailNotifications, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("merge alert config: %w", err)
	}
	return &c, nil
}
