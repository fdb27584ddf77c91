package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.StockRecordRepository      = (*StockRecordRepo)(nil)
	_ repository.StockTransactionRepository = (*TransactionRepo)(nil)
	_ repository.AlertRepository            = (*AlertRepo)(nil)
	_ repository.AlertConfigRepository      = (*AlertConfigRepo)(nil)
	_ repository.ServiceProductRepository   = (*ServiceProductRepo)(nil)
	_ repository.ProductRepository          = (*ProductRepo)(nil)
)

// StockRecordRepo registros de stock en memoria.
type StockRecordRepo struct {
	with access
}

func (r *StockRecordRepo) Create(_ context.Context, record *entity.StockRecord) error {
	return r.with(func(st *state) error {
		k := productKey{record.TenantID, record.ProductID}
		if _, ok := st.records[k]; ok {
			return domain.ErrAlreadyExists
		}
		st.records[k] = record.Clone()
		return nil
	})
}

func (r *StockRecordRepo) Get(_ context.Context, tenantID, productID string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := r.with(func(st *state) error {
		out = st.records[productKey{tenantID, productID}].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate equivale a Get: dentro de TxRunner el mutex ya serializa el acceso.
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, tenantID, productID string) (*entity.StockRecord, error) {
	return r.Get(ctx, tenantID, productID)
}

func (r *StockRecordRepo) Update(_ context.Context, record *entity.StockRecord) error {
	return r.with(func(st *state) error {
		k := productKey{record.TenantID, record.ProductID}
		if _, ok := st.records[k]; !ok {
			return domain.ErrNotFound
		}
		if record.Quantity.IsNegative() {
			return domain.Invalid("cantidad negativa")
		}
		st.records[k] = record.Clone()
		return nil
	})
}

func (r *StockRecordRepo) Delete(_ context.Context, tenantID, productID string) error {
	return r.with(func(st *state) error {
		k := productKey{tenantID, productID}
		if _, ok := st.records[k]; !ok {
			return domain.ErrNotFound
		}
		delete(st.records, k)
		return nil
	})
}

func (r *StockRecordRepo) ListBelowReorderLevel(_ context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	err := r.with(func(st *state) error {
		for k, rec := range st.records {
			if k.tenantID == tenantID && rec.BelowReorderLevel() {
				out = append(out, rec.Clone())
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		di := out[i].ReorderLevel.Sub(out[i].Quantity)
		dj := out[j].ReorderLevel.Sub(out[j].Quantity)
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return page(out, limit, offset), err
}

// TransactionRepo libro de movimientos en memoria (solo agrega).
type TransactionRepo struct {
	with access
}

func (r *TransactionRepo) Create(_ context.Context, tx *entity.StockTransaction) error {
	if !tx.Balanced() {
		return domain.Invalid("entrada desbalanceada: %s + %s != %s", tx.PreviousQuantity, tx.QuantityDelta, tx.NewQuantity)
	}
	if tx.NewQuantity.IsNegative() || tx.PreviousQuantity.IsNegative() {
		return domain.Invalid("cantidades negativas en el libro")
	}
	cp := *tx
	return r.with(func(st *state) error {
		st.transactions = append(st.transactions, &cp)
		return nil
	})
}

func (r *TransactionRepo) List(_ context.Context, tenantID string, f repository.TransactionFilter) ([]*entity.StockTransaction, int, error) {
	var out []*entity.StockTransaction
	err := r.with(func(st *state) error {
		// Recorrido inverso: el orden de inserción desempata fechas iguales.
		for i := len(st.transactions) - 1; i >= 0; i-- {
			t := st.transactions[i]
			if t.TenantID != tenantID ||
				(f.ProductID != "" && t.ProductID != f.ProductID) ||
				(f.Type != "" && t.Type != f.Type) ||
				(f.ReferenceType != "" && t.ReferenceType != f.ReferenceType) ||
				(f.From != nil && t.CreatedAt.Before(*f.From)) ||
				(f.To != nil && t.CreatedAt.After(*f.To)) {
				continue
			}
			cp := *t
			out = append(out, &cp)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), len(out), err
}

func (r *TransactionRepo) ExistsByReference(_ context.Context, tenantID string, ref repository.ReferenceLookup) (bool, error) {
	found := false
	err := r.with(func(st *state) error {
		for _, t := range st.transactions {
			if t.TenantID != tenantID || t.ProductID != ref.ProductID || t.Type != ref.Type ||
				t.ReferenceType != ref.ReferenceType || t.ReferenceID != ref.ReferenceID ||
				t.CreatedAt.Before(ref.Since) {
				continue
			}
			if svc, _ := t.Metadata["service_id"].(string); ref.ServiceID == "" || svc == ref.ServiceID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// AlertRepo alertas en memoria. La búsqueda de activa y la inserción ocurren bajo el mismo bloqueo.
type AlertRepo struct {
	with access
}

func (r *AlertRepo) CreateIfNoActive(_ context.Context, alert *entity.Alert) (*entity.Alert, bool, error) {
	var stored *entity.Alert
	created := false
	err := r.with(func(st *state) error {
		for _, a := range st.alerts {
			if a.TenantID == alert.TenantID && a.ProductID == alert.ProductID &&
				a.AlertType == alert.AlertType && a.Status == entity.AlertActive {
				cp := *a
				stored = &cp
				return nil
			}
		}
		cp := *alert
		st.alerts = append(st.alerts, &cp)
		out := cp
		stored = &out
		created = true
		return nil
	})
	return stored, created, err
}

func (r *AlertRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Alert, error) {
	var out *entity.Alert
	err := r.with(func(st *state) error {
		for _, a := range st.alerts {
			if a.TenantID == tenantID && a.ID == id {
				cp := *a
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *AlertRepo) UpdateStatus(_ context.Context, alert *entity.Alert, from entity.AlertStatus) error {
	return r.with(func(st *state) error {
		for i, a := range st.alerts {
			if a.TenantID == alert.TenantID && a.ID == alert.ID {
				if a.Status != from {
					return domain.ErrConflict
				}
				cp := *alert
				st.alerts[i] = &cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *AlertRepo) List(_ context.Context, tenantID string, f repository.AlertFilter) ([]*entity.Alert, int, error) {
	var out []*entity.Alert
	err := r.with(func(st *state) error {
		for i := len(st.alerts) - 1; i >= 0; i-- {
			a := st.alerts[i]
			if a.TenantID != tenantID ||
				(f.ProductID != "" && a.ProductID != f.ProductID) ||
				(f.AlertType != "" && a.AlertType != f.AlertType) ||
				(f.Status != "" && a.Status != f.Status) ||
				(f.Severity != "" && a.Severity != f.Severity) {
				continue
			}
			cp := *a
			out = append(out, &cp)
		}
		return nil
	})
	return page(out, f.Limit, f.Offset), len(out), err
}

// AlertConfigRepo configuración de alertas en memoria.
type AlertConfigRepo struct {
	with access
}

func (r *AlertConfigRepo) Get(_ context.Context, tenantID, productID string) (*entity.AlertConfig, error) {
	var out *entity.AlertConfig
	err := r.with(func(st *state) error {
		if c, ok := st.configs[productKey{tenantID, productID}]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

// Merge lee, mezcla y guarda bajo el mismo bloqueo.
func (r *AlertConfigRepo) Merge(_ context.Context, tenantID, productID string, patch entity.AlertConfigPatch, now time.Time) (*entity.AlertConfig, error) {
	var out *entity.AlertConfig
	err := r.with(func(st *state) error {
		k := productKey{tenantID, productID}
		var cfg entity.AlertConfig
		if existing, ok := st.configs[k]; ok {
			cfg = *existing
		} else {
			cfg = *entity.DefaultAlertConfig(tenantID, productID)
			cfg.CreatedAt = now
		}
		cfg.Apply(patch)
		cfg.UpdatedAt = now
		st.configs[k] = &cfg
		ret := cfg
		out = &ret
		return nil
	})
	return out, err
}

// ServiceProductRepo listas de materiales en memoria.
type ServiceProductRepo struct {
	with access
}

func (r *ServiceProductRepo) ListByService(_ context.Context, tenantID, serviceID string) ([]*entity.ServiceProduct, error) {
	out := []*entity.ServiceProduct{}
	err := r.with(func(st *state) error {
		for _, l := range st.services[serviceKey{tenantID, serviceID}] {
			cp := *l
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r *ServiceProductRepo) ReplaceForService(_ context.Context, tenantID, serviceID string, lines []*entity.ServiceProduct) error {
	cp := make([]*entity.ServiceProduct, 0, len(lines))
	for _, l := range lines {
		c := *l
		cp = append(cp, &c)
	}
	return r.with(func(st *state) error {
		k := serviceKey{tenantID, serviceID}
		if len(cp) == 0 {
			delete(st.services, k)
			return nil
		}
		st.services[k] = cp
		return nil
	})
}

// ProductRepo catálogo en memoria.
type ProductRepo struct {
	with access
	open bool
}

func (r *ProductRepo) GetByID(_ context.Context, tenantID, productID string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(func(st *state) error {
		if p, ok := st.products[productKey{tenantID, productID}]; ok {
			cp := *p
			out = &cp
		}
		return nil
	})
	if out == nil && r.open && productID != "" {
		out = &entity.Product{ID: productID, TenantID: tenantID}
	}
	return out, err
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
