// Package memory implementa los repositorios del motor de inventario en memoria.
// Las transacciones se serializan con un mutex y se confirman reemplazando el estado por
// la copia de trabajo, de modo que un error deja el estado intacto.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

type productKey struct{ tenantID, productID string }

type serviceKey struct{ tenantID, serviceID string }

// state guarda punteros que nunca se mutan en sitio: los repositorios reemplazan la entrada
// con una copia, así clonar solo requiere copiar mapas y slices.
type state struct {
	records      map[productKey]*entity.StockRecord
	transactions []*entity.StockTransaction
	configs      map[productKey]*entity.AlertConfig
	alerts       []*entity.Alert
	services     map[serviceKey][]*entity.ServiceProduct
	products     map[productKey]*entity.Product
}

func newState() *state {
	return &state{
		records:  map[productKey]*entity.StockRecord{},
		configs:  map[productKey]*entity.AlertConfig{},
		services: map[serviceKey][]*entity.ServiceProduct{},
		products: map[productKey]*entity.Product{},
	}
}

func (s *state) clone() *state {
	c := &state{
		records:      make(map[productKey]*entity.StockRecord, len(s.records)),
		transactions: append([]*entity.StockTransaction(nil), s.transactions...),
		configs:      make(map[productKey]*entity.AlertConfig, len(s.configs)),
		alerts:       append([]*entity.Alert(nil), s.alerts...),
		services:     make(map[serviceKey][]*entity.ServiceProduct, len(s.services)),
		products:     s.products,
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	for k, v := range s.configs {
		c.configs[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	return c
}

// access ejecuta fn con el estado disponible (bloqueado o copia de trabajo de una tx).
type access func(fn func(st *state) error) error

// Store raíz del almacenamiento en memoria.
type Store struct {
	mu          sync.Mutex
	st          *state
	openCatalog bool
}

// Option configura el Store.
type Option func(*Store)

// WithOpenCatalog hace que cualquier producto consultado exista (modo desarrollo sin catálogo).
func WithOpenCatalog() Option {
	return func(s *Store) { s.openCatalog = true }
}

// NewStore crea un almacenamiento vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{st: newState()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// AddProduct registra un producto en el catálogo en memoria.
func (s *Store) AddProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.st.products[productKey{p.TenantID, p.ID}] = &cp
}

// StockRecords repositorio de registros fuera de transacción.
func (s *Store) StockRecords() *StockRecordRepo { return &StockRecordRepo{with: s.locked} }

// Transactions repositorio del libro fuera de transacción.
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{with: s.locked} }

// Alerts repositorio de alertas.
func (s *Store) Alerts() *AlertRepo { return &AlertRepo{with: s.locked} }

// AlertConfigs repositorio de configuración de alertas.
func (s *Store) AlertConfigs() *AlertConfigRepo { return &AlertConfigRepo{with: s.locked} }

// ServiceProducts repositorio de listas de materiales.
func (s *Store) ServiceProducts() *ServiceProductRepo { return &ServiceProductRepo{with: s.locked} }

// Products catálogo de solo lectura.
func (s *Store) Products() *ProductRepo { return &ProductRepo{with: s.locked, open: s.openCatalog} }

// TxRunner devuelve el ejecutor de transacciones sobre este Store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{store: s} }

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks sobre una copia del estado y la confirma si no hay error.
type TxRunner struct {
	store *Store
}

// Run serializa la transacción completa con el mutex del Store.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	txRepo repository.StockTransactionRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	work := r.store.st.clone()
	direct := func(f func(st *state) error) error { return f(work) }
	if err := fn(&StockRecordRepo{with: direct}, &TransactionRepo{with: direct}); err != nil {
		return err
	}
	r.store.st = work
	return nil
}
