package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// StockUseCase administra los registros de stock. Todo cambio de cantidad se aplica bajo
// bloqueo de fila (SELECT FOR UPDATE) y en la misma transacción que su entrada en el libro.
type StockUseCase struct {
	txRunner    TxRunner
	records     repository.StockRecordRepository
	productRepo repository.ProductRepository
	alerts      AlertEvaluator
	log         *logger.Logger
	now         func() time.Time
}

// NewStockUseCase construye el caso de uso. alerts puede ser nil (sin evaluación de alertas).
func NewStockUseCase(
	txRunner TxRunner,
	records repository.StockRecordRepository,
	productRepo repository.ProductRepository,
	alerts AlertEvaluator,
	log *logger.Logger,
) *StockUseCase {
	return &StockUseCase{
		txRunner:    txRunner,
		records:     records,
		productRepo: productRepo,
		alerts:      alerts,
		log:         log,
		now:         time.Now,
	}
}

// CreateStockRecordInput datos de alta de un registro de stock.
type CreateStockRecordInput struct {
	ProductID       string
	Quantity        decimal.Decimal
	ReorderLevel    *decimal.Decimal
	ReorderQuantity *decimal.Decimal
	UnitCost        *decimal.Decimal
	Location        string
	Metadata        map[string]any
	ActorID         string
}

// UpdateStockRecordInput actualización parcial: solo se aplican los campos no nil.
type UpdateStockRecordInput struct {
	Quantity        *decimal.Decimal
	ReorderLevel    *decimal.Decimal
	ReorderQuantity *decimal.Decimal
	UnitCost        *decimal.Decimal
	Location        *string
	Metadata        map[string]any
	Notes           string
	ActorID         string
}

// MovementInput cambio de cantidad sobre un registro existente.
// Quantity es la cantidad movida (positiva) para addition y deduction, y el delta con signo para adjustment.
type MovementInput struct {
	ProductID     string
	Type          entity.TransactionType
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal // solo addition: recalcula el costo promedio
	ReferenceType string
	ReferenceID   string
	Notes         string
	ActorID       string
	Metadata      map[string]any
	// ServiceID servicio que origina el movimiento; se guarda en metadata.service_id.
	ServiceID string
	// Idempotent rechaza con domain.ErrAlreadyApplied si el registro vigente ya tiene un
	// movimiento del mismo tipo para (ReferenceType, ReferenceID, ServiceID).
	Idempotent bool
}

// Create da de alta el registro y agrega la entrada initial (previo 0) en la misma transacción.
func (uc *StockUseCase) Create(ctx context.Context, tenantID string, in CreateStockRecordInput) (*entity.StockRecord, error) {
	if tenantID == "" || in.ProductID == "" {
		return nil, domain.Invalid("tenant y producto son requeridos")
	}
	if in.Quantity.IsNegative() {
		return nil, domain.Invalid("la cantidad no puede ser negativa")
	}
	if isNegative(in.ReorderLevel) || isNegative(in.ReorderQuantity) || isNegative(in.UnitCost) {
		return nil, domain.Invalid("niveles y costo no pueden ser negativos")
	}
	if exceedsScale(&in.Quantity, in.ReorderLevel, in.ReorderQuantity, in.UnitCost) {
		return nil, errScale
	}
	product, err := uc.productRepo.GetByID(ctx, tenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	record := &entity.StockRecord{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
		ReorderLevel:    valueOrZero(in.ReorderLevel),
		ReorderQuantity: valueOrZero(in.ReorderQuantity),
		UnitCost:        in.UnitCost,
		Location:        in.Location,
		Metadata:        in.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, txRepo repository.StockTransactionRepository) error {
		existing, err := stockRepo.Get(ctx, tenantID, in.ProductID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyExists
		}
		if err := stockRepo.Create(ctx, record); err != nil {
			return err
		}
		return txRepo.Create(ctx, &entity.StockTransaction{
			ID:               uuid.New().String(),
			TenantID:         tenantID,
			ProductID:        in.ProductID,
			Type:             entity.TransactionInitial,
			QuantityDelta:    in.Quantity,
			PreviousQuantity: decimal.Zero,
			NewQuantity:      in.Quantity,
			ReferenceType:    entity.ReferenceStockRecord,
			ReferenceID:      record.ID,
			Notes:            "alta de registro de stock",
			ActorID:          in.ActorID,
			CreatedAt:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("product_id", in.ProductID).
		Str("quantity", in.Quantity.String()).
		Msg("registro de stock creado")
	EvaluateBestEffort(ctx, uc.alerts, uc.log, tenantID, in.ProductID)
	return record, nil
}

// Get obtiene el registro de stock del producto.
func (uc *StockUseCase) Get(ctx context.Context, tenantID, productID string) (*entity.StockRecord, error) {
	record, err := uc.records.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// Update aplica una actualización parcial. Si cambia la cantidad se agrega una entrada
// adjustment con delta = nueva - anterior, en la misma transacción que la escritura.
func (uc *StockUseCase) Update(ctx context.Context, tenantID, productID string, in UpdateStockRecordInput) (*entity.StockRecord, error) {
	if isNegative(in.Quantity) {
		return nil, domain.Invalid("la cantidad no puede ser negativa")
	}
	if isNegative(in.ReorderLevel) || isNegative(in.ReorderQuantity) || isNegative(in.UnitCost) {
		return nil, domain.Invalid("niveles y costo no pueden ser negativos")
	}
	if exceedsScale(in.Quantity, in.ReorderLevel, in.ReorderQuantity, in.UnitCost) {
		return nil, errScale
	}

	now := uc.now()
	var updated *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, txRepo repository.StockTransactionRepository) error {
		record, err := stockRepo.GetForUpdate(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		previous := record.Quantity
		if in.ReorderLevel != nil {
			record.ReorderLevel = *in.ReorderLevel
		}
		if in.ReorderQuantity != nil {
			record.ReorderQuantity = *in.ReorderQuantity
		}
		if in.UnitCost != nil {
			cost := *in.UnitCost
			record.UnitCost = &cost
		}
		if in.Location != nil {
			record.Location = *in.Location
		}
		if in.Metadata != nil {
			record.Metadata = in.Metadata
		}
		if in.Quantity != nil {
			record.Quantity = *in.Quantity
		}
		record.UpdatedAt = now
		if err := stockRepo.Update(ctx, record); err != nil {
			return err
		}
		updated = record

		if record.Quantity.Equal(previous) {
			return nil
		}
		notes := in.Notes
		if notes == "" {
			notes = "ajuste por actualización del registro"
		}
		return txRepo.Create(ctx, &entity.StockTransaction{
			ID:               uuid.New().String(),
			TenantID:         tenantID,
			ProductID:        productID,
			Type:             entity.TransactionAdjustment,
			QuantityDelta:    record.Quantity.Sub(previous),
			PreviousQuantity: previous,
			NewQuantity:      record.Quantity,
			ReferenceType:    entity.ReferenceStockRecord,
			ReferenceID:      record.ID,
			Notes:            notes,
			ActorID:          in.ActorID,
			CreatedAt:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	EvaluateBestEffort(ctx, uc.alerts, uc.log, tenantID, productID)
	return updated, nil
}

// Delete elimina el registro. El historial del libro se conserva para auditoría.
func (uc *StockUseCase) Delete(ctx context.Context, tenantID, productID string) error {
	if err := uc.records.Delete(ctx, tenantID, productID); err != nil {
		return err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("product_id", productID).Msg("registro de stock eliminado")
	return nil
}

// Adjust punto de entrada explícito para entradas (addition) y ajustes (adjustment).
// Las salidas por consumo de servicios pasan por DeductionUseCase.
func (uc *StockUseCase) Adjust(ctx context.Context, tenantID string, in MovementInput) (*entity.StockTransaction, error) {
	if in.Type != entity.TransactionAddition && in.Type != entity.TransactionAdjustment {
		return nil, domain.Invalid("tipo de movimiento no permitido: %q", in.Type)
	}
	if in.ReferenceType == "" {
		in.ReferenceType = entity.ReferenceManual
	}
	entry, err := uc.ApplyMovement(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}
	EvaluateBestEffort(ctx, uc.alerts, uc.log, tenantID, in.ProductID)
	return entry, nil
}

// ApplyMovement aplica un cambio de cantidad en su propia transacción: bloquea la fila,
// verifica que el resultado no sea negativo, escribe la cantidad y agrega la entrada del libro.
// No evalúa alertas; eso queda a cargo de quien llama.
//
// Errores: domain.ErrNotFound si no hay registro, *domain.InsufficientStockError si el
// resultado sería negativo, domain.ErrAlreadyApplied si Idempotent y la referencia ya se aplicó.
func (uc *StockUseCase) ApplyMovement(ctx context.Context, tenantID string, in MovementInput) (*entity.StockTransaction, error) {
	delta, err := movementDelta(in)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	var entry *entity.StockTransaction
	err = uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, txRepo repository.StockTransactionRepository) error {
		record, err := stockRepo.GetForUpdate(ctx, tenantID, in.ProductID)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if in.Idempotent && in.ReferenceID != "" {
			exists, err := txRepo.ExistsByReference(ctx, tenantID, repository.ReferenceLookup{
				ProductID:     in.ProductID,
				Type:          in.Type,
				ReferenceType: in.ReferenceType,
				ReferenceID:   in.ReferenceID,
				ServiceID:     in.ServiceID,
				Since:         record.CreatedAt,
			})
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrAlreadyApplied
			}
		}

		previous := record.Quantity
		next := previous.Add(delta)
		if next.IsNegative() {
			return &domain.InsufficientStockError{ProductID: in.ProductID, Current: previous, Required: delta.Neg()}
		}
		if in.Type == entity.TransactionAddition && in.UnitCost != nil {
			cost := domaininv.WeightedAverageCost(previous, record.UnitCost, delta, *in.UnitCost).
				Round(entity.QuantityScale)
			record.UnitCost = &cost
		}
		record.Quantity = next
		record.UpdatedAt = now
		if err := stockRepo.Update(ctx, record); err != nil {
			return err
		}

		entry = &entity.StockTransaction{
			ID:               uuid.New().String(),
			TenantID:         tenantID,
			ProductID:        in.ProductID,
			Type:             in.Type,
			QuantityDelta:    delta,
			PreviousQuantity: previous,
			NewQuantity:      next,
			ReferenceType:    in.ReferenceType,
			ReferenceID:      in.ReferenceID,
			Notes:            in.Notes,
			ActorID:          in.ActorID,
			Metadata:         withServiceID(in.Metadata, in.ServiceID),
			CreatedAt:        now,
		}
		return txRepo.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// movementDelta valida el movimiento y devuelve el delta con signo a aplicar.
func movementDelta(in MovementInput) (decimal.Decimal, error) {
	if in.ProductID == "" {
		return decimal.Zero, domain.Invalid("producto requerido")
	}
	if exceedsScale(&in.Quantity, in.UnitCost) {
		return decimal.Zero, errScale
	}
	switch in.Type {
	case entity.TransactionAddition:
		if !in.Quantity.IsPositive() {
			return decimal.Zero, domain.Invalid("la cantidad de una entrada debe ser positiva")
		}
		if isNegative(in.UnitCost) {
			return decimal.Zero, domain.Invalid("el costo unitario no puede ser negativo")
		}
		return in.Quantity, nil
	case entity.TransactionDeduction:
		if !in.Quantity.IsPositive() {
			return decimal.Zero, domain.Invalid("la cantidad a descontar debe ser positiva")
		}
		return in.Quantity.Neg(), nil
	case entity.TransactionAdjustment:
		if in.Quantity.IsZero() {
			return decimal.Zero, domain.Invalid("el ajuste no puede ser cero")
		}
		return in.Quantity, nil
	}
	return decimal.Zero, domain.Invalid("tipo de movimiento inválido: %q", in.Type)
}

// IsInsufficientStock extrae el detalle de stock insuficiente si err lo contiene.
func IsInsufficientStock(err error) (*domain.InsufficientStockError, bool) {
	var e *domain.InsufficientStockError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var errScale = domain.Invalid("cantidades y costos admiten como máximo %d decimales", entity.QuantityScale)

// exceedsScale indica si algún valor tiene más decimales de los que guarda el almacenamiento.
// Los ceros a la derecha no cuentan: 2.500000 es válido.
func exceedsScale(ds ...*decimal.Decimal) bool {
	for _, d := range ds {
		if d != nil && !d.Equal(d.Truncate(entity.QuantityScale)) {
			return true
		}
	}
	return false
}

// withServiceID copia metadata agregando service_id; no modifica el mapa recibido.
func withServiceID(metadata map[string]any, serviceID string) map[string]any {
	if serviceID == "" {
		return metadata
	}
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["service_id"] = serviceID
	return out
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
