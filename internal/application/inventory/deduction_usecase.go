package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// LineState estado final de una línea de la lista de materiales.
// pending -> {missing | insufficient | invalid | skipped | deducted}
type LineState string

const (
	LineDeducted     LineState = "deducted"
	LineMissing      LineState = "missing"
	LineInsufficient LineState = "insufficient"
	LineInvalid      LineState = "invalid"
	LineSkipped      LineState = "skipped"
)

// Códigos de error por línea.
const (
	LineErrStockRecordMissing = "STOCK_RECORD_MISSING"
	LineErrInsufficientStock  = "INSUFFICIENT_STOCK"
	LineErrInvalidQuantity    = "INVALID_QUANTITY"
)

// Motivos de omisión.
const (
	SkipAlreadyDeducted    = "already_deducted"
	SkipStockRecordMissing = "stock_record_missing"
	SkipInsufficientStock  = "insufficient_stock"
)

// LineResult línea descontada.
type LineResult struct {
	ProductID        string
	ProductName      string
	TransactionID    string
	PreviousQuantity decimal.Decimal
	NewQuantity      decimal.Decimal
	Deducted         decimal.Decimal
	AlertOutcome     AlertOutcome
	AlertID          string
}

// LineError línea no descontada por una regla de negocio.
type LineError struct {
	ProductID   string
	ProductName string
	State       LineState
	Code        string
	Message     string
	Current     *decimal.Decimal
	Required    *decimal.Decimal
}

// LineSkip línea omitida sin error: opcional sin stock, o ya descontada para la misma referencia.
type LineSkip struct {
	ProductID   string
	ProductName string
	Reason      string
}

// FulfillmentResult resultado agregado del consumo de un servicio.
// Success es falso si hubo algún error de línea; las líneas descontadas no se revierten.
type FulfillmentResult struct {
	ServiceID   string
	ReferenceID string
	Success     bool
	Results     []LineResult
	Errors      []LineError
	Skipped     []LineSkip
}

// DeductionUseCase descuenta del stock los productos que consume un servicio al completarse.
// Cada línea es una unidad de trabajo independiente: el fallo de una no bloquea ni revierte las demás.
type DeductionUseCase struct {
	services    repository.ServiceProductRepository
	stock       *StockUseCase
	productRepo repository.ProductRepository
	alerts      AlertEvaluator
	tracer      trace.Tracer
	log         *logger.Logger
}

// NewDeductionUseCase construye el orquestador de descuentos.
func NewDeductionUseCase(
	services repository.ServiceProductRepository,
	stock *StockUseCase,
	productRepo repository.ProductRepository,
	alerts AlertEvaluator,
	tracer trace.Tracer,
	log *logger.Logger,
) *DeductionUseCase {
	return &DeductionUseCase{
		services:    services,
		stock:       stock,
		productRepo: productRepo,
		alerts:      alerts,
		tracer:      tracer,
		log:         log,
	}
}

// FulfillServiceConsumption descuenta la lista de materiales de serviceID para la visita referenceID.
// Los errores de negocio por línea se devuelven en el resultado; solo los fallos de almacenamiento
// se devuelven como error. Repetir la llamada con el mismo servicio y referencia no descuenta dos veces;
// otro servicio con la misma referencia descuenta su propio consumo.
func (uc *DeductionUseCase) FulfillServiceConsumption(ctx context.Context, tenantID, serviceID, referenceID, actorID string) (*FulfillmentResult, error) {
	if tenantID == "" || serviceID == "" || referenceID == "" {
		return nil, domain.Invalid("tenant, servicio y referencia son requeridos")
	}
	ctx, span := uc.tracer.Start(ctx, "inventory.FulfillServiceConsumption",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("service.id", serviceID),
			attribute.String("reference.id", referenceID),
		))
	defer span.End()

	result := &FulfillmentResult{
		ServiceID:   serviceID,
		ReferenceID: referenceID,
		Results:     []LineResult{},
		Errors:      []LineError{},
		Skipped:     []LineSkip{},
	}

	lines, err := uc.services.ListByService(ctx, tenantID, serviceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cargar lista de materiales")
		return nil, fmt.Errorf("cargar lista de materiales: %w", err)
	}

	for _, line := range lines {
		if err := uc.processLine(ctx, tenantID, serviceID, referenceID, actorID, line, result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "descontar línea")
			return nil, err
		}
	}
	result.Success = len(result.Errors) == 0

	span.SetAttributes(
		attribute.Int("lines.deducted", len(result.Results)),
		attribute.Int("lines.failed", len(result.Errors)),
		attribute.Int("lines.skipped", len(result.Skipped)),
	)
	ev := uc.log.Info()
	if !result.Success {
		ev = uc.log.Warn()
	}
	ev.Str("tenant_id", tenantID).
		Str("service_id", serviceID).
		Str("reference_id", referenceID).
		Int("deducted", len(result.Results)).
		Int("errors", len(result.Errors)).
		Int("skipped", len(result.Skipped)).
		Msg("consumo de servicio procesado")
	return result, nil
}

// processLine descuenta una línea y agrega su resultado. Solo devuelve error ante fallos de almacenamiento.
func (uc *DeductionUseCase) processLine(
	ctx context.Context,
	tenantID, serviceID, referenceID, actorID string,
	line *entity.ServiceProduct,
	result *FulfillmentResult,
) error {
	ctx, span := uc.tracer.Start(ctx, "inventory.DeductLine",
		trace.WithAttributes(attribute.String("product.id", line.ProductID)))
	defer span.End()

	entry, err := uc.stock.ApplyMovement(ctx, tenantID, MovementInput{
		ProductID:     line.ProductID,
		Type:          entity.TransactionDeduction,
		Quantity:      line.Quantity,
		ReferenceType: entity.ReferenceServiceCompletion,
		ReferenceID:   referenceID,
		Notes:         fmt.Sprintf("consumo del servicio %s", serviceID),
		ActorID:       actorID,
		ServiceID:     serviceID,
		Idempotent:    true,
	})

	var insufficient *domain.InsufficientStockError
	switch {
	case err == nil:
		ev := EvaluateBestEffort(ctx, uc.alerts, uc.log, tenantID, line.ProductID)
		lr := LineResult{
			ProductID:        line.ProductID,
			ProductName:      uc.productName(ctx, tenantID, line.ProductID),
			TransactionID:    entry.ID,
			PreviousQuantity: entry.PreviousQuantity,
			NewQuantity:      entry.NewQuantity,
			Deducted:         entry.QuantityDelta.Neg(),
			AlertOutcome:     ev.Outcome,
		}
		if ev.Alert != nil {
			lr.AlertID = ev.Alert.ID
		}
		span.SetAttributes(attribute.String("line.state", string(LineDeducted)))
		result.Results = append(result.Results, lr)

	case errors.Is(err, domain.ErrAlreadyApplied):
		span.SetAttributes(attribute.String("line.state", string(LineSkipped)))
		result.Skipped = append(result.Skipped, LineSkip{
			ProductID:   line.ProductID,
			ProductName: uc.productName(ctx, tenantID, line.ProductID),
			Reason:      SkipAlreadyDeducted,
		})

	case errors.Is(err, domain.ErrNotFound):
		name := uc.productName(ctx, tenantID, line.ProductID)
		span.SetAttributes(attribute.String("line.state", string(LineMissing)))
		if line.Optional {
			result.Skipped = append(result.Skipped, LineSkip{ProductID: line.ProductID, ProductName: name, Reason: SkipStockRecordMissing})
			return nil
		}
		result.Errors = append(result.Errors, LineError{
			ProductID:   line.ProductID,
			ProductName: name,
			State:       LineMissing,
			Code:        LineErrStockRecordMissing,
			Message:     fmt.Sprintf("%s: %s", domain.ErrStockRecordMissing, labelOf(name, line.ProductID)),
		})

	case errors.As(err, &insufficient):
		name := uc.productName(ctx, tenantID, line.ProductID)
		span.SetAttributes(attribute.String("line.state", string(LineInsufficient)))
		if line.Optional {
			result.Skipped = append(result.Skipped, LineSkip{ProductID: line.ProductID, ProductName: name, Reason: SkipInsufficientStock})
			return nil
		}
		current, required := insufficient.Current, insufficient.Required
		result.Errors = append(result.Errors, LineError{
			ProductID:   line.ProductID,
			ProductName: name,
			State:       LineInsufficient,
			Code:        LineErrInsufficientStock,
			Message:     fmt.Sprintf("stock insuficiente para %s: actual %s, requerido %s", labelOf(name, line.ProductID), current, required),
			Current:     &current,
			Required:    &required,
		})

	case errors.Is(err, domain.ErrInvalidInput):
		span.SetAttributes(attribute.String("line.state", string(LineInvalid)))
		result.Errors = append(result.Errors, LineError{
			ProductID:   line.ProductID,
			ProductName: uc.productName(ctx, tenantID, line.ProductID),
			State:       LineInvalid,
			Code:        LineErrInvalidQuantity,
			Message:     err.Error(),
		})

	default:
		return fmt.Errorf("descontar producto %s: %w", line.ProductID, err)
	}
	return nil
}

// productName nombre del catálogo para mensajes; vacío si no se puede obtener.
func (uc *DeductionUseCase) productName(ctx context.Context, tenantID, productID string) string {
	p, err := uc.productRepo.GetByID(ctx, tenantID, productID)
	if err != nil || p == nil {
		return ""
	}
	return p.DisplayName()
}

func labelOf(name, productID string) string {
	if name != "" {
		return name
	}
	return productID
}
