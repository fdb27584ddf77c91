package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los casos de uso los envuelven con %w; comparar con errors.Is.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrAlreadyExists      = errors.New("el recurso ya existe")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrStockRecordMissing = errors.New("el producto no tiene registro de stock")
	ErrAlreadyApplied     = errors.New("movimiento ya aplicado para la referencia")
)

// InsufficientStockError detalla una salida rechazada: el stock actual no cubre lo requerido.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ProductID string
	Current   decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: actual %s, requerido %s", e.ProductID, e.Current, e.Required)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Invalid envuelve ErrInvalidInput con un detalle legible.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
