package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de entrada del libro de movimientos de stock.
type TransactionType string

const (
	TransactionInitial    TransactionType = "initial"    // alta del registro de stock
	TransactionAddition   TransactionType = "addition"   // entrada (compra, recepción)
	TransactionDeduction  TransactionType = "deduction"  // consumo por servicio
	TransactionAdjustment TransactionType = "adjustment" // corrección manual
)

// Valid indica si t es uno de los tipos conocidos.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionInitial, TransactionAddition, TransactionDeduction, TransactionAdjustment:
		return true
	}
	return false
}

// Tipos de referencia usados por el motor.
const (
	ReferenceServiceCompletion = "service_completion"
	ReferenceStockRecord       = "stock_record"
	ReferenceManual            = "manual"
)

// QuantityScale decimales que admiten cantidades, niveles y costos (columnas NUMERIC(18,4)).
const QuantityScale = 4

// StockTransaction es una entrada inmutable del libro: nunca se actualiza ni se borra.
// Invariante: NewQuantity = PreviousQuantity + QuantityDelta.
type StockTransaction struct {
	ID               string
	TenantID         string
	ProductID        string
	Type             TransactionType
	QuantityDelta    decimal.Decimal // negativo en salidas
	PreviousQuantity decimal.Decimal
	NewQuantity      decimal.Decimal
	ReferenceType    string
	ReferenceID      string
	Notes            string
	ActorID          string
	Metadata         map[string]any
	CreatedAt        time.Time
}

// Balanced verifica el invariante previo + delta = nuevo con igualdad decimal exacta.
func (t *StockTransaction) Balanced() bool {
	return t.PreviousQuantity.Add(t.QuantityDelta).Equal(t.NewQuantity)
}
