package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost calcula el costo promedio ponderado tras una entrada.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Si no hay costo previo se toma el costo de la entrada.
func WeightedAverageCost(currentQty decimal.Decimal, currentCost *decimal.Decimal, inQty, inCost decimal.Decimal) decimal.Decimal {
	if currentCost == nil || currentQty.LessThanOrEqual(decimal.Zero) {
		return inCost
	}
	sum := currentQty.Add(inQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := currentQty.Mul(*currentCost).Add(inQty.Mul(inCost))
	return num.Div(sum)
}
