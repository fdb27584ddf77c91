package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// StockHandler registros de stock, movimientos manuales, reposición y libro (protegido).
type StockHandler struct {
	stock         *inventory.StockUseCase
	ledger        *inventory.LedgerUseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(
	stock *inventory.StockUseCase,
	ledger *inventory.LedgerUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	log *logger.Logger,
) *StockHandler {
	return &StockHandler{stock: stock, ledger: ledger, replenishment: replenishment, log: log}
}

// Create godoc
// @Summary      Crear registro de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateStockRecordRequest  true  "product_id, quantity, reorder_level, unit_cost"
// @Success      201   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.CreateStockRecordRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	record, err := h.stock.Create(c.UserContext(), tenantID, in.ToInput(GetUserID(c)))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStockRecord(record))
}

// Get godoc
// @Summary      Obtener registro de stock de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path      string  true  "ID del producto"
// @Success      200         {object}  dto.StockRecordResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{product_id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	record, err := h.stock.Get(c.UserContext(), tenantID, c.Params("product_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockRecord(record))
}

// Update godoc
// @Summary      Actualizar registro de stock
// @Description  Actualización parcial. Un cambio de cantidad queda en el libro como adjustment.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path      string                        true  "ID del producto"
// @Param        body        body      dto.UpdateStockRecordRequest  true  "campos a cambiar"
// @Success      200         {object}  dto.StockRecordResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{product_id} [patch]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateStockRecordRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	record, err := h.stock.Update(c.UserContext(), tenantID, c.Params("product_id"), in.ToInput(GetUserID(c)))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockRecord(record))
}

// Delete godoc
// @Summary      Eliminar registro de stock
// @Description  El historial del libro se conserva.
// @Tags         stock
// @Security     Bearer
// @Param        product_id  path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{product_id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	if err := h.stock.Delete(c.UserContext(), tenantID, c.Params("product_id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterMovement godoc
// @Summary      Registrar entrada o ajuste manual
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path      string               true  "ID del producto"
// @Param        body        body      dto.MovementRequest  true  "type (addition|adjustment), quantity, unit_cost"
// @Success      201         {object}  dto.MovementResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      409         {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/stock/{product_id}/movements [post]
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	productID := c.Params("product_id")
	entry, err := h.stock.Adjust(c.UserContext(), tenantID, in.ToInput(productID, GetUserID(c)))
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp := dto.MovementResponse{Transaction: dto.FromTransaction(entry)}
	if record, err := h.stock.Get(c.UserContext(), tenantID, productID); err == nil {
		r := dto.FromStockRecord(record)
		resp.Record = &r
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListLowStock godoc
// @Summary      Productos en o bajo el punto de reorden
// @Description  Mayor déficit primero, con la cantidad sugerida de pedido.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "máximo 100"
// @Param        offset  query     int  false  "desplazamiento"
// @Success      200     {array}   dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/stock/low [get]
func (h *StockHandler) ListLowStock(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	list, err := h.replenishment.ListLowStock(c.UserContext(), tenantID, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromReplenishment(s))
	}
	return c.JSON(out)
}

// ListTransactions godoc
// @Summary      Libro de movimientos
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        product_id      query     string  false  "filtrar por producto"
// @Param        type            query     string  false  "initial|addition|deduction|adjustment"
// @Param        reference_type  query     string  false  "ej. service_completion"
// @Param        from            query     string  false  "RFC3339"
// @Param        to              query     string  false  "RFC3339"
// @Param        limit           query     int     false  "máximo 100"
// @Param        offset          query     int     false  "desplazamiento"
// @Success      200             {object}  dto.TransactionPage
// @Failure      400             {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [get]
func (h *StockHandler) ListTransactions(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	filter := repository.TransactionFilter{
		ProductID:     c.Query("product_id"),
		Type:          entity.TransactionType(c.Query("type")),
		ReferenceType: c.Query("reference_type"),
		Limit:         c.QueryInt("limit"),
		Offset:        c.QueryInt("offset"),
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, h.log, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, h.log, err)
	}

	items, total, err := h.ledger.List(c.UserContext(), tenantID, filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	page := dto.TransactionPage{Items: make([]dto.TransactionResponse, 0, len(items))}
	for _, t := range items {
		page.Items = append(page.Items, dto.FromTransaction(t))
	}
	page.Page = dto.PageResponse{Limit: pageLimit(filter.Limit), Offset: filter.Offset, Total: total}
	return c.JSON(page)
}

// queryTime parsea un parámetro RFC3339 opcional.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.Invalid("%s debe ser RFC3339", key)
	}
	return &t, nil
}

// pageLimit refleja en la respuesta el límite efectivo que aplica el caso de uso.
func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	}
	return limit
}
