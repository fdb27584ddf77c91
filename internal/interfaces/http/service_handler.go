package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// ServiceHandler listas de materiales y consumo de servicios completados (protegido).
type ServiceHandler struct {
	products  *inventory.ServiceProductsUseCase
	deduction *inventory.DeductionUseCase
	log       *logger.Logger
}

// NewServiceHandler construye el handler.
func NewServiceHandler(products *inventory.ServiceProductsUseCase, deduction *inventory.DeductionUseCase, log *logger.Logger) *ServiceHandler {
	return &ServiceHandler{products: products, deduction: deduction, log: log}
}

// ReplaceProducts godoc
// @Summary      Reemplazar la lista de materiales de un servicio
// @Description  Solo admin. Una lista vacía borra la configuración.
// @Tags         services
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        service_id  path      string                             true  "ID del servicio"
// @Param        body        body      dto.ReplaceServiceProductsRequest  true  "líneas"
// @Success      200         {object}  dto.ServiceProductsResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/inventory/services/{service_id}/products [put]
func (h *ServiceHandler) ReplaceProducts(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.ReplaceServiceProductsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	serviceID := c.Params("service_id")
	lines, err := h.products.Replace(c.UserContext(), tenantID, serviceID, in.ToInput())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromServiceProducts(serviceID, lines))
}

// ListProducts godoc
// @Summary      Lista de materiales de un servicio
// @Tags         services
// @Security     Bearer
// @Produce      json
// @Param        service_id  path      string  true  "ID del servicio"
// @Success      200         {object}  dto.ServiceProductsResponse
// @Router       /api/inventory/services/{service_id}/products [get]
func (h *ServiceHandler) ListProducts(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	serviceID := c.Params("service_id")
	lines, err := h.products.List(c.UserContext(), tenantID, serviceID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromServiceProducts(serviceID, lines))
}

// Fulfill godoc
// @Summary      Descontar el consumo de un servicio completado
// @Description  Responde 200 aunque haya líneas con error: success=false y el detalle en errors.
// @Description  Repetir reference_id no descuenta dos veces (las líneas aparecen en skipped).
// @Tags         services
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        service_id  path      string              true  "ID del servicio"
// @Param        body        body      dto.FulfillRequest  true  "reference_id de la ejecución"
// @Success      200         {object}  dto.FulfillmentResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/inventory/services/{service_id}/fulfill [post]
func (h *ServiceHandler) Fulfill(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.FulfillRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ReferenceID == "" {
		return writeError(c, h.log, domain.Invalid("reference_id requerido"))
	}
	result, err := h.deduction.FulfillServiceConsumption(c.UserContext(), tenantID, c.Params("service_id"), in.ReferenceID, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromFulfillment(result))
}
