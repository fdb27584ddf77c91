package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// AlertHandler configuración de umbrales y gestión de alertas (protegido).
type AlertHandler struct {
	configs *inventory.AlertConfigUseCase
	alerts  *inventory.AlertManager
	log     *logger.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(configs *inventory.AlertConfigUseCase, alerts *inventory.AlertManager, log *logger.Logger) *AlertHandler {
	return &AlertHandler{configs: configs, alerts: alerts, log: log}
}

// UpsertConfig godoc
// @Summary      Configurar umbrales de alerta de un producto
// @Description  Actualización parcial; al crear se parte de los valores por defecto. Solo admin.
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path      string                  true  "ID del producto"
// @Param        body        body      dto.AlertConfigRequest  true  "umbrales y banderas"
// @Success      200         {object}  dto.AlertConfigResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      403         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/inventory/alert-configs/{product_id} [put]
func (h *AlertHandler) UpsertConfig(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.AlertConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cfg, err := h.configs.Upsert(c.UserContext(), tenantID, c.Params("product_id"), in.ToInput())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromAlertConfig(cfg))
}

// GetConfig godoc
// @Summary      Configuración de alertas vigente de un producto
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        product_id  path      string  true  "ID del producto"
// @Success      200         {object}  dto.AlertConfigResponse
// @Router       /api/inventory/alert-configs/{product_id} [get]
func (h *AlertHandler) GetConfig(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	cfg, err := h.configs.Get(c.UserContext(), tenantID, c.Params("product_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromAlertConfig(cfg))
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        product_id  query     string  false  "filtrar por producto"
// @Param        type        query     string  false  "low_stock|out_of_stock|overstock|expiry_warning"
// @Param        status      query     string  false  "active|acknowledged|resolved"
// @Param        severity    query     string  false  "critical|high|medium"
// @Param        limit       query     int     false  "máximo 100"
// @Param        offset      query     int     false  "desplazamiento"
// @Success      200         {object}  dto.AlertPage
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	filter := repository.AlertFilter{
		ProductID: c.Query("product_id"),
		AlertType: entity.AlertType(c.Query("type")),
		Status:    entity.AlertStatus(c.Query("status")),
		Severity:  entity.AlertSeverity(c.Query("severity")),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	}
	items, total, err := h.alerts.List(c.UserContext(), tenantID, filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	page := dto.AlertPage{Items: make([]dto.AlertResponse, 0, len(items))}
	for _, a := range items {
		page.Items = append(page.Items, dto.FromAlert(a))
	}
	page.Page = dto.PageResponse{Limit: pageLimit(filter.Limit), Offset: filter.Offset, Total: total}
	return c.JSON(page)
}

// Acknowledge godoc
// @Summary      Reconocer alerta activa
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true   "ID de la alerta"
// @Param        body  body      dto.AlertActionRequest  false  "notas"
// @Success      200   {object}  dto.AlertResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	in, err := actionBody(c)
	if err != nil {
		return badBody(c)
	}
	alert, err := h.alerts.Acknowledge(c.UserContext(), tenantID, c.Params("id"), GetUserID(c), in.Notes)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromAlert(alert))
}

// Resolve godoc
// @Summary      Resolver alerta
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true   "ID de la alerta"
// @Param        body  body      dto.AlertActionRequest  false  "notas"
// @Success      200   {object}  dto.AlertResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	tenantID := GetCompanyID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	in, err := actionBody(c)
	if err != nil {
		return badBody(c)
	}
	alert, err := h.alerts.Resolve(c.UserContext(), tenantID, c.Params("id"), in.Notes)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromAlert(alert))
}

// actionBody el body es opcional en acknowledge/resolve.
func actionBody(c *fiber.Ctx) (dto.AlertActionRequest, error) {
	var in dto.AlertActionRequest
	if len(c.Body()) == 0 {
		return in, nil
	}
	err := c.BodyParser(&in)
	return in, err
}
