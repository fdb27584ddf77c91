package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock           *inventory.StockUseCase
	Ledger          *inventory.LedgerUseCase
	Replenishment   *inventory.ReplenishmentUseCase
	AlertConfigs    *inventory.AlertConfigUseCase
	Alerts          *inventory.AlertManager
	ServiceProducts *inventory.ServiceProductsUseCase
	Deduction       *inventory.DeductionUseCase
	Auth            AuthConfig
	Logger          *logger.Logger
}

// Router registra las rutas de la API. Todo /api/inventory requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	inv := app.Group("/api/inventory", AuthMiddleware(deps.Auth))
	adminOnly := RequireRole(jwt.RoleAdmin)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	fulfillers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleService)

	stockHandler := NewStockHandler(deps.Stock, deps.Ledger, deps.Replenishment, deps.Logger)
	stock := inv.Group("/stock")
	// /low antes de /:product_id para que no se tome como ID.
	stock.Get("/low", stockHandler.ListLowStock)
	stock.Post("/", writers, stockHandler.Create)
	stock.Get("/:product_id", stockHandler.Get)
	stock.Patch("/:product_id", writers, stockHandler.Update)
	stock.Delete("/:product_id", adminOnly, stockHandler.Delete)
	stock.Post("/:product_id/movements", writers, stockHandler.RegisterMovement)

	inv.Get("/transactions", stockHandler.ListTransactions)

	alertHandler := NewAlertHandler(deps.AlertConfigs, deps.Alerts, deps.Logger)
	inv.Put("/alert-configs/:product_id", adminOnly, alertHandler.UpsertConfig)
	inv.Get("/alert-configs/:product_id", alertHandler.GetConfig)
	inv.Get("/alerts", alertHandler.List)
	inv.Post("/alerts/:id/acknowledge", writers, alertHandler.Acknowledge)
	inv.Post("/alerts/:id/resolve", writers, alertHandler.Resolve)

	serviceHandler := NewServiceHandler(deps.ServiceProducts, deps.Deduction, deps.Logger)
	services := inv.Group("/services/:service_id")
	services.Put("/products", adminOnly, serviceHandler.ReplaceProducts)
	services.Get("/products", serviceHandler.ListProducts)
	services.Post("/fulfill", fulfillers, serviceHandler.Fulfill)
}
