package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/bodega-erp/internal/application/inventory"
	"github.com/jhoicas/bodega-erp/internal/application/purchase"
	"github.com/jhoicas/bodega-erp/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PurchaseUC *purchase.UseCase
	StockUC    *inventory.StockUseCase
	JWTSecret  string
	AppName    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Todo /api requiere Bearer Token; las escrituras además exigen rol.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	purchasing := RequireRole(jwt.RoleAdmin, jwt.RoleCompras)
	production := RequireRole(jwt.RoleAdmin, jwt.RoleProduccion)
	issuing := RequireRole(jwt.RoleAdmin, jwt.RoleProduccion, jwt.RoleVentas)
	adminOnly := RequireRole(jwt.RoleAdmin)

	purchases := api.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Post("/", purchasing, purchaseHandler.Create)
	purchases.Put("/:id", purchasing, purchaseHandler.Update)
	purchases.Delete("/:id", purchasing, purchaseHandler.Delete)

	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.StockUC)
	inv.Get("/items", inventoryHandler.ListItems)
	inv.Post("/items", purchasing, inventoryHandler.CreateItem)
	inv.Get("/items/:id", inventoryHandler.GetItem)
	inv.Get("/items/:id/batches", inventoryHandler.ListBatches)
	inv.Get("/items/:id/transactions", inventoryHandler.ListTransactions)
	inv.Get("/items/:id/ledger-check", inventoryHandler.LedgerCheck)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Post("/consumptions", issuing, inventoryHandler.Consume)
	inv.Post("/production-outputs", production, inventoryHandler.ProductionOutput)
	inv.Post("/adjustments", adminOnly, inventoryHandler.Adjust)
	inv.Patch("/batches/:id/qc", production, inventoryHandler.SetQCStatus)
}
