// Package routes defines the API routing configuration.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"smmpanel/internal/handlers"
	"smmpanel/internal/middleware"
)

// Deps bundles the constructed handlers and middleware. Services are built
// and wired in main; routes only bind them to paths.
type Deps struct {
	Auth   *middleware.AuthMiddleware
	Orders *handlers.OrderHandler
	Wallet *handlers.WalletHandler
	Health *handlers.HealthHandler
}

// SetupRoutes binds all application routes.
func SetupRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", deps.Health.Check)

	api := app.Group("/api", deps.Auth.Handler)

	api.Get("/services", deps.Orders.ListServices)

	api.Post("/orders", deps.Orders.PlaceOrder)
	api.Get("/orders", deps.Orders.ListOrders)
	api.Get("/orders/:id", deps.Orders.GetOrder)
	api.Delete("/orders/:id", deps.Orders.CancelOrder)

	api.Get("/wallet", deps.Wallet.GetWallet)
	api.Get("/wallet/entries", deps.Wallet.ListEntries)
	api.Post("/wallet/deposits", deps.Wallet.CreateDeposit)
	api.Post("/wallet/deposits/confirm", deps.Wallet.ConfirmDeposit)
}
