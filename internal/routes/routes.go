package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/config"
	"github.com/example/grocer/internal/handlers"
	"github.com/example/grocer/internal/middleware"
	"github.com/example/grocer/internal/services"
	"github.com/example/grocer/pkg/health"
)

// Deps are the shared dependencies the route table is built from.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Logger    *zap.Logger
	Carts     *services.CartService
	Discounts *services.DiscountService
	Orders    *services.OrderService
	Health    *health.Health
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	if d.Health != nil {
		d.Health.Register(app)
	}

	authHandler := handlers.NewAuthHandler(d.DB, d.Config, d.Logger)
	profileHandler := handlers.NewProfileHandler(d.DB)
	catalogHandler := handlers.NewCatalogHandler(d.DB)
	productHandler := handlers.NewProductHandler(d.DB)
	cartHandler := handlers.NewCartHandler(d.Carts)
	offerHandler := handlers.NewOfferHandler(d.DB, d.Discounts)
	orderHandler := handlers.NewOrderHandler(d.DB, d.Orders)
	adminHandler := handlers.NewAdminHandler(d.DB)

	authenticate := middleware.Authenticate(d.Config.JWTSecret)
	adminOnly := []fiber.Handler{authenticate, middleware.RequireAdmin()}

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Get("/me", authenticate, authHandler.Me)
	auth.Get("/profile", authenticate, profileHandler.GetProfile)
	auth.Put("/profile", authenticate, profileHandler.UpdateProfile)

	// Address book
	user := api.Group("/user", authenticate)
	user.Get("/addresses", profileHandler.ListAddresses)
	user.Post("/address", profileHandler.CreateAddress)
	user.Patch("/address/:id", profileHandler.UpdateAddress)
	user.Patch("/address/:id/set-default", profileHandler.SetDefaultAddress)
	user.Delete("/address/:id", profileHandler.DeleteAddress)

	// Catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", append(adminOnly, catalogHandler.CreateCategory)...)
	categories.Put("/:id", append(adminOnly, catalogHandler.UpdateCategory)...)
	categories.Delete("/:id", append(adminOnly, catalogHandler.DeleteCategory)...)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/slug/:slug", productHandler.GetProductBySlug)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", append(adminOnly, productHandler.CreateProduct)...)
	products.Put("/:id", append(adminOnly, productHandler.UpdateProduct)...)
	products.Delete("/:id", append(adminOnly, productHandler.DeleteProduct)...)

	// Cart
	cart := api.Group("/cart", authenticate)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/", cartHandler.AddToCart)
	cart.Put("/", cartHandler.UpdateCartItem)
	cart.Delete("/item", cartHandler.RemoveCartItem)
	cart.Delete("/clear", cartHandler.ClearCart)

	// Offers
	offers := api.Group("/offers")
	offers.Get("/", offerHandler.ListOffers)
	offers.Get("/active", offerHandler.ListActiveOffers)
	offers.Get("/validate/:code", offerHandler.ValidateCode)
	offers.Post("/apply-discount", offerHandler.ApplyDiscount)
	offers.Get("/:id", offerHandler.GetOffer)
	offers.Post("/", append(adminOnly, offerHandler.CreateOffer)...)
	offers.Put("/:id", append(adminOnly, offerHandler.UpdateOffer)...)
	offers.Delete("/:id", append(adminOnly, offerHandler.DeleteOffer)...)

	// Orders
	orders := api.Group("/orders", authenticate)
	orders.Post("/", orderHandler.PlaceOrder)
	orders.Get("/mine", orderHandler.ListMyOrders)
	orders.Get("/", middleware.RequireAdmin(), orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id", middleware.RequireAdmin(), orderHandler.UpdateOrder)
	orders.Delete("/:id", middleware.RequireAdmin(), orderHandler.DeleteOrder)

	// Admin dashboard
	admin := api.Group("/admin", adminOnly...)
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/products/export", adminHandler.ExportProducts)
	admin.Get("/orders/export", adminHandler.ExportOrders)
}
