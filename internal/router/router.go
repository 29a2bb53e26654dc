package router

import (
	"time"

	"stockroom/internal/config"
	"stockroom/internal/handler"
	"stockroom/internal/middleware"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	restockRepo := repository.NewRestockRequestRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewStockLedger(productRepo, locationRepo, reservationRepo, transferRepo, movementRepo)

	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, ledger)
	locationSvc := service.NewLocationService(locationRepo)
	inventorySvc := service.NewInventoryService(productRepo, locationRepo, movementRepo, transferRepo)
	restockSvc := service.NewRestockService(
		restockRepo, reservationRepo, transferRepo, productRepo, locationRepo, ledger, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	locationsH := handler.NewLocationsHandler(locationSvc, inventorySvc)
	restockH := handler.NewRestockHandler(restockSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: shop, manager, admin — declared per-endpoint

		// Restock request lifecycle
		v1.POST("/restock-requests", middleware.RequireRole("shop", "manager", "admin"), restockH.Create)
		v1.GET("/restock-requests", middleware.RequireRole("shop", "manager", "admin"), restockH.List)
		v1.GET("/restock-requests/:id", middleware.RequireRole("shop", "manager", "admin"), restockH.GetByID)
		v1.POST("/restock-requests/:id/approve", middleware.RequireRole("manager", "admin"), restockH.Approve)
		v1.POST("/restock-requests/:id/reject", middleware.RequireRole("manager", "admin"), restockH.Reject)
		v1.POST("/restock-requests/:id/fulfill", middleware.RequireRole("manager", "admin"), restockH.Fulfill)
		v1.POST("/restock-requests/:id/cancel", middleware.RequireRole("shop", "manager", "admin"), restockH.Cancel)
		v1.DELETE("/restock-requests/:id", middleware.RequireRole("admin"), restockH.Delete)

		// Products — all roles read, manager/admin write
		v1.GET("/products", middleware.RequireRole("shop", "manager", "admin"), productsH.List)
		v1.GET("/products/:id", middleware.RequireRole("shop", "manager", "admin"), productsH.GetByID)
		v1.POST("/products/:id/stock", middleware.RequireRole("manager", "admin"), productsH.AddStock)
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
		}

		// Locations
		v1.GET("/locations", middleware.RequireRole("shop", "manager", "admin"), locationsH.List)
		v1.GET("/locations/:id", middleware.RequireRole("shop", "manager", "admin"), locationsH.GetByID)
		v1.GET("/locations/:id/stock", middleware.RequireRole("shop", "manager", "admin"), locationsH.ListStock)
		v1.PUT("/locations/:id/stock/:product_id/min", middleware.RequireRole("manager", "admin"), locationsH.SetStockMin)
		locs := v1.Group("/locations", middleware.RequireRole("admin"))
		{
			locs.POST("", locationsH.Create)
			locs.PUT("/:id", locationsH.Update)
			locs.DELETE("/:id", locationsH.Deactivate)
		}

		// Inventory read models
		inv := v1.Group("/inventory", middleware.RequireRole("manager", "admin"))
		{
			inv.GET("/alerts", inventoryH.GetAlerts)
			inv.GET("/movements", inventoryH.ListMovements)
			inv.GET("/transfers", inventoryH.ListTransfers)
			inv.GET("/valuation", inventoryH.GetValuation)
		}

		// Users — admin only
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.DELETE("/:id", authH.DeactivateUser)
		}
	}

	return r
}
