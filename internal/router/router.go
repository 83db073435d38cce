package router

import (
	"time"

	"github.com/Muletinha/projeto-emeece/internal/config"
	"github.com/Muletinha/projeto-emeece/internal/handler"
	"github.com/Muletinha/projeto-emeece/internal/infra"
	"github.com/Muletinha/projeto-emeece/internal/middleware"
	"github.com/Muletinha/projeto-emeece/internal/repository"
	"github.com/Muletinha/projeto-emeece/internal/service"
	"github.com/Muletinha/projeto-emeece/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb and dispatcher may be nil: the catalog is then served uncached and
// replaced images are left on disk for the orphan sweep.
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	store *infra.FileStore,
	dispatcher *worker.Dispatcher,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	r.Use(limiter.Handler())

	// ── Infrastructure ───────────────────────────────────────────────────────
	var cache *service.CatalogCache
	if rdb != nil {
		cache = service.NewCatalogCache(rdb, infra.NewCircuitBreaker(infra.BreakerConfig{}), cfg.CatalogCacheTTL)
	}
	var janitor service.ImageJanitor
	if dispatcher != nil {
		janitor = dispatcher
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	productSvc := service.NewProductService(productRepo, cartRepo, movementRepo, cache, janitor)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	checkoutSvc := service.NewCheckoutService(cartRepo, productRepo, movementRepo, cache)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc, checkoutSvc)
	uploadH := handler.NewUploadHandler(store, cfg.MaxUploadBytes())

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/", handler.Index)
	r.GET("/health", handler.Health(db, rdb, cache))
	r.Static("/uploads", store.Dir())

	api := r.Group("/api")
	{
		products := api.Group("/products")
		{
			products.GET("", productsH.List)
			products.POST("", productsH.Upsert)
			products.GET("/export.xlsx", productsH.Export)
			products.GET("/:id", productsH.Get)
			products.GET("/:id/movements", productsH.Movements)
			products.DELETE("/:id", productsH.Delete)
		}

		api.POST("/upload", uploadH.Upload)

		cart := api.Group("/cart")
		{
			cart.POST("/add", cartH.Add)
			cart.POST("/checkout", cartH.Checkout)
			cart.GET("/:cart_id", cartH.Get)
			cart.PUT("/item/:item_id", cartH.UpdateItem)
			cart.DELETE("/item/:item_id", cartH.DeleteItem)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
