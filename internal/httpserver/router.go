package httpserver

import (
	"context"
	"errors"
	"time"

	"shopbasket/internal/domain"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReadyCheck pings one backing dependency.
type ReadyCheck func(ctx context.Context) error

type BasketService interface {
	Get(ctx context.Context, userName string) (*domain.Cart, error)
	Update(ctx context.Context, cart domain.Cart) (*domain.Cart, error)
	Delete(ctx context.Context, userName string) error
}

type CatalogService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type DiscountService interface {
	Get(ctx context.Context, productName string) (*domain.Coupon, error)
	Create(ctx context.Context, c domain.Coupon) (*domain.Coupon, error)
	Update(ctx context.Context, c domain.Coupon) (*domain.Coupon, error)
	Delete(ctx context.Context, productName string) (bool, error)
}

// Deps selects which route groups a server exposes. Nil services are skipped.
type Deps struct {
	BasketSvc   BasketService
	CatalogSvc  CatalogService
	DiscountSvc DiscountService
	ReadyChecks map[string]ReadyCheck
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *logrus.Logger, deps Deps) (*gin.Engine, error) {
	if deps.BasketSvc == nil && deps.CatalogSvc == nil && deps.DiscountSvc == nil {
		return nil, errors.New("httpserver: no services configured")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.ReadyChecks))

	h := &handlers{logger: logger, basket: deps.BasketSvc, catalog: deps.CatalogSvc, discount: deps.DiscountSvc}
	api := router.Group("/api/v1")
	if deps.BasketSvc != nil {
		api.GET("/basket/:userName", h.getBasket)
		api.POST("/basket", h.updateBasket)
		api.DELETE("/basket/:userName", h.deleteBasket)
	}
	if deps.CatalogSvc != nil {
		api.GET("/catalog", h.listProducts)
		api.GET("/catalog/:id", h.getProduct)
		api.POST("/catalog", h.createProduct)
		api.PUT("/catalog/:id", h.updateProduct)
		api.DELETE("/catalog/:id", h.deleteProduct)
	}
	if deps.DiscountSvc != nil {
		api.GET("/discount/:productName", h.getDiscount)
		api.POST("/discount", h.createDiscount)
		api.PUT("/discount", h.updateDiscount)
		api.DELETE("/discount/:productName", h.deleteDiscount)
	}

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
