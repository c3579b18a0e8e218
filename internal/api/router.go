// Package api assembles the HTTP surface of the marketplace: middleware,
// health and metrics endpoints and the role-scoped /api/v1 routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"food-marketplace/internal/auth"
	"food-marketplace/internal/catalog"
	"food-marketplace/internal/config"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/metrics"
	"food-marketplace/internal/models"
	"food-marketplace/internal/services/cart"
	"food-marketplace/internal/services/ledger"
	"food-marketplace/internal/services/order"
	"food-marketplace/internal/store"
	"food-marketplace/internal/web"
)

const serviceName = "marketplace-api"

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Store     store.Store
	Ownership catalog.OwnershipLookup
	Verifier  *auth.Verifier
	Logger    *logger.Logger
}

// NewRouter builds the gin engine
func NewRouter(cfg config.ServerConfig, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(web.RequestIDMiddleware())
	r.Use(web.Logging(deps.Logger))
	r.Use(metrics.PrometheusMiddleware(serviceName))
	if cfg.RequestTimeout > 0 {
		r.Use(timeout(cfg.RequestTimeout))
	}

	r.GET("/health", health(deps.Store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	carts := cart.NewHandler(cart.NewService(deps.Store, deps.Logger), deps.Logger)
	orders := order.NewHandler(order.NewService(deps.Store, deps.Ownership, deps.Logger), deps.Logger)
	payments := ledger.NewHandler(ledger.NewService(deps.Store, deps.Logger), deps.Logger)

	customer := auth.Middleware(deps.Verifier, models.RoleCustomer)
	owner := auth.Middleware(deps.Verifier, models.RoleRestaurantOwner)
	admin := auth.Middleware(deps.Verifier, models.RoleAdmin)
	anyone := auth.Middleware(deps.Verifier)

	v1 := r.Group("/api/v1")

	cartGroup := v1.Group("/cart", customer)
	carts.Register(cartGroup)
	cartGroup.POST("/checkout", orders.Checkout)

	ordersGroup := v1.Group("/orders")
	{
		ordersGroup.POST("", customer, orders.CreateOrder)
		ordersGroup.POST("/single", customer, orders.BuyNow)
		ordersGroup.GET("/mine", customer, orders.ListMine)
		ordersGroup.GET("/restaurant", owner, orders.ListRestaurant)
		ordersGroup.GET("/:id", anyone, orders.GetOrder)
		ordersGroup.GET("/:id/history", anyone, orders.GetHistory)
		ordersGroup.PATCH("/:id/status", owner, orders.UpdateStatus)
		ordersGroup.POST("/:id/cancel", customer, orders.Cancel)
		ordersGroup.POST("/:id/transaction", customer, payments.OpenForOrder)
	}

	v1.POST("/transactions/:reference/status", admin, payments.SetStatus)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", web.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", web.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func health(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"database":  "unreachable",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// timeout bounds the context handed to services
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
