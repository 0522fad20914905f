package http

import (
	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/syncstore"
	"github.com/foliolib/folio/internal/database/usagestore"
)

// RouterConfig carries the router's dependencies so tests can assemble
// routers without the full entrypoint.
type RouterConfig struct {
	DB         *database.Database
	AuthSecret []byte
	Version    string
}

// NewRouter creates and configures the HTTP router with all endpoints.
// The /sync and usage RPC routes require a valid Bearer token; /health
// is open.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.DB, cfg.Version)
	router.GET("/health", healthController.Status)

	syncController := NewSyncController(syncstore.NewRepository(cfg.DB.DB))
	usageController := NewUsageController(usagestore.NewRepository(cfg.DB.DB))

	authed := router.Group("/", AuthMiddleware(cfg.AuthSecret))
	authed.GET("/sync", syncController.Pull)
	authed.POST("/sync", syncController.Push)
	authed.POST("/rpc/increment_daily_usage", usageController.Increment)
	authed.POST("/rpc/get_current_usage", usageController.Current)

	return router
}
