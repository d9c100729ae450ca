package handlers

import (
	"bin_monitoring/internal/hub"
	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *hub.Hub
	metrics  *metrics.Metrics
	log      *logger.Logger
	origins  map[string]struct{} // websocket origins; empty allows any
}

// NewHandler constructs a new HTTP handler with dependencies. hub and m may be nil in tests.
func NewHandler(services *service.Service, h *hub.Hub, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: h, metrics: m, log: log}
}

// SetAllowedOrigins restricts websocket upgrades to the given origins. "*" allows any.
func (h *Handler) SetAllowedOrigins(origins []string) {
	h.origins = make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			h.origins = nil
			return
		}
		h.origins[o] = struct{}{}
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.metrics.GinMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	// Live dashboard channel (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	h.registerAPIRoutes(router)
	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api", h.userIdentity)
	{
		h.registerBinRoutes(api)
		h.registerSensorRoutes(api)
		h.registerCollectionRoutes(api)
	}
}

func (h *Handler) registerBinRoutes(api *gin.RouterGroup) {
	bin := api.Group("/bin")
	{
		bin.GET("", h.listBins)
		bin.POST("", requireRole(service.RoleAdmin), h.registerBin)
		bin.GET("/:id", h.getBin)
		bin.GET("/:id/pending-request", h.pendingRequest)
		// Body example: {"message":"lid is stuck","priority":"URGENT","companyId":3}
		bin.POST("/:id/alert-company", h.alertCompany)
		bin.POST("/:id/cancel-request", h.cancelRequest)
		bin.GET("/:id/readings", h.getReadings)
		bin.GET("/:id/collections", h.collectionHistory)
	}
}

func (h *Handler) registerSensorRoutes(api *gin.RouterGroup) {
	sensor := api.Group("/sensor")
	{
		// Same payload a device sends: {"binId":1,"fillLevel":85} or a bare number
		sensor.POST("/reading", h.postReading)
	}
}

func (h *Handler) registerCollectionRoutes(api *gin.RouterGroup) {
	user := api.Group("/user")
	{
		user.POST("/collect-bin/:userId", h.collectBin)
		user.POST("/collect-bin-by-company/:userId", requireRole(service.RoleCompany, service.RoleAdmin), h.collectBinByCompany)
	}
}
