// Package api wires the HTTP surface: gin routes over the valuation engine.
package api

import (
	"net/http"

	"bess-valuation/internal/api/handlers"
	"bess-valuation/internal/api/middleware"
	"bess-valuation/internal/optimize"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures NewRouter.
type Options struct {
	Engine            *optimize.Engine
	BatteryDir        string
	AllowedOrigins    []string
	GridStatusBaseURL string
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(opts Options) *gin.Engine {
	engine := opts.Engine
	if engine == nil {
		engine = optimize.New(optimize.DefaultOptions())
	}
	sources := &handlers.Sources{GridStatusBaseURL: opts.GridStatusBaseURL}
	batteryHandler := handlers.NewBatteryHandler(opts.BatteryDir)
	simulationHandler := handlers.NewSimulationHandler(engine, batteryHandler, sources)
	analysisHandler := handlers.NewAnalysisHandler(engine, sources)

	router := gin.New()
	router.Use(middleware.CORS(opts.AllowedOrigins...))
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/simulate", simulationHandler.Simulate)
		v1.POST("/simulate/compare", simulationHandler.Compare)
		v1.POST("/optimize", simulationHandler.Optimize)
		v1.POST("/montecarlo", simulationHandler.MonteCarlo)

		v1.POST("/analysis/clusters", analysisHandler.Clusters)
		v1.POST("/analysis/peaks", analysisHandler.Peaks)
		v1.POST("/forecast/demand", analysisHandler.ForecastDemand)
		v1.POST("/forecast/battery-health", analysisHandler.BatteryHealth)
		v1.POST("/degradation/projection", analysisHandler.Degradation)

		v1.GET("/strategies", handlers.ListStrategies)
		v1.GET("/batteries", batteryHandler.ListBatteries)
		v1.GET("/chemistries", batteryHandler.ListChemistries)
		v1.GET("/sectors", handlers.ListSectors)
		v1.GET("/datasets", handlers.ListDatasets)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
