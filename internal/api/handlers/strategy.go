package handlers

import (
	"net/http"

	"bess-valuation/internal/strategy"

	"github.com/gin-gonic/gin"
)

// ListStrategies handles GET /api/v1/strategies
func ListStrategies(c *gin.Context) {
	strategies := strategy.Catalog()
	c.JSON(http.StatusOK, gin.H{"strategies": strategies, "count": len(strategies)})
}
