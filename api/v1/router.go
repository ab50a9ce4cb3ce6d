package v1

import (
	"go_dcd/api/v1/deployments"
	"go_dcd/internal/chain"
	"go_dcd/internal/httpx"

	"github.com/gin-gonic/gin"
)

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, orch *chain.Orchestrator) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", pingHandler)

		// Deployments routes
		handler := deployments.NewHandler(orch)
		deploymentsGroup := v1.Group("/deployments")
		{
			deploymentsGroup.POST("/create", handler.Create)
			deploymentsGroup.GET("/status", handler.Status)
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
