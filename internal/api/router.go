package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockflow/product-service/internal/platform/logger"
)

// NewRouter wires the HTTP routes. Everything under /v1 requires the tenant
// headers.
func NewRouter(h *Handler, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1", TenantRequired())
	{
		v1.POST("/products", h.CreateProduct)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/check-name", h.CheckName)

		v1.GET("/drafts/product", h.GetDraft)
		v1.PUT("/drafts/product", h.SaveDraft)
		v1.DELETE("/drafts/product", h.DeleteDraft)
	}

	return r
}
