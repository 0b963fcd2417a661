package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/coordinator"
)

// handleProviders implements the introspection endpoints of spec §4.7
// (GET /{asr,tts,audio,llm}/providers): availability, parameters, and
// capabilities for every live instance of one capability kind.
func handleProviders(c *coordinator.Coordinator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ok(ctx, http.StatusOK, gin.H{
			"default":   c.DefaultName(),
			"providers": c.ListProviders(),
		})
	}
}

type configureReq struct {
	Provider string `json:"provider" binding:"required"`
}

// handleConfigure implements POST /{kind}/configure: change the
// coordinator's default provider (spec §4.7).
func handleConfigure(c *coordinator.Coordinator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req configureReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "body must include \"provider\"")
			return
		}
		if err := c.SetDefault(req.Provider); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, http.StatusOK, gin.H{"default": c.DefaultName()})
	}
}
