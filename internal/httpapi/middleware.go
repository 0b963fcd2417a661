package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// authMiddleware enforces config.WebAPIConfig.AuthToken as a single static
// bearer token when set (spec §6/§11: "optional auth"; no JWT subsystem
// since no [MODULE] describes login/registration). An empty token
// disables the check entirely.
func authMiddleware(cfg config.WebAPIConfig) gin.HandlerFunc {
	if cfg.AuthToken == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := "Bearer " + cfg.AuthToken
	return func(c *gin.Context) {
		got := c.GetHeader("Authorization")
		if got == "" || !strings.EqualFold(got, want) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   errorBody{Code: string(corerrors.Internal), Message: "missing or invalid bearer token"},
			})
			return
		}
		c.Next()
	}
}

// corsMiddleware allows the configured origins (spec §4.7 "CORS ... are
// provided"); an empty list allows none, "*" in the list allows all.
func corsMiddleware(cfg config.WebAPIConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.CORSOrigins))
	allowAll := false
	for _, o := range cfg.CORSOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
