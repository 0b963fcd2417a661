package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// errorBody is the §6 canonical error shape: {code, message, details?}.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ok writes the §6 canonical success envelope: {success: true, data}.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// fail writes the §6 canonical error envelope and maps a corerrors.Kind to
// the HTTP status a REST client expects (spec §7 "any non-success returns
// a 4xx/5xx with the structured envelope").
func fail(c *gin.Context, err error) {
	kind := corerrors.KindOf(err)
	c.JSON(statusFor(kind), gin.H{
		"success": false,
		"error":   errorBody{Code: string(kind), Message: err.Error()},
	})
}

func statusFor(kind corerrors.Kind) int {
	switch kind {
	case corerrors.ConfigInvalid, corerrors.SchemaMismatch, corerrors.DonationInvalid:
		return http.StatusBadRequest
	case corerrors.ProviderNotFound:
		return http.StatusNotFound
	case corerrors.ProviderUnavailable, corerrors.DependencyMissing:
		return http.StatusServiceUnavailable
	case corerrors.ResourceExhausted:
		return http.StatusTooManyRequests
	case corerrors.StageTimeout:
		return http.StatusGatewayTimeout
	case corerrors.Cancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// badRequest writes a SchemaMismatch 400 for request-shape errors
// that never reach a coordinator (missing body fields, bad multipart).
func badRequest(c *gin.Context, msg string) {
	fail(c, corerrors.New(corerrors.SchemaMismatch, msg))
}
