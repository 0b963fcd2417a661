package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/donation"
)

// handleDonationGet implements spec §4.5/§4.7 GET /donations/:handler/:language.
func handleDonationGet(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := c.Param("handler")
		language := c.Param("language")

		snap := deps.Donations.Get()
		byLang, found := snap.ByHandlerLanguage[handler]
		if !found {
			fail(c, corerrors.New(corerrors.ProviderNotFound, "no donations for handler "+handler))
			return
		}
		d, found := byLang[language]
		if !found {
			fail(c, corerrors.New(corerrors.ProviderNotFound, "no donation for "+handler+"/"+language))
			return
		}
		ok(c, http.StatusOK, d)
	}
}

// handleDonationPut implements PUT /donations/:handler/:language: admin
// edit of one donation document, validated and hot-swapped in
// (spec §4.5 "admin-editable at runtime").
func handleDonationPut(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := c.Param("handler")
		language := c.Param("language")

		var candidate donation.Donation
		if err := c.ShouldBindJSON(&candidate); err != nil {
			badRequest(c, "malformed donation document")
			return
		}

		warnings, err := deps.Donations.ApplyEdit(handler, language, candidate)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"warnings": warnings})
	}
}

// handleDonationValidate implements POST /donations/:handler/:language/validate:
// runs Validate in lenient mode, without persisting. Unlike ApplyEdit, it
// does not apply the store's strict setting or the immutable-key check
// against the donation currently stored.
func handleDonationValidate(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := c.Param("handler")
		language := c.Param("language")

		var candidate donation.Donation
		if err := c.ShouldBindJSON(&candidate); err != nil {
			badRequest(c, "malformed donation document")
			return
		}
		candidate.HandlerDomain = handler
		candidate.Language = language

		warnings, err := donation.Validate(candidate, donation.ValidationOpts{Strict: false})
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"valid": true, "warnings": warnings})
	}
}
