package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/donation"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

func newDonationTestRouter(t *testing.T) (*gin.Engine, Dependencies) {
	t.Helper()
	store, err := donation.NewStore(t.TempDir(), 0.5, false, logger.New(true))
	if err != nil {
		t.Fatalf("failed to build donation store: %v", err)
	}
	deps := Dependencies{Donations: store}

	r := gin.New()
	r.GET("/donations/:handler/:language", handleDonationGet(deps))
	r.PUT("/donations/:handler/:language", handleDonationPut(deps))
	r.POST("/donations/:handler/:language/validate", handleDonationValidate(deps))
	return r, deps
}

func TestHandleDonationGetMissingReturnsNotFound(t *testing.T) {
	r, _ := newDonationTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/donations/timer/en-US", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing donation, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleDonationPutThenGetRoundTrips(t *testing.T) {
	r, _ := newDonationTestRouter(t)

	candidate := donation.Donation{
		SchemaVersion: donation.CurrentSchemaVersion,
		Description:   "set a timer",
	}
	body, _ := json.Marshal(candidate)

	putReq := httptest.NewRequest(http.MethodPut, "/donations/timer/en-US", bytes.NewReader(body))
	putReq.Header.Set("Content-Type", "application/json")
	putW := httptest.NewRecorder()
	r.ServeHTTP(putW, putReq)

	if putW.Code != http.StatusOK {
		t.Fatalf("expected 200 from PUT, got %d: %s", putW.Code, putW.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/donations/timer/en-US", nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)

	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200 from GET after PUT, got %d: %s", getW.Code, getW.Body.String())
	}
	var resp struct {
		Success bool              `json:"success"`
		Data    donation.Donation `json:"data"`
	}
	if err := json.Unmarshal(getW.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success:true, got %+v", resp)
	}
	if resp.Data.HandlerDomain != "timer" || resp.Data.Language != "en-US" {
		t.Errorf("expected handler/language set from path params, got %+v", resp.Data)
	}
	if resp.Data.Description != "set a timer" {
		t.Errorf("expected round-tripped description, got %+v", resp.Data)
	}
}

func TestHandleDonationPutRejectsMalformedBody(t *testing.T) {
	r, _ := newDonationTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/donations/timer/en-US", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestHandleDonationValidateDoesNotPersist(t *testing.T) {
	r, _ := newDonationTestRouter(t)

	candidate := donation.Donation{SchemaVersion: donation.CurrentSchemaVersion}
	body, _ := json.Marshal(candidate)

	req := httptest.NewRequest(http.MethodPost, "/donations/timer/en-US/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/donations/timer/en-US", nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusNotFound {
		t.Fatalf("expected validate to leave the store untouched, but GET returned %d", getW.Code)
	}
}
