package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestOkWritesSuccessEnvelope(t *testing.T) {
	c, w := newTestContext()
	ok(c, http.StatusOK, gin.H{"foo": "bar"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("expected success:true, got %+v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["foo"] != "bar" {
		t.Errorf("expected data.foo == bar, got %+v", body)
	}
}

func TestFailWritesErrorEnvelope(t *testing.T) {
	c, w := newTestContext()
	fail(c, corerrors.New(corerrors.ProviderNotFound, "no such provider"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success:false, got %+v", body)
	}
	errBody, ok := body["error"].(map[string]any)
	if !ok || errBody["code"] != string(corerrors.ProviderNotFound) {
		t.Errorf("expected error.code == ProviderNotFound, got %+v", body)
	}
}

func TestStatusForMapsEveryErrorKind(t *testing.T) {
	cases := map[corerrors.Kind]int{
		corerrors.ConfigInvalid:       http.StatusBadRequest,
		corerrors.SchemaMismatch:      http.StatusBadRequest,
		corerrors.DonationInvalid:     http.StatusBadRequest,
		corerrors.ProviderNotFound:    http.StatusNotFound,
		corerrors.ProviderUnavailable: http.StatusServiceUnavailable,
		corerrors.DependencyMissing:   http.StatusServiceUnavailable,
		corerrors.ResourceExhausted:   http.StatusTooManyRequests,
		corerrors.StageTimeout:        http.StatusGatewayTimeout,
		corerrors.Cancelled:           http.StatusRequestTimeout,
		corerrors.Internal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusFor(kind); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestBadRequestWritesSchemaMismatch(t *testing.T) {
	c, w := newTestContext()
	badRequest(c, "malformed body")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	errBody := body["error"].(map[string]any)
	if errBody["code"] != string(corerrors.SchemaMismatch) {
		t.Errorf("expected SchemaMismatch code, got %+v", errBody)
	}
}
