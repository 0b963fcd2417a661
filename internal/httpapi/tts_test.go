package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHandleTTSSpeakRequiresText(t *testing.T) {
	r := gin.New()
	r.POST("/tts/speak", handleTTSSpeak(Dependencies{}))

	req := httptest.NewRequest(http.MethodPost, "/tts/speak", bytes.NewReader([]byte(`{"provider":"piper"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when text is missing, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleTTSSpeakRejectsMalformedJSON(t *testing.T) {
	r := gin.New()
	r.POST("/tts/speak", handleTTSSpeak(Dependencies{}))

	req := httptest.NewRequest(http.MethodPost, "/tts/speak", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", w.Code)
	}
}
