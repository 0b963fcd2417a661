package httpapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHandleASRTranscribeRequiresAudioField(t *testing.T) {
	r := gin.New()
	r.POST("/asr/transcribe", handleASRTranscribe(Dependencies{}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("provider", "whispercpp")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/asr/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when audio field is missing, got %d: %s", w.Code, w.Body.String())
	}
}
