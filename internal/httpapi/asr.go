package httpapi

import (
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

type transcribeResp struct {
	Text         string `json:"text"`
	EnhancedText string `json:"enhanced_text,omitempty"`
	Provider     string `json:"provider"`
	Language     string `json:"language"`
}

// handleASRTranscribe implements spec §4.7 POST /asr/transcribe: multipart
// audio with optional provider/language/enhance fields.
func handleASRTranscribe(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, _, err := c.Request.FormFile("audio")
		if err != nil {
			badRequest(c, "multipart field \"audio\" is required")
			return
		}
		defer file.Close()

		audio, err := io.ReadAll(file)
		if err != nil {
			fail(c, corerrors.Wrap(corerrors.IO, "read uploaded audio", err))
			return
		}

		providerName := c.PostForm("provider")
		language := c.PostForm("language")
		enhance := c.PostForm("enhance") == "true"

		text, err := deps.ASR.Transcribe(c.Request.Context(), audio, providerName, provider.TranscribeOpts{
			Language: language,
			Enhance:  enhance,
		})
		if err != nil {
			fail(c, err)
			return
		}

		resp := transcribeResp{Text: text, Provider: providerName, Language: language}
		if providerName == "" {
			resp.Provider = deps.ASR.DefaultName()
		}
		if enhance && deps.LLM != nil {
			enhanced, err := deps.LLM.Enhance(c.Request.Context(), text, "asr_cleanup", "", provider.LLMOpts{})
			if err == nil {
				resp.EnhancedText = enhanced
			}
		}
		ok(c, http.StatusOK, resp)
	}
}

// asrStreamReq is the §4.7 WS /asr/stream client frame:
// {type: audio_chunk, data: base64, format, sample_rate, [language], [enhance]}.
type asrStreamReq struct {
	Type       string `json:"type"`
	Data       string `json:"data"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language,omitempty"`
	Enhance    bool   `json:"enhance,omitempty"`
}

type asrStreamResult struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// handleASRStream implements spec §4.7 WS /asr/stream: each client frame
// is one base64 audio_chunk; chunks feed the ASR coordinator's streaming
// transcribe and results are pushed back as they resolve. Unknown frame
// types are rejected with an error frame, not ignored (spec §6 WS wire
// contract).
func handleASRStream(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			deps.Log.With("error", err).Warnw("asr stream upgrade failed")
			return
		}
		defer conn.Close()

		chunks := make(chan []byte, 8)
		defer close(chunks)

		var opts provider.TranscribeOpts
		resultsReady := false

		go func() {
			results, err := deps.ASR.TranscribeStream(c.Request.Context(), chunks, "", opts)
			if err != nil {
				conn.WriteJSON(asrStreamResult{Type: "error", Code: string(corerrors.KindOf(err)), Message: err.Error()})
				return
			}
			for r := range results {
				if r.Err != nil {
					conn.WriteJSON(asrStreamResult{Type: "error", Code: string(corerrors.KindOf(r.Err)), Message: r.Err.Error()})
					continue
				}
				conn.WriteJSON(asrStreamResult{Type: "transcription_result", Text: r.Text, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)})
			}
		}()

		for {
			var req asrStreamReq
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Type != "audio_chunk" {
				conn.WriteJSON(asrStreamResult{Type: "error", Code: string(corerrors.SchemaMismatch), Message: "unknown frame type " + req.Type})
				continue
			}
			if !resultsReady {
				opts = provider.TranscribeOpts{Language: req.Language, Enhance: req.Enhance}
				resultsReady = true
			}
			data, err := base64.StdEncoding.DecodeString(req.Data)
			if err != nil {
				conn.WriteJSON(asrStreamResult{Type: "error", Code: string(corerrors.SchemaMismatch), Message: "invalid base64 audio data"})
				continue
			}
			chunks <- data
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}
