package httpapi

import (
	"encoding/base64"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

type speakReq struct {
	Text        string  `json:"text" binding:"required"`
	Provider    string  `json:"provider"`
	Language    string  `json:"language"`
	Voice       string  `json:"voice"`
	Speed       float32 `json:"speed"`
	ReturnAudio bool    `json:"return_audio"`
}

type speakResp struct {
	Provider string `json:"provider"`
	Audio    string `json:"audio,omitempty"`
}

// handleTTSSpeak implements spec §4.7 POST /tts/speak. By default the
// text is played through the configured audio sink as a side effect;
// return_audio=true synthesizes to a scratch file instead and returns
// the bytes base64-encoded, since provider.TTS exposes no direct
// in-memory synthesis method.
func handleTTSSpeak(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req speakReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must include \"text\"")
			return
		}

		opts := provider.SpeakOpts{Language: req.Language, Voice: req.Voice, Speed: req.Speed}
		providerName := req.Provider
		if providerName == "" {
			providerName = deps.TTS.DefaultName()
		}

		if !req.ReturnAudio {
			if err := deps.TTS.Speak(c.Request.Context(), req.Text, req.Provider, opts); err != nil {
				fail(c, err)
				return
			}
			ok(c, http.StatusOK, speakResp{Provider: providerName})
			return
		}

		tmp, err := os.CreateTemp("", "corvid-tts-*.wav")
		if err != nil {
			fail(c, corerrors.Wrap(corerrors.IO, "create scratch file", err))
			return
		}
		path := tmp.Name()
		tmp.Close()
		defer os.Remove(path)

		if err := deps.TTS.ToFile(c.Request.Context(), req.Text, path, req.Provider, opts); err != nil {
			fail(c, err)
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fail(c, corerrors.Wrap(corerrors.IO, "read synthesized audio", err))
			return
		}
		ok(c, http.StatusOK, speakResp{Provider: providerName, Audio: base64.StdEncoding.EncodeToString(data)})
	}
}
