package httpapi

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin.Engine exposing every route of spec §4.7: the
// coordinator-operation superset plus admin, matching the teacher's
// internal/server route registration style.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(deps.Config.WebAPI))

	r.GET("/", func(c *gin.Context) { ok(c, 200, gin.H{"message": "corvid is running"}) })
	r.GET("/health", handleHealth(deps))
	r.GET("/status", handleStatus(deps))

	auth := r.Group("/")
	auth.Use(authMiddleware(deps.Config.WebAPI))

	auth.POST("/asr/transcribe", handleASRTranscribe(deps))
	auth.GET("/asr/providers", handleProviders(deps.ASR.Coordinator))
	auth.POST("/asr/configure", handleConfigure(deps.ASR.Coordinator))
	auth.GET("/asr/stream", handleASRStream(deps))

	auth.POST("/tts/speak", handleTTSSpeak(deps))
	auth.GET("/tts/providers", handleProviders(deps.TTS.Coordinator))
	auth.POST("/tts/configure", handleConfigure(deps.TTS.Coordinator))

	auth.GET("/audio/providers", handleProviders(deps.Audio.Coordinator))
	auth.POST("/audio/configure", handleConfigure(deps.Audio.Coordinator))

	auth.GET("/llm/providers", handleProviders(deps.LLM.Coordinator))
	auth.POST("/llm/configure", handleConfigure(deps.LLM.Coordinator))

	auth.GET("/donations/:handler/:language", handleDonationGet(deps))
	auth.PUT("/donations/:handler/:language", handleDonationPut(deps))
	auth.POST("/donations/:handler/:language/validate", handleDonationValidate(deps))

	auth.GET("/ws", handleWebSocket(deps))
	auth.GET("/ws/text", handleTextWebSocket(deps))
	auth.GET("/ws/audio", handleAudioWebSocket(deps))

	auth.Any("/mcp", gin.WrapH(newMCPHandler(deps)))

	return r
}
