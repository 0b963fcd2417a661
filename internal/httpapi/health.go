package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvid-assistant/corvid/internal/coordinator"
)

// handleHealth is a bare liveness probe (spec §4.7 GET /health): no
// coordinator is consulted, so it never depends on provider state.
func handleHealth(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// componentStatus is one row of the §4.7 "component + provider
// availability matrix" GET /status returns.
type componentStatus struct {
	Kind      string             `json:"kind"`
	Default   string             `json:"default"`
	Providers []providerStatus   `json:"providers"`
}

type providerStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// handleStatus reports every coordinator's default provider and the
// availability of each of its live instances.
func handleStatus(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		matrix := []componentStatus{
			coordinatorStatus("asr", deps.ASR.Coordinator),
			coordinatorStatus("tts", deps.TTS.Coordinator),
			coordinatorStatus("audio", deps.Audio.Coordinator),
			coordinatorStatus("llm", deps.LLM.Coordinator),
		}
		if deps.WakeWord != nil {
			matrix = append(matrix, coordinatorStatus("wakeword", deps.WakeWord.Coordinator))
		}
		ok(c, http.StatusOK, gin.H{"components": matrix})
	}
}

func coordinatorStatus(kind string, c *coordinator.Coordinator) componentStatus {
	infos := c.ListProviders()
	out := componentStatus{Kind: kind, Default: c.DefaultName(), Providers: make([]providerStatus, 0, len(infos))}
	for _, info := range infos {
		out.Providers = append(out.Providers, providerStatus{Name: info.Name, Available: info.Available})
	}
	return out
}
