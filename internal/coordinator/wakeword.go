package coordinator

import (
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
)

// WakeWord wraps the Universal Coordinator for the WakeWord capability
// (spec §4.1/§4.6): coordinator-level default/fallback selection over
// whichever embedded detector providers are configured, on top of the
// single-process detector in internal/wakeword.
type WakeWord struct {
	*Coordinator
}

func NewWakeWord(c *Coordinator) *WakeWord { return &WakeWord{Coordinator: c} }

func (w *WakeWord) ProcessFrame(frame []int16, providerName string) (provider.DetectionState, error) {
	return resolve(w.Coordinator, providerName, func(inst registry.Instance) (provider.DetectionState, error) {
		ww, ok := inst.Value.(provider.WakeWord)
		if !ok {
			return provider.DetectionState{}, notWakeWord(inst)
		}
		return ww.ProcessFrame(frame), nil
	})
}
