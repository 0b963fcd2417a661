package wakeword

import "math"

// VADConfig tunes the per-frame voice decision and its hysteresis
// (spec §4.6).
type VADConfig struct {
	SampleRate int
	// FrameDurationMS is the analysis frame length; spec fixes it at 20ms.
	FrameDurationMS int
	Sensitivity     float64
	BaseThreshold   float64
	// FramesForVoiceMS/FramesForSilenceMS are durations converted to
	// frame counts at 50fps (spec §4.6: "frame counts derive from
	// configurable durations in ms at 50 fps").
	FramesForVoiceMS   int
	FramesForSilenceMS int
}

const framesPerSecond = 50 // 20ms frames -> 50 fps

func msToFrames(ms int) int {
	frames := ms * framesPerSecond / 1000
	if frames < 1 {
		return 1
	}
	return frames
}

// VAD implements the per-frame RMS+ZCR voice decision with an 8-frame
// moving average and enter/leave hysteresis (spec §4.6).
type VAD struct {
	cfg VADConfig

	energyHistory    []float64
	smoothedEnergy   float64
	voiced           bool
	consecutivePos   int
	consecutiveNeg   int
	framesForVoice   int
	framesForSilence int
}

// NewVAD builds a VAD from cfg.
func NewVAD(cfg VADConfig) *VAD {
	return &VAD{
		cfg:              cfg,
		framesForVoice:   msToFrames(cfg.FramesForVoiceMS),
		framesForSilence: msToFrames(cfg.FramesForSilenceMS),
	}
}

// FrameResult is the decision for one analyzed frame.
type FrameResult struct {
	RMS    float64
	ZCR    float64
	Voiced bool
}

// Analyze feeds one frame of int16 PCM samples (FrameDurationMS worth)
// through the energy/ZCR computation, moving average, threshold
// decision, and hysteresis, returning the (possibly still-debounced)
// voice state.
func (v *VAD) Analyze(samples []int16) FrameResult {
	rms := rmsOf(samples)
	zcr := zeroCrossingRate(samples)

	v.energyHistory = append(v.energyHistory, rms)
	if len(v.energyHistory) > 8 {
		v.energyHistory = v.energyHistory[len(v.energyHistory)-8:]
	}
	v.smoothedEnergy = average(v.energyHistory)

	adaptiveThreshold := v.cfg.BaseThreshold * (2 - v.cfg.Sensitivity)
	rawVoice := v.smoothedEnergy > adaptiveThreshold ||
		(zcr > 0.1 && v.smoothedEnergy > 0.5*v.cfg.BaseThreshold*(2-v.cfg.Sensitivity))

	v.applyHysteresis(rawVoice)

	return FrameResult{RMS: rms, ZCR: zcr, Voiced: v.voiced}
}

func (v *VAD) applyHysteresis(rawVoice bool) {
	if rawVoice {
		v.consecutivePos++
		v.consecutiveNeg = 0
		if !v.voiced && v.consecutivePos >= v.framesForVoice {
			v.voiced = true
		}
		return
	}
	v.consecutiveNeg++
	v.consecutivePos = 0
	if v.voiced && v.consecutiveNeg >= v.framesForSilence {
		v.voiced = false
	}
}

func rmsOf(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		norm := float64(s) / 32768.0
		sumSquares += norm * norm
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

func zeroCrossingRate(samples []int16) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
