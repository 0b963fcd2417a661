package wakeword

import "testing"

func silence(n int) []int16 {
	return make([]int16, n)
}

func tone(n int, amplitude int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amplitude
		} else {
			out[i] = -amplitude
		}
	}
	return out
}

func testVADConfig() VADConfig {
	return VADConfig{
		SampleRate:         16000,
		FrameDurationMS:    20,
		Sensitivity:        1.0,
		BaseThreshold:      0.05,
		FramesForVoiceMS:   60, // 3 frames at 50fps
		FramesForSilenceMS: 100,
	}
}

func TestVADStaysSilentOnSilence(t *testing.T) {
	v := NewVAD(testVADConfig())
	var result FrameResult
	for i := 0; i < 10; i++ {
		result = v.Analyze(silence(320))
	}
	if result.Voiced {
		t.Errorf("expected silence to never trigger voiced state")
	}
}

func TestVADRequiresConsecutiveFramesToEnterVoice(t *testing.T) {
	v := NewVAD(testVADConfig())
	loud := tone(320, 20000)

	first := v.Analyze(loud)
	if first.Voiced {
		t.Errorf("expected a single loud frame not to trigger voiced immediately (hysteresis)")
	}

	var last FrameResult
	for i := 0; i < 5; i++ {
		last = v.Analyze(loud)
	}
	if !last.Voiced {
		t.Errorf("expected sustained loud frames to eventually enter voiced state")
	}
}

func TestVADRequiresConsecutiveSilenceToLeaveVoice(t *testing.T) {
	v := NewVAD(testVADConfig())
	loud := tone(320, 20000)
	quiet := silence(320)

	for i := 0; i < 6; i++ {
		v.Analyze(loud)
	}

	result := v.Analyze(quiet)
	if !result.Voiced {
		t.Fatalf("expected a single silent frame not to immediately leave voiced state")
	}

	// The 8-frame moving average stays above threshold for the first 7
	// silent frames; leaving then takes 5 more (100ms at 50fps).
	for i := 0; i < 20; i++ {
		result = v.Analyze(quiet)
	}
	if result.Voiced {
		t.Errorf("expected sustained silence to eventually leave voiced state")
	}
}
