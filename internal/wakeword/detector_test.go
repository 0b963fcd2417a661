package wakeword

import (
	"testing"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

type fakeModel struct {
	confidence float64
	err        error
	calls      int
}

func (f *fakeModel) Infer(features *Matrix) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.confidence, nil
}

func (f *fakeModel) Close() error { return nil }

func testDetectorConfig() Config {
	return Config{
		VAD:                 testVADConfig(),
		MFCC:                DefaultMFCCConfig(),
		Threshold:           0.8,
		TriggerDurationMS:   100,
		InferenceIntervalMS: 10,
		TailSilenceMS:       300,
		MaxUtteranceMS:      5000,
		CooldownMS:          200,
	}
}

func TestNewDetectorWithNilModelDisablesItself(t *testing.T) {
	d := New(testDetectorConfig(), nil, logger.New(true), nil)
	if corerrors.KindOf(d.Err()) != corerrors.DependencyMissing {
		t.Fatalf("expected DependencyMissing error for nil model, got %v", d.Err())
	}
}

func TestNewDetectorWithModelHasNoError(t *testing.T) {
	d := New(testDetectorConfig(), &fakeModel{confidence: 0.1}, logger.New(true), nil)
	if d.Err() != nil {
		t.Fatalf("expected no error with a model present, got %v", d.Err())
	}
}

func TestDetectorWriteNeverBlocksOnFullBuffer(t *testing.T) {
	d := New(testDetectorConfig(), &fakeModel{}, logger.New(true), nil)
	big := make([]byte, d.ring.Capacity()*4)
	d.Write(big) // must return promptly regardless of buffer size
}

func TestRunInferenceTriggersDetectionAboveThreshold(t *testing.T) {
	cfg := testDetectorConfig()
	cfg.TriggerDurationMS = 0 // fire on the first sustained reading for this test

	var events []DetectionEvent
	model := &fakeModel{confidence: 0.95}
	d := New(cfg, model, logger.New(true), func(e DetectionEvent) {
		events = append(events, e)
	})

	samples := make([]int16, cfg.MFCC.InputSamples)
	d.runInference(samples)

	if len(events) != 1 {
		t.Fatalf("expected exactly one detection event, got %d", len(events))
	}
	if events[0].Confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %v", events[0].Confidence)
	}
	if d.sm.current() != StateStreaming {
		t.Errorf("expected state to transition to streaming, got %q", d.sm.current())
	}
}

func TestRunInferenceFaultIncrementsCountAndResetsTrigger(t *testing.T) {
	cfg := testDetectorConfig()
	model := &fakeModel{err: corerrors.New(corerrors.Internal, "model crashed")}
	d := New(cfg, model, logger.New(true), nil)

	samples := make([]int16, cfg.MFCC.InputSamples)
	d.runInference(samples)

	if d.inferenceFaults != 1 {
		t.Errorf("expected 1 recorded inference fault, got %d", d.inferenceFaults)
	}
	if d.sm.current() != StateIdleListening {
		t.Errorf("expected state to remain idle after a fault, got %q", d.sm.current())
	}
}

func TestRunInferenceClampsOutOfRangeConfidence(t *testing.T) {
	cfg := testDetectorConfig()
	cfg.TriggerDurationMS = 0
	model := &fakeModel{confidence: 1.5}
	var events []DetectionEvent
	d := New(cfg, model, logger.New(true), func(e DetectionEvent) {
		events = append(events, e)
	})

	samples := make([]int16, cfg.MFCC.InputSamples)
	d.runInference(samples)

	if len(events) != 1 {
		t.Fatalf("expected one detection event, got %d", len(events))
	}
	if events[0].Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %v", events[0].Confidence)
	}
}
