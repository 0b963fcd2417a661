package wakeword

import (
	"math"
	"testing"
)

func TestNFramesMatchesWindowHopArithmetic(t *testing.T) {
	cfg := DefaultMFCCConfig()
	got := cfg.NFrames()
	want := (cfg.InputSamples-cfg.WindowSamples)/cfg.HopSamples + 1
	if got != want {
		t.Errorf("expected %d frames, got %d", want, got)
	}
}

func TestBuildProducesExactlyNFramesRows(t *testing.T) {
	cfg := DefaultMFCCConfig()
	f := NewFrontend(cfg)

	samples := make([]int16, cfg.InputSamples)
	for i := range samples {
		samples[i] = int16(1000 * math.Sin(float64(i)*0.1))
	}

	m := f.Build(samples)
	if m.Frames != cfg.NFrames() {
		t.Fatalf("expected %d frames, got %d", cfg.NFrames(), m.Frames)
	}
	if len(m.Data) != m.Frames {
		t.Fatalf("expected %d data rows, got %d", m.Frames, len(m.Data))
	}
	for i, row := range m.Data {
		if len(row) != cfg.NMFCC {
			t.Errorf("frame %d: expected %d coefficients, got %d", i, cfg.NMFCC, len(row))
		}
	}
}

func TestMatrixResetZeroesData(t *testing.T) {
	m := &Matrix{Frames: 2, NMFCC: 3, Data: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	m.Reset()
	for _, row := range m.Data {
		for _, v := range row {
			if v != 0 {
				t.Errorf("expected all coefficients zeroed, got %v", m.Data)
			}
		}
	}
}

func TestHannWindowEndpointsNearZero(t *testing.T) {
	w := hannWindow(400)
	if w[0] > 1e-9 {
		t.Errorf("expected hann window to start near zero, got %v", w[0])
	}
	if w[len(w)-1] > 1e-9 {
		t.Errorf("expected hann window to end near zero, got %v", w[len(w)-1])
	}
	mid := w[len(w)/2]
	if mid < 0.9 {
		t.Errorf("expected hann window to peak near its center, got %v", mid)
	}
}

func TestDCTBasisFirstRowScaling(t *testing.T) {
	basis := dctBasis(13, 40)
	want := math.Sqrt(1.0 / 40)
	for _, v := range basis[0] {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("expected first DCT row constant at %v, got %v", want, v)
		}
	}
}

func TestMelFilterbankShape(t *testing.T) {
	filters := melFilterbank(40, 400, 16000)
	if len(filters) != 40 {
		t.Fatalf("expected 40 mel filters, got %d", len(filters))
	}
	nBins := 400/2 + 1
	for i, f := range filters {
		if len(f) != nBins {
			t.Errorf("filter %d: expected %d bins, got %d", i, nBins, len(f))
		}
	}
}
