package wakeword

import "math"

// MFCCConfig dimensions the feature frontend (spec §4.6 default: 1s
// input at 16kHz).
type MFCCConfig struct {
	SampleRate    int
	InputSamples  int // INPUT_BUFFER_SIZE
	WindowSamples int
	HopSamples    int
	NMels         int
	NMFCC         int
}

// DefaultMFCCConfig matches spec §4.6's stated defaults (1s @ 16kHz).
func DefaultMFCCConfig() MFCCConfig {
	return MFCCConfig{
		SampleRate:    16000,
		InputSamples:  16000,
		WindowSamples: 400, // 25ms
		HopSamples:    160, // 10ms
		NMels:         40,
		NMFCC:         13,
	}
}

// NFrames returns the number of analysis frames a full InputSamples
// buffer yields at WindowSamples/HopSamples.
func (c MFCCConfig) NFrames() int {
	if c.InputSamples < c.WindowSamples {
		return 0
	}
	return (c.InputSamples-c.WindowSamples)/c.HopSamples + 1
}

// Frontend precomputes the Hann window, mel filterbank, and DCT basis
// once (spec §4.6: "Tables ... are precomputed once") and turns a PCM
// int16 buffer into an N_FRAMES x N_MFCC feature matrix.
type Frontend struct {
	cfg        MFCCConfig
	hann       []float64
	melFilters [][]float64 // [NMels][WindowSamples/2+1]
	dctBasis   [][]float64 // [NMFCC][NMels]
}

// NewFrontend builds a Frontend for cfg, precomputing its tables.
func NewFrontend(cfg MFCCConfig) *Frontend {
	f := &Frontend{cfg: cfg}
	f.hann = hannWindow(cfg.WindowSamples)
	f.melFilters = melFilterbank(cfg.NMels, cfg.WindowSamples, cfg.SampleRate)
	f.dctBasis = dctBasis(cfg.NMFCC, cfg.NMels)
	return f
}

// Matrix is an N_FRAMES x N_MFCC feature matrix (spec §3 "Feature
// frame matrix").
type Matrix struct {
	Frames int
	NMFCC  int
	Data   [][]float64 // Data[frame][coef]
}

// Reset zeroes the matrix in place, matching spec §3's invariant that
// a reused matrix is "zeroed on reset".
func (m *Matrix) Reset() {
	for i := range m.Data {
		for j := range m.Data[i] {
			m.Data[i][j] = 0
		}
	}
}

// Build slides the precomputed window across samples (expected to be
// exactly cfg.InputSamples long) and produces one MFCC row per frame.
// The matrix always has NFrames() rows; a frame whose window runs past
// the end of a shorter samples slice is left as a row of zeros. The
// caller (the detector) only runs inference once a full matrix has
// accumulated.
func (f *Frontend) Build(samples []int16) *Matrix {
	nFrames := f.cfg.NFrames()
	m := &Matrix{Frames: nFrames, NMFCC: f.cfg.NMFCC, Data: make([][]float64, nFrames)}

	for frame := 0; frame < nFrames; frame++ {
		start := frame * f.cfg.HopSamples
		end := start + f.cfg.WindowSamples
		if end > len(samples) {
			m.Data[frame] = make([]float64, f.cfg.NMFCC)
			continue
		}
		windowed := make([]float64, f.cfg.WindowSamples)
		for i := 0; i < f.cfg.WindowSamples; i++ {
			windowed[i] = (float64(samples[start+i]) / 32768.0) * f.hann[i]
		}
		power := powerSpectrum(windowed)
		melEnergies := make([]float64, f.cfg.NMels)
		for mi, filter := range f.melFilters {
			var sum float64
			for bin, weight := range filter {
				if weight == 0 || bin >= len(power) {
					continue
				}
				sum += weight * power[bin]
			}
			melEnergies[mi] = math.Log10(math.Max(sum, 1e-10))
		}
		m.Data[frame] = applyDCT(melEnergies, f.dctBasis)
	}
	return m
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// powerSpectrum computes a direct DFT (spec names DFT explicitly, not
// FFT; the window sizes here are small enough that an O(n^2) DFT is an
// acceptable, spec-faithful choice) and returns the power at each
// non-negative frequency bin.
func powerSpectrum(windowed []float64) []float64 {
	n := len(windowed)
	nBins := n/2 + 1
	power := make([]float64, nBins)
	for k := 0; k < nBins; k++ {
		var re, im float64
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += windowed[t] * math.Cos(angle)
			im += windowed[t] * math.Sin(angle)
		}
		power[k] = (re*re + im*im) / float64(n)
	}
	return power
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank builds nMels triangular filters, linear in mel-space
// between 0 and Nyquist (spec §4.6).
func melFilterbank(nMels, windowSamples, sampleRate int) [][]float64 {
	nBins := windowSamples/2 + 1
	nyquist := float64(sampleRate) / 2

	melLow := hzToMel(0)
	melHigh := hzToMel(nyquist)
	melPoints := make([]float64, nMels+2)
	for i := range melPoints {
		melPoints[i] = melLow + (melHigh-melLow)*float64(i)/float64(nMels+1)
	}

	binPoints := make([]int, nMels+2)
	for i, mel := range melPoints {
		hz := melToHz(mel)
		bin := int(math.Round(hz / nyquist * float64(nBins-1)))
		binPoints[i] = bin
	}

	filters := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		filters[m] = make([]float64, nBins)
		left, center, right := binPoints[m], binPoints[m+1], binPoints[m+2]
		for bin := left; bin < center; bin++ {
			if bin < 0 || bin >= nBins || center == left {
				continue
			}
			filters[m][bin] = float64(bin-left) / float64(center-left)
		}
		for bin := center; bin < right; bin++ {
			if bin < 0 || bin >= nBins || right == center {
				continue
			}
			filters[m][bin] = float64(right-bin) / float64(right-center)
		}
	}
	return filters
}

// dctBasis precomputes a type-II DCT basis with orthonormal scaling
// (spec §4.6: first row sqrt(1/nMels), others sqrt(2/nMels)).
func dctBasis(nCoeffs, nMels int) [][]float64 {
	basis := make([][]float64, nCoeffs)
	for k := 0; k < nCoeffs; k++ {
		row := make([]float64, nMels)
		scale := math.Sqrt(2.0 / float64(nMels))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(nMels))
		}
		for n := 0; n < nMels; n++ {
			row[n] = scale * math.Cos(math.Pi/float64(nMels)*(float64(n)+0.5)*float64(k))
		}
		basis[k] = row
	}
	return basis
}

func applyDCT(melEnergies []float64, basis [][]float64) []float64 {
	out := make([]float64, len(basis))
	for k, row := range basis {
		var sum float64
		for n, v := range row {
			if n >= len(melEnergies) {
				continue
			}
			sum += v * melEnergies[n]
		}
		out[k] = sum
	}
	return out
}
