package stream

// TrimSilence drops leading and trailing runs of near-zero PCM16
// samples from a chunk before it is appended to the concatenated
// output, so splicing chunk boundaries together doesn't produce an
// audible click from whatever silence padding piper-http adds at the
// start/end of each short synthesis. threshold is the maximum absolute
// sample magnitude still considered silence (piper's padding is true
// digital silence, so a small threshold like 32 is enough headroom for
// dither noise without cutting into real signal).
func TrimSilence(pcm []byte, threshold int16) []byte {
	n := len(pcm) / 2
	if n == 0 {
		return pcm
	}

	sample := func(i int) int16 {
		return int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	abs := func(v int16) int16 {
		if v < 0 {
			return -v
		}
		return v
	}

	start := 0
	for start < n && abs(sample(start)) <= threshold {
		start++
	}
	end := n
	for end > start && abs(sample(end-1)) <= threshold {
		end--
	}
	return pcm[start*2 : end*2]
}
