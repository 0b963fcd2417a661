// Package wav implements the minimal WAV container encode/decode corvid
// needs to hand raw PCM16 audio to HTTP-based ASR/TTS providers and to
// pull raw PCM back out of whatever a provider hands back, in place of
// the teacher's ffmpeg-shelling stream.ConvertAudioToMP3 (grounded on
// pkg/io/tts/piper/stream/utils.go, adapted away from an external
// process dependency since no audio-codec library in the pack covers
// WAV framing directly).
package wav

import (
	"encoding/binary"
)

const (
	pcmFormat  = 1
	headerSize = 44
)

// EncodePCM16 wraps raw little-endian signed 16-bit PCM samples in a
// canonical 44-byte RIFF/WAVE header.
func EncodePCM16(pcm []byte, sampleRate, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	bitsPerSample := 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf := make([]byte, headerSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], uint16(pcmFormat))
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

// StripHeader returns the raw PCM payload of a WAV byte slice, skipping
// past its data chunk header. It assumes the canonical 44-byte layout
// EncodePCM16 produces; a malformed or non-canonical WAV is returned
// unchanged rather than erroring, since callers treat this as a
// best-effort unwrap before streaming PCM onward to an Audio provider.
func StripHeader(wavBytes []byte) []byte {
	if len(wavBytes) <= headerSize || string(wavBytes[0:4]) != "RIFF" ||
		string(wavBytes[8:12]) != "WAVE" || string(wavBytes[36:40]) != "data" {
		return wavBytes
	}
	return wavBytes[headerSize:]
}
