package audio

import (
	"encoding/binary"
	"testing"
)

func TestBytesToInt16RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToInt16(Int16ToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestNormalizeToFloat32(t *testing.T) {
	out := NormalizeToFloat32([]int16{-32768, 0, 16384})
	if out[0] != -1.0 {
		t.Errorf("Expected -1.0, got %f", out[0])
	}
	if out[1] != 0.0 {
		t.Errorf("Expected 0.0, got %f", out[1])
	}
	if out[2] != 0.5 {
		t.Errorf("Expected 0.5, got %f", out[2])
	}
}

func TestCalculateRMS(t *testing.T) {
	samples := []int16{1000, -1000, 2000, -2000}
	rms := CalculateRMS(samples)

	// sqrt((1000^2 + 1000^2 + 2000^2 + 2000^2) / 4)
	expected := 1581.14
	if rms < expected-1.0 || rms > expected+1.0 {
		t.Errorf("Expected RMS around %.2f, got %.2f", expected, rms)
	}

	if CalculateRMS(nil) != 0.0 {
		t.Error("Expected zero RMS for empty input")
	}
}

func TestEncodeWAV(t *testing.T) {
	pcm := make([]byte, 960)
	wav, err := EncodeWAV(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(wav) != 44+len(pcm) {
		t.Errorf("Expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("Missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Errorf("Expected data size %d, got %d", len(pcm), size)
	}
}

func TestEncodeWAV_Invalid(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Error("Expected error for empty PCM")
	}
	if _, err := EncodeWAV(make([]byte, 3), 16000); err == nil {
		t.Error("Expected error for odd-length PCM")
	}
}
