package audio

import "fmt"

// Classifier decides whether a single fixed-length frame contains speech
type Classifier interface {
	IsSpeech(frame []byte) (bool, error)
}

// EnergyClassifier classifies frames by RMS energy against a fixed threshold
type EnergyClassifier struct {
	frameSize int
	threshold float64
}

// NewEnergyClassifier creates a classifier for frames of frameSize bytes
func NewEnergyClassifier(frameSize int, threshold float64) *EnergyClassifier {
	return &EnergyClassifier{
		frameSize: frameSize,
		threshold: threshold,
	}
}

// IsSpeech reports whether the frame's RMS energy exceeds the threshold.
// Frames of the wrong length are an error; callers treat that as non-speech.
func (c *EnergyClassifier) IsSpeech(frame []byte) (bool, error) {
	if len(frame) != c.frameSize {
		return false, fmt.Errorf("expected %d byte frame, got %d", c.frameSize, len(frame))
	}

	samples := BytesToInt16(frame)
	return CalculateRMS(samples) > c.threshold, nil
}
