package audio

import (
	"testing"

	"github.com/rs/zerolog"
)

const testFrameBytes = 960 // 30ms at 16kHz, 16-bit mono

func speechFrame() []byte {
	samples := make([]int16, testFrameBytes/2)
	for i := range samples {
		samples[i] = 5000
	}
	return Int16ToBytes(samples)
}

func silentFrame() []byte {
	samples := make([]int16, testFrameBytes/2)
	for i := range samples {
		samples[i] = 10
	}
	return Int16ToBytes(samples)
}

func newTestSegmenter(minBytes int) *Segmenter {
	classifier := NewEnergyClassifier(testFrameBytes, 500.0)
	return NewSegmenter(classifier, SegmenterConfig{
		PrerollFrames: 20,
		SilenceFrames: 30,
		MinBytes:      minBytes,
	}, zerolog.Nop())
}

func TestSegmenter_SilenceOnlyEmitsNothing(t *testing.T) {
	s := newTestSegmenter(0)

	// Scenario A: 20 consecutive silent frames, zero utterances
	for i := 0; i < 20; i++ {
		if u := s.Process(silentFrame()); u != nil {
			t.Fatalf("Unexpected utterance on silent frame %d", i)
		}
	}
	if s.InSpeech() {
		t.Error("Expected segmenter to remain idle")
	}
}

func TestSegmenter_SpeechThenSilenceEmitsOneUtterance(t *testing.T) {
	s := newTestSegmenter(0)

	// Scenario B: 10 speech frames then 35 silent frames (threshold 30)
	emitted := 0
	var utterance []byte
	for i := 0; i < 10; i++ {
		if u := s.Process(speechFrame()); u != nil {
			emitted++
			utterance = u
		}
	}
	for i := 0; i < 35; i++ {
		if u := s.Process(silentFrame()); u != nil {
			emitted++
			utterance = u
		}
	}

	if emitted != 1 {
		t.Fatalf("Expected exactly one utterance, got %d", emitted)
	}

	// 10 speech frames plus 31 trailing silence frames (counter must exceed
	// the threshold), no pre-roll because the stream started with speech.
	want := testFrameBytes * (10 + 31)
	if len(utterance) != want {
		t.Errorf("Expected %d byte utterance, got %d", want, len(utterance))
	}
}

func TestSegmenter_PrerollIncluded(t *testing.T) {
	s := newTestSegmenter(0)

	// 5 silent frames land in the pre-roll ring before speech starts
	for i := 0; i < 5; i++ {
		s.Process(silentFrame())
	}
	for i := 0; i < 10; i++ {
		s.Process(speechFrame())
	}

	var utterance []byte
	for i := 0; i < 31; i++ {
		if u := s.Process(silentFrame()); u != nil {
			utterance = u
		}
	}

	if utterance == nil {
		t.Fatal("Expected an utterance")
	}
	want := testFrameBytes * (5 + 10 + 31)
	if len(utterance) != want {
		t.Errorf("Expected %d bytes (preroll+speech+hangover), got %d", want, len(utterance))
	}
}

func TestSegmenter_PrerollRingBounded(t *testing.T) {
	s := newTestSegmenter(0)

	// 50 silent frames, ring keeps only the newest 20
	for i := 0; i < 50; i++ {
		s.Process(silentFrame())
	}
	for i := 0; i < 10; i++ {
		s.Process(speechFrame())
	}

	var utterance []byte
	for i := 0; i < 31; i++ {
		if u := s.Process(silentFrame()); u != nil {
			utterance = u
		}
	}

	want := testFrameBytes * (20 + 10 + 31)
	if len(utterance) != want {
		t.Errorf("Expected %d bytes with bounded preroll, got %d", want, len(utterance))
	}
}

func TestSegmenter_NoDuplicateEmissionPerRegion(t *testing.T) {
	s := newTestSegmenter(0)

	emitted := 0
	for i := 0; i < 10; i++ {
		if s.Process(speechFrame()) != nil {
			emitted++
		}
	}
	// Far more silence than the threshold must still yield one emission
	for i := 0; i < 100; i++ {
		if s.Process(silentFrame()) != nil {
			emitted++
		}
	}

	if emitted != 1 {
		t.Errorf("Expected one utterance per speech region, got %d", emitted)
	}
}

func TestSegmenter_MinLengthGuard(t *testing.T) {
	// 1s minimum at 16kHz = 32000 bytes; a single speech blip accumulates
	// only 32 frames (30720 bytes) and must be discarded.
	s := newTestSegmenter(32000)

	s.Process(speechFrame())
	for i := 0; i < 40; i++ {
		if u := s.Process(silentFrame()); u != nil {
			t.Fatal("Expected blip to be discarded by the length guard")
		}
	}
	if s.Discarded() != 1 {
		t.Errorf("Expected 1 discarded utterance, got %d", s.Discarded())
	}

	// A real utterance passes the guard
	for i := 0; i < 10; i++ {
		s.Process(speechFrame())
	}
	emitted := 0
	for i := 0; i < 40; i++ {
		if s.Process(silentFrame()) != nil {
			emitted++
		}
	}
	if emitted != 1 {
		t.Errorf("Expected long utterance to be emitted, got %d emissions", emitted)
	}
}

func TestSegmenter_MinLengthGuardIgnoresPreroll(t *testing.T) {
	// A full 20-frame pre-roll ring adds 19200 bytes of context to the
	// buffer; the guard must still reject a single speech blip mid-stream.
	s := newTestSegmenter(32000)

	for i := 0; i < 25; i++ {
		s.Process(silentFrame())
	}
	s.Process(speechFrame())
	for i := 0; i < 40; i++ {
		if u := s.Process(silentFrame()); u != nil {
			t.Fatalf("Blip emitted despite guard: %d bytes", len(u))
		}
	}
	if s.Discarded() != 1 {
		t.Errorf("Expected 1 discarded utterance, got %d", s.Discarded())
	}
}

func TestSegmenter_SpeechResetsSilenceCounter(t *testing.T) {
	s := newTestSegmenter(0)

	for i := 0; i < 5; i++ {
		s.Process(speechFrame())
	}
	// 29 silent frames, then speech again: counter must reset
	for i := 0; i < 29; i++ {
		if s.Process(silentFrame()) != nil {
			t.Fatal("Utterance emitted before threshold crossed")
		}
	}
	s.Process(speechFrame())

	// Another 30 silent frames do not cross the threshold; the 31st does
	var utterance []byte
	for i := 0; i < 31; i++ {
		if u := s.Process(silentFrame()); u != nil {
			if i != 30 {
				t.Errorf("Utterance emitted on silence frame %d, expected 30", i)
			}
			utterance = u
		}
	}
	if utterance == nil {
		t.Fatal("Expected an utterance after the second silence run")
	}
}

type errorClassifier struct{}

func (errorClassifier) IsSpeech([]byte) (bool, error) {
	return true, errFrame
}

var errFrame = &malformedFrameError{}

type malformedFrameError struct{}

func (*malformedFrameError) Error() string { return "malformed frame" }

func TestSegmenter_ClassifierErrorTreatedAsSilence(t *testing.T) {
	s := NewSegmenter(errorClassifier{}, SegmenterConfig{
		PrerollFrames: 20,
		SilenceFrames: 30,
	}, zerolog.Nop())

	// Even though the failing classifier claims speech, the error path must
	// never trigger an utterance.
	for i := 0; i < 50; i++ {
		if s.Process(silentFrame()) != nil {
			t.Fatal("Classifier error must not start or end an utterance")
		}
	}
	if s.InSpeech() {
		t.Error("Expected segmenter to remain idle on classifier errors")
	}
}
