package audio

import (
	"bytes"

	"github.com/rs/zerolog"
)

// SegmenterConfig holds configuration for utterance segmentation
type SegmenterConfig struct {
	PrerollFrames int // Pre-roll ring capacity (frames kept before speech onset)
	SilenceFrames int // Contiguous silence frames that end an utterance
	MinBytes      int // Utterances shorter than this are discarded
}

// Segmenter assembles contiguous speech frames into complete utterances.
//
// It is a two-state machine. In idle, non-speech frames rotate through the
// pre-roll ring; a speech frame seeds the utterance buffer with the pre-roll
// plus itself. In speech, every frame is appended and a silence counter runs;
// once it exceeds the silence threshold the buffer is emitted (subject to the
// minimum-length guard) and the machine returns to idle.
type Segmenter struct {
	classifier Classifier
	cfg        SegmenterConfig
	logger     zerolog.Logger

	preroll      *frameRing
	utterance    bytes.Buffer
	inSpeech     bool
	silenceRun   int
	prerollBytes int
	discarded    uint64
}

// NewSegmenter creates a segmenter using the given frame classifier
func NewSegmenter(classifier Classifier, cfg SegmenterConfig, logger zerolog.Logger) *Segmenter {
	return &Segmenter{
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		preroll:    newFrameRing(cfg.PrerollFrames),
	}
}

// Process feeds one frame through the state machine. It returns a complete
// utterance when a silence boundary is crossed, nil otherwise. Classifier
// errors are treated as non-speech for that frame.
func (s *Segmenter) Process(frame []byte) []byte {
	isSpeech, err := s.classifier.IsSpeech(frame)
	if err != nil {
		// Fail open toward silence, never toward false triggering.
		s.logger.Debug().Err(err).Msg("Classifier error, treating frame as non-speech")
		isSpeech = false
	}

	if !s.inSpeech {
		if !isSpeech {
			s.preroll.push(frame)
			return nil
		}
		// Speech onset: seed the utterance with pre-roll context.
		s.inSpeech = true
		s.silenceRun = 0
		s.prerollBytes = 0
		for _, f := range s.preroll.drain() {
			s.utterance.Write(f)
			s.prerollBytes += len(f)
		}
		s.utterance.Write(frame)
		return nil
	}

	s.utterance.Write(frame)
	if isSpeech {
		s.silenceRun = 0
		return nil
	}

	s.silenceRun++
	if s.silenceRun <= s.cfg.SilenceFrames {
		return nil
	}

	// Silence boundary crossed: emit and reset.
	s.inSpeech = false
	s.silenceRun = 0
	buf := make([]byte, s.utterance.Len())
	copy(buf, s.utterance.Bytes())
	s.utterance.Reset()
	s.preroll.reset()

	// Pre-roll is context, not content: measure the guard against the
	// speech-plus-hangover region so a full ring cannot rescue a blip.
	if len(buf)-s.prerollBytes < s.cfg.MinBytes {
		s.discarded++
		s.logger.Debug().
			Int("bytes", len(buf)).
			Int("preroll_bytes", s.prerollBytes).
			Int("min_bytes", s.cfg.MinBytes).
			Msg("Discarding short utterance")
		return nil
	}
	return buf
}

// InSpeech reports whether the segmenter is currently inside an utterance
func (s *Segmenter) InSpeech() bool {
	return s.inSpeech
}

// Discarded returns the number of utterances rejected by the length guard
func (s *Segmenter) Discarded() uint64 {
	return s.discarded
}

// Reset returns the segmenter to idle, dropping any partial utterance
func (s *Segmenter) Reset() {
	s.inSpeech = false
	s.silenceRun = 0
	s.prerollBytes = 0
	s.utterance.Reset()
	s.preroll.reset()
}

// frameRing is a fixed-capacity ring of audio frames. Pushing onto a full
// ring overwrites the oldest frame.
type frameRing struct {
	frames [][]byte
	size   int
	start  int
	count  int
}

func newFrameRing(size int) *frameRing {
	return &frameRing{
		frames: make([][]byte, size),
		size:   size,
	}
}

func (r *frameRing) push(frame []byte) {
	if r.size == 0 {
		return
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)

	idx := (r.start + r.count) % r.size
	if r.count == r.size {
		r.frames[r.start] = cp
		r.start = (r.start + 1) % r.size
	} else {
		r.frames[idx] = cp
		r.count++
	}
}

// drain returns frames oldest-first and empties the ring
func (r *frameRing) drain() [][]byte {
	out := make([][]byte, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.frames[(r.start+i)%r.size])
	}
	r.reset()
	return out
}

func (r *frameRing) reset() {
	r.start = 0
	r.count = 0
	for i := range r.frames {
		r.frames[i] = nil
	}
}
