package audio

// FrameAssembler splits arbitrary-sized inbound audio chunks into fixed-length
// frames. Bytes that do not fill a whole frame are carried forward and
// prepended to the next chunk; no audio is ever discarded.
type FrameAssembler struct {
	frameSize int
	carry     []byte
}

// NewFrameAssembler creates an assembler producing frames of frameSize bytes
func NewFrameAssembler(frameSize int) *FrameAssembler {
	return &FrameAssembler{
		frameSize: frameSize,
		carry:     make([]byte, 0, frameSize),
	}
}

// Push appends a chunk and returns every complete frame now available.
// Each returned frame is an independent copy; the remainder (< one frame)
// becomes the new carry buffer.
func (a *FrameAssembler) Push(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}

	buf := append(a.carry, chunk...)

	var frames [][]byte
	offset := 0
	for offset+a.frameSize <= len(buf) {
		frame := make([]byte, a.frameSize)
		copy(frame, buf[offset:offset+a.frameSize])
		frames = append(frames, frame)
		offset += a.frameSize
	}

	a.carry = append(a.carry[:0], buf[offset:]...)
	return frames
}

// Pending returns the number of carried bytes awaiting frame completion
func (a *FrameAssembler) Pending() int {
	return len(a.carry)
}

// Reset drops any carried bytes
func (a *FrameAssembler) Reset() {
	a.carry = a.carry[:0]
}
