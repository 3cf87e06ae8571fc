package camera

import (
	"bytes"
	"regexp"
)

const (
	// headerScanWindow bounds the blank-line search while header-seeking.
	headerScanWindow = 512
	// headerBufferCap / bodyBufferCap bound the internal buffer in each
	// state; exceeding a cap discards all but the trailing trimKeep
	// bytes so a malformed stream cannot grow the buffer without bound.
	headerBufferCap = 8 << 10
	bodyBufferCap   = 200 << 10
	trimKeep        = 1 << 10

	// boundaryScanWindow bounds the textual boundary search at the start
	// of a body.
	boundaryScanWindow = 200
	// eoiBoundaryWindow is how far past an end-of-image marker a "--"
	// sequence still counts as the frame boundary.
	eoiBoundaryWindow = 12

	// minEmitBytes drops boundary fragments masquerading as frames.
	minEmitBytes = 100
)

var (
	jpegEOI    = []byte{0xFF, 0xD9}
	crlfBlank  = []byte("\r\n\r\n")
	lfBlank    = []byte("\n\n")
	boundaryRe = regexp.MustCompile(`--[A-Za-z0-9'()+_,\-./:=?]+`)
	jpegPartRe = regexp.MustCompile(`(?i)content-type:\s*image/jpeg`)
)

// StreamingFrameAssembler incrementally parses a multipart/x-mixed-replace
// (MJPEG) byte stream into discrete JPEG frames. Input arrives in
// arbitrary-sized chunks; each Write appends to the internal buffer and
// makes as much progress as possible, emitting zero or more frames.
//
// The parser alternates between two states: header-seeking (skip part
// headers until the body start is located) and body-seeking (accumulate
// until the next frame boundary). ESP32-CAM firmware is loose about the
// multipart framing, so both states carry raw-JPEG-marker fallbacks.
//
// Best-effort path: real ESP32-CAM firmware rarely sustains MJPEG over
// this client, so callers treat any stream failure as a cue to fall back
// to snapshot polling.
type StreamingFrameAssembler struct {
	buf      []byte
	inHeader bool
	emit     func(frame []byte)

	framesEmitted uint64
	corrupted     uint64
}

// NewStreamingFrameAssembler creates an assembler delivering completed
// frames to emit. The emitted slice is a copy and safe to retain.
func NewStreamingFrameAssembler(emit func([]byte)) *StreamingFrameAssembler {
	return &StreamingFrameAssembler{inHeader: true, emit: emit}
}

// Write appends one chunk of stream data and processes it. A single
// chunk may complete several frames or none.
func (a *StreamingFrameAssembler) Write(chunk []byte) {
	a.buf = append(a.buf, chunk...)
	for a.step() {
	}
}

// Reset discards all buffered data and returns to header-seeking.
func (a *StreamingFrameAssembler) Reset() {
	a.buf = nil
	a.inHeader = true
}

// BufferedBytes reports the current internal buffer size.
func (a *StreamingFrameAssembler) BufferedBytes() int { return len(a.buf) }

// FramesEmitted reports how many frames have been delivered.
func (a *StreamingFrameAssembler) FramesEmitted() uint64 { return a.framesEmitted }

// step makes one state transition. Returns true if progress was made and
// another step may succeed on the remaining buffer.
func (a *StreamingFrameAssembler) step() bool {
	if a.inHeader {
		return a.seekBody()
	}
	return a.seekBoundary()
}

// seekBody consumes part headers: a blank line within the first 512
// bytes ends the header; failing that, a raw start-of-image marker
// anywhere in the buffer marks the body start directly.
func (a *StreamingFrameAssembler) seekBody() bool {
	win := a.buf
	if len(win) > headerScanWindow {
		win = win[:headerScanWindow]
	}
	if i := bytes.Index(win, crlfBlank); i >= 0 {
		a.advance(i + len(crlfBlank))
		a.inHeader = false
		return len(a.buf) > 0
	}
	if i := bytes.Index(win, lfBlank); i >= 0 {
		a.advance(i + len(lfBlank))
		a.inHeader = false
		return len(a.buf) > 0
	}
	if i := bytes.Index(a.buf, jpegSOI); i >= 0 {
		a.advance(i)
		a.inHeader = false
		return len(a.buf) > 0
	}
	if len(a.buf) > headerBufferCap {
		a.trimToTail()
		return false
	}
	return false
}

// seekBoundary locates the end of the current frame body and emits the
// completed frame.
func (a *StreamingFrameAssembler) seekBoundary() bool {
	end := a.findBoundary()
	if end < 0 {
		if len(a.buf) > bodyBufferCap {
			// Corrupted frame: no boundary in 200 KB. Drop it and
			// resume header-seeking on the tail.
			a.corrupted++
			a.trimToTail()
			a.inHeader = true
			return true
		}
		return false
	}

	frame := a.buf[:end]
	if len(frame) > minEmitBytes && a.emit != nil {
		out := make([]byte, len(frame))
		copy(out, frame)
		a.framesEmitted++
		a.emit(out)
	}
	a.advance(end)
	a.inHeader = true
	return len(a.buf) > 0
}

// findBoundary returns the index one past the current frame body, or -1.
// Textual markers (a multipart boundary token or an image/jpeg part
// header) are only expected near the body start; past that the raw JPEG
// markers decide: an end-of-image marker trailed shortly by "--", or the
// next start-of-image marker.
func (a *StreamingFrameAssembler) findBoundary() int {
	best := -1
	better := func(i int) {
		if i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}

	head := a.buf
	if len(head) > boundaryScanWindow {
		head = head[:boundaryScanWindow]
	}
	if loc := boundaryRe.FindIndex(head); loc != nil {
		better(loc[0])
	}
	if loc := jpegPartRe.FindIndex(head); loc != nil {
		better(loc[0])
	}

	// End-of-image followed shortly by a boundary-looking "--".
	for i := 0; i < len(a.buf); {
		j := bytes.Index(a.buf[i:], jpegEOI)
		if j < 0 {
			break
		}
		p := i + j
		tail := a.buf[p+len(jpegEOI):]
		if len(tail) > eoiBoundaryWindow {
			tail = tail[:eoiBoundaryWindow]
		}
		if bytes.Contains(tail, []byte("--")) {
			better(p + len(jpegEOI))
			break
		}
		i = p + len(jpegEOI)
	}

	// Next start-of-image past the current frame's own marker.
	if len(a.buf) > len(jpegSOI) {
		if j := bytes.Index(a.buf[len(jpegSOI):], jpegSOI); j >= 0 {
			better(j + len(jpegSOI))
		}
	}
	return best
}

// advance drops n consumed bytes from the front of the buffer.
func (a *StreamingFrameAssembler) advance(n int) {
	rest := a.buf[n:]
	a.buf = append(a.buf[:0:0], rest...)
}

// trimToTail discards all but the trailing 1 KB.
func (a *StreamingFrameAssembler) trimToTail() {
	if len(a.buf) > trimKeep {
		a.advance(len(a.buf) - trimKeep)
	}
}
