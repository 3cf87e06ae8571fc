// Package facedetect is the boundary to on-device face detection. The
// scan loop only needs a yes/no answer — "does this frame hold a usable
// face?" — so the detector is an interface with cheap local heuristics
// as defaults; the real detection model lives behind the backend.
package facedetect

// Detector reports whether a frame contains a usable face.
type Detector interface {
	HasFace(jpeg []byte) bool
}

// PassThrough accepts every frame and lets the backend decide.
type PassThrough struct{}

func (PassThrough) HasFace([]byte) bool { return true }

// SizeHeuristic rejects frames below a minimum byte size: a heavily
// compressed near-empty scene almost never contains a recognisable face,
// and skipping it saves a backend round-trip.
type SizeHeuristic struct {
	MinBytes int
}

func (h SizeHeuristic) HasFace(jpeg []byte) bool {
	min := h.MinBytes
	if min <= 0 {
		min = 8 << 10
	}
	return len(jpeg) >= min
}

// FromName maps a configured detector name to an implementation.
// Unknown names select PassThrough.
func FromName(name string, minBytes int) Detector {
	if name == "size" {
		return SizeHeuristic{MinBytes: minBytes}
	}
	return PassThrough{}
}
