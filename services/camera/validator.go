package camera

import (
	"bytes"
	"strings"
)

// jpegSOI is the JPEG start-of-image marker every real frame begins with.
var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

const (
	// minPlausibleFrame is the size heuristic used when the signature is
	// inconclusive: shorter buffers are rejected as error responses.
	minPlausibleFrame = 1000

	// htmlSniffWindow bounds the prefix inspected for markup markers.
	htmlSniffWindow = 15
)

// IsValidFrame classifies a byte buffer as a plausible JPEG frame versus
// an error page or garbage. ESP32-CAM firmware happily answers 200 OK
// with an HTML error body, so the Content-Type header is advisory only
// and correctness rests on this byte-signature check.
//
// Pure and total: no I/O, never panics, empty input returns false.
func IsValidFrame(b []byte) bool {
	if bytes.HasPrefix(b, jpegSOI) {
		return true
	}

	n := len(b)
	if n > htmlSniffWindow {
		n = htmlSniffWindow
	}
	head := strings.ToLower(string(b[:n]))
	if strings.Contains(head, "<!doctype") ||
		strings.Contains(head, "<html") ||
		strings.Contains(head, "<?xml") {
		return false
	}

	return len(b) > minPlausibleFrame
}
