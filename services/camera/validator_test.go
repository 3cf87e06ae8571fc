package camera

import (
	"bytes"
	"testing"
)

func jpegPayload(n int) []byte {
	b := make([]byte, n)
	copy(b, jpegSOI)
	if n >= 5 {
		b[len(b)-2] = 0xFF
		b[len(b)-1] = 0xD9
	}
	return b
}

func TestIsValidFrame_JPEGSignature(t *testing.T) {
	if !IsValidFrame(jpegPayload(1003)) {
		t.Error("buffer with SOI marker should be accepted")
	}
	// Signature wins even for tiny buffers.
	if !IsValidFrame([]byte{0xFF, 0xD8, 0xFF}) {
		t.Error("bare SOI marker should be accepted")
	}
}

func TestIsValidFrame_RejectsMarkup(t *testing.T) {
	pad := bytes.Repeat([]byte(" "), 2000)
	cases := []struct {
		name string
		body []byte
	}{
		{"doctype", append([]byte("<!DOCTYPE html><html><body>404</body></html>"), pad...)},
		{"html", append([]byte("<html><head></head>"), pad...)},
		{"html upper", append([]byte("<HTML>error"), pad...)},
		{"xml", append([]byte(`<?xml version="1.0"?>`), pad...)},
	}
	for _, tc := range cases {
		if IsValidFrame(tc.body) {
			t.Errorf("%s: markup error page should be rejected even above the size heuristic", tc.name)
		}
	}
}

func TestIsValidFrame_SizeHeuristic(t *testing.T) {
	// No signature, no markup: size decides.
	big := bytes.Repeat([]byte{0x42}, minPlausibleFrame+1)
	if !IsValidFrame(big) {
		t.Errorf("unmarked buffer of %d bytes should pass the size heuristic", len(big))
	}
	small := bytes.Repeat([]byte{0x42}, minPlausibleFrame)
	if IsValidFrame(small) {
		t.Errorf("unmarked buffer of %d bytes should fail the size heuristic", len(small))
	}
}

func TestIsValidFrame_ShortAndEmpty(t *testing.T) {
	for _, b := range [][]byte{nil, {}, {0x00}, {0x00, 0x01, 0x02}} {
		if IsValidFrame(b) {
			t.Errorf("short buffer %v should be rejected", b)
		}
	}
}

func TestIsValidFrame_Deterministic(t *testing.T) {
	inputs := [][]byte{
		nil,
		jpegPayload(1200),
		[]byte("<html>"),
		bytes.Repeat([]byte{0x07}, 5000),
	}
	for _, in := range inputs {
		first := IsValidFrame(in)
		for i := 0; i < 3; i++ {
			if IsValidFrame(in) != first {
				t.Fatalf("IsValidFrame is not a pure function of its input")
			}
		}
	}
}
