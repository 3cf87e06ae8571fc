package models

import (
	"bytes"
	"image"

	_ "image/jpeg" // register decoder for DecodeConfig
)

// FrameBuffer holds the most recently accepted camera frame with its metadata.
// The raw JPEG bytes travel through the pipeline; CSV only stores the metadata row.
type FrameBuffer struct {
	TimestampNs int64  `json:"timestamp_ns"` // nanosecond-precision receive time
	SeqNo       uint64 `json:"seq_no"`
	Endpoint    string `json:"endpoint"` // candidate URL that produced the frame
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SizeBytes   int    `json:"size_bytes"`
	FilePath    string `json:"file_path"` // relative path where the frame JPEG was saved
	JPEG        []byte `json:"-"`         // raw image data – NOT written to CSV
}

// FillDimensions decodes just the JPEG header to populate Width/Height.
// Frames that fail to decode keep zero dimensions; the frame itself is
// still usable (the validator already accepted it).
func (f *FrameBuffer) FillDimensions() {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.JPEG))
	if err != nil {
		return
	}
	f.Width = cfg.Width
	f.Height = cfg.Height
}

// Clone returns a deep copy so consumers never observe a buffer that the
// acquisition session is about to overwrite.
func (f *FrameBuffer) Clone() *FrameBuffer {
	if f == nil {
		return nil
	}
	c := *f
	c.JPEG = make([]byte, len(f.JPEG))
	copy(c.JPEG, f.JPEG)
	return &c
}

// CSVHeader returns the ordered column names for the frames CSV.
func (FrameBuffer) CSVHeader() []string {
	return []string{
		"timestamp_ns", "seq_no", "endpoint", "width", "height",
		"size_bytes", "file_path",
	}
}

// CSVRow serialises one frame into a CSV-compatible string slice.
func (f *FrameBuffer) CSVRow() []string {
	return []string{
		itoa64(f.TimestampNs),
		utoa64(f.SeqNo),
		f.Endpoint,
		itoa(f.Width),
		itoa(f.Height),
		itoa(f.SizeBytes),
		f.FilePath,
	}
}
