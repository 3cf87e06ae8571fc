package models

// ScanRecord summarises one pass of the scan loop over the latest frame,
// whether or not it produced a match. One row per scanned frame.
type ScanRecord struct {
	TimestampNs int64  `json:"timestamp_ns"`
	FrameSeq    uint64 `json:"frame_seq"`
	Endpoint    string `json:"endpoint"`
	SizeBytes   int    `json:"size_bytes"`
	FaceFound   bool   `json:"face_found"`
	Matches     int    `json:"matches"`
	Error       string `json:"error,omitempty"`
}

// CSVHeader returns the ordered column names for the scans CSV.
func (ScanRecord) CSVHeader() []string {
	return []string{
		"timestamp_ns", "frame_seq", "endpoint", "size_bytes",
		"face_found", "matches", "error",
	}
}

// CSVRow serialises one scan into a CSV-compatible string slice.
func (s *ScanRecord) CSVRow() []string {
	return []string{
		itoa64(s.TimestampNs),
		utoa64(s.FrameSeq),
		s.Endpoint,
		itoa(s.SizeBytes),
		btoa(s.FaceFound),
		itoa(s.Matches),
		s.Error,
	}
}
