package models

// AttendanceEvent is one local attendance mark produced by the scan loop:
// a recognized profile above the confidence threshold, tied to the frame
// that matched it.
type AttendanceEvent struct {
	RecordID    string  `json:"record_id"` // UUID, assigned client-side
	TimestampNs int64   `json:"timestamp_ns"`
	ProfileID   string  `json:"profile_id"`
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Endpoint    string  `json:"endpoint"` // camera endpoint that produced the frame
	FrameSeq    uint64  `json:"frame_seq"`
	FramePath   string  `json:"frame_path"` // relative path where the matched frame was saved
	Frame       []byte  `json:"-"`          // raw JPEG – NOT written to CSV
}

// CSVHeader returns the ordered column names for the attendance CSV.
func (AttendanceEvent) CSVHeader() []string {
	return []string{
		"record_id", "timestamp_ns", "profile_id", "name",
		"confidence", "endpoint", "frame_seq", "frame_path",
	}
}

// CSVRow serialises one attendance mark into a CSV-compatible string slice.
func (e *AttendanceEvent) CSVRow() []string {
	return []string{
		e.RecordID,
		itoa64(e.TimestampNs),
		e.ProfileID,
		e.Name,
		ftoa(e.Confidence, 4),
		e.Endpoint,
		utoa64(e.FrameSeq),
		e.FramePath,
	}
}
