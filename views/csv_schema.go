package views

// CSVSchema defines the column layout for each output CSV of a session.
// The actual header writing is handled by the model's CSVHeader() method;
// this is kept here as a human-readable reference and for validation.

// RecordType identifies an output file for schema lookups.
type RecordType int

const (
	RecordAttendance RecordType = iota
	RecordScan
	RecordFrame
)

var recordNames = map[RecordType]string{
	RecordAttendance: "attendance",
	RecordScan:       "scans",
	RecordFrame:      "frames",
}

func (r RecordType) String() string {
	if n, ok := recordNames[r]; ok {
		return n
	}
	return "unknown"
}

// SchemaColumns is the canonical column list per output file.
var SchemaColumns = map[RecordType][]string{
	RecordAttendance: {
		"record_id", "timestamp_ns", "profile_id", "name",
		"confidence", "endpoint", "frame_seq", "frame_path",
	},
	RecordScan: {
		"timestamp_ns", "frame_seq", "endpoint", "size_bytes",
		"face_found", "matches", "error",
	},
	RecordFrame: {
		"timestamp_ns", "seq_no", "endpoint", "width", "height",
		"size_bytes", "file_path",
	},
}
