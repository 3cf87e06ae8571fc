package models

// RecognitionResult is one recognized-profile record returned by the
// backend for an uploaded frame.
type RecognitionResult struct {
	ProfileID  string  `json:"id"`
	Name       string  `json:"name"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// Profile is a registered person as stored by the backend.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PhotoCount int    `json:"photo_count"`
	CreatedAt  string `json:"created_at"`
}

// AttendanceEntry is one row of the backend's attendance log.
type AttendanceEntry struct {
	ProfileID  string  `json:"id"`
	Name       string  `json:"name"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}
