package models

// EndpointCandidate is one URL guessed to serve a camera snapshot.
// Candidates are derived fresh per fetch attempt and never persisted.
type EndpointCandidate struct {
	URL  string
	Rank int // position in the probe order, 0 = tried first
}
