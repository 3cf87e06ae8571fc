package camera

import (
	"strings"

	"face-attendance/models"
)

// probeSegments is the fixed priority order of snapshot paths tried
// against a camera of unknown firmware. The empty segment is the bare
// configured URL itself.
var probeSegments = []string{"capture", "", "jpg", "camera/snapshot"}

// vendorSegments are firmware-specific snapshot paths appended after the
// standard ones.
var vendorSegments = []string{"cam-hi.jpg", "cam-lo.jpg", "cam.jpg", "snapshot.jpg"}

// EndpointProber derives the ordered candidate URLs for one configured
// camera base address. Stateless and deterministic: the same base URL
// always yields the same ordered list.
type EndpointProber struct {
	extra []string // user-configured segments, tried last
}

// NewEndpointProber creates a prober with optional extra snapshot paths.
func NewEndpointProber(extra []string) *EndpointProber {
	return &EndpointProber{extra: extra}
}

// Candidates expands baseURL into the ordered endpoint list. Trailing
// slashes are normalized so "http://cam/" and "http://cam" derive the
// same set. Segments the base already contains (case-insensitively) are
// skipped, as are exact duplicates. An empty base is a configuration
// error, reported explicitly rather than as a silent empty list.
func (p *EndpointProber) Candidates(baseURL string) ([]models.EndpointCandidate, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNoCameraURL
	}

	base := strings.TrimRight(baseURL, "/")
	lowerBase := strings.ToLower(base)

	segments := make([]string, 0, len(probeSegments)+len(vendorSegments)+len(p.extra))
	segments = append(segments, probeSegments...)
	segments = append(segments, vendorSegments...)
	segments = append(segments, p.extra...)

	out := make([]models.EndpointCandidate, 0, len(segments))
	seen := make(map[string]bool, len(segments))
	for _, seg := range segments {
		url := base
		if seg != "" {
			if strings.Contains(lowerBase, strings.ToLower(seg)) {
				continue
			}
			url = base + "/" + seg
		}
		key := strings.ToLower(url)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, models.EndpointCandidate{URL: url, Rank: len(out)})
	}
	return out, nil
}
