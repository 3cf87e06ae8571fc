package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"face-attendance/utils"
)

const (
	// defaultFetchTimeout bounds each per-candidate GET.
	defaultFetchTimeout = 5 * time.Second

	// minSnapshotBytes filters out trivially small 200 responses before
	// the frame validator even runs.
	minSnapshotBytes = 100

	// maxSnapshotBytes caps how much of a response body is read; an
	// ESP32-CAM frame is at most a few hundred KB.
	maxSnapshotBytes = 8 << 20
)

// SnapshotFetcher performs single-shot frame fetches against the ordered
// candidate endpoints of one camera. Exactly one attempt per candidate
// per call, short-circuiting on the first validated frame; worst-case
// latency is candidates × timeout. It owns no shared state beyond the
// reusable HTTP client — callers own all buffering.
type SnapshotFetcher struct {
	baseURL string
	prober  *EndpointProber
	client  *http.Client
}

// NewSnapshotFetcher wires a fetcher for one configured camera.
// A non-positive timeout selects the 5 s default.
func NewSnapshotFetcher(baseURL string, prober *EndpointProber, timeout time.Duration) *SnapshotFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &SnapshotFetcher{
		baseURL: baseURL,
		prober:  prober,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchOnce tries each candidate endpoint in order and returns the first
// validated JPEG along with the endpoint that produced it. Per-candidate
// failures (timeout, non-200, short body, failed validation) are
// swallowed; only the aggregate *FetchError surfaces when every
// candidate fails.
func (f *SnapshotFetcher) FetchOnce(ctx context.Context) ([]byte, string, error) {
	cands, err := f.prober.Candidates(f.baseURL)
	if err != nil {
		return nil, "", err
	}

	var lastErr error
	for _, c := range cands {
		body, err := f.tryCandidate(ctx, c.URL)
		if err != nil {
			lastErr = err
			utils.L().Debug("snapshot candidate %d failed: %v", c.Rank, err)
			continue
		}
		return body, c.URL, nil
	}
	return nil, "", &FetchError{Attempts: len(cands), LastErr: lastErr}
}

func (f *SnapshotFetcher) tryCandidate(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) <= minSnapshotBytes {
		return nil, fmt.Errorf("get %s: body too small (%d bytes)", url, len(body))
	}
	if !IsValidFrame(body) {
		return nil, fmt.Errorf("get %s: response is not a JPEG frame", url)
	}
	return body, nil
}
