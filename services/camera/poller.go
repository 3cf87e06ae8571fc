package camera

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"face-attendance/utils"
)

// defaultPollInterval is the preview cadence when none is configured.
const defaultPollInterval = 750 * time.Millisecond

// PreviewPoller drives SnapshotFetcher on a fixed interval to maintain a
// live preview. One immediate fetch on start (fast first paint), then a
// repeating tick. All fetches run on a single goroutine, so ticks never
// overlap: if a fetch outlasts the interval the ticker coalesces and the
// late ticks are skipped rather than queued against the camera.
//
// Fetch failures are reported through onError but never stop the loop;
// only Stop ends it. After Stop returns no callback fires again, even
// for a fetch that was in flight at that moment.
type PreviewPoller struct {
	fetcher  *SnapshotFetcher
	interval time.Duration
	onFrame  func(jpeg []byte, endpoint string)
	onError  func(error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	frames   uint64
	failures uint64
}

// NewPreviewPoller wires a poller around an existing fetcher. A
// non-positive interval selects the 750 ms default. Either callback may
// be nil.
func NewPreviewPoller(fetcher *SnapshotFetcher, interval time.Duration,
	onFrame func([]byte, string), onError func(error)) *PreviewPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &PreviewPoller{
		fetcher:  fetcher,
		interval: interval,
		onFrame:  onFrame,
		onError:  onError,
	}
}

// Start launches the polling goroutine. Calling Start on a running
// poller is a no-op; two concurrent tickers against one camera is
// exactly the defect this guard exists for.
func (p *PreviewPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		utils.L().Warn("preview poller already running, ignoring duplicate start")
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	go p.run(ctx, p.stopCh)
	utils.L().Info("preview poller started (interval=%s)", p.interval)
}

// Stop cancels the ticker deterministically. Idempotent; safe to call
// while a fetch is in flight — that fetch's result is discarded on
// arrival.
func (p *PreviewPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
	utils.L().Info("preview poller stopped (frames=%d, failures=%d)",
		atomic.LoadUint64(&p.frames), atomic.LoadUint64(&p.failures))
}

// Stats returns (delivered frames, failed ticks) atomically.
func (p *PreviewPoller) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&p.frames), atomic.LoadUint64(&p.failures)
}

func (p *PreviewPoller) run(ctx context.Context, stop <-chan struct{}) {
	p.tick(ctx, stop)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, stop)
		}
	}
}

func (p *PreviewPoller) tick(ctx context.Context, stop <-chan struct{}) {
	jpeg, endpoint, err := p.fetcher.FetchOnce(ctx)

	// The session may have been torn down while the fetch was in
	// flight; its result must not leak through the callbacks.
	select {
	case <-stop:
		return
	case <-ctx.Done():
		return
	default:
	}

	if err != nil {
		atomic.AddUint64(&p.failures, 1)
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	atomic.AddUint64(&p.frames, 1)
	if p.onFrame != nil {
		p.onFrame(jpeg, endpoint)
	}
}
