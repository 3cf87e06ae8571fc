package camera

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"face-attendance/models"
	"face-attendance/utils"
)

// Mode identifies the active acquisition strategy.
type Mode int

const (
	ModeIdle Mode = iota
	ModePolling
	ModeStreaming
)

var modeNames = [...]string{"idle", "polling", "streaming"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// AcquisitionSession is the single owner of one camera's frame
// acquisition: it runs either the preview poller or the MJPEG stream
// reader (never both) and holds the latest accepted frame. Starting a
// session tears down any previous run first; Stop is idempotent and
// releases the frame buffer.
//
// Streaming is best-effort: when the stream ends or errors the session
// downgrades itself to polling on the same context.
type AcquisitionSession struct {
	id      string
	baseURL string

	fetcher *SnapshotFetcher
	poller  *PreviewPoller
	stream  *StreamReader

	mu      sync.RWMutex
	mode    Mode
	latest  *models.FrameBuffer
	lastErr error
	cancel  context.CancelFunc

	seq      uint64
	frames   uint64
	failures uint64
}

// NewAcquisitionSession builds the camera stack (prober → fetcher →
// poller / stream reader) from configuration. The configured base URL is
// read once here and stays fixed for the session's lifetime; changing it
// requires a new session.
func NewAcquisitionSession(cfg utils.CameraConfig) *AcquisitionSession {
	s := &AcquisitionSession{
		id:      uuid.NewString(),
		baseURL: strings.TrimSpace(cfg.BaseURL),
	}

	prober := NewEndpointProber(cfg.ExtraSnapshotPaths)
	s.fetcher = NewSnapshotFetcher(s.baseURL, prober,
		time.Duration(cfg.FetchTimeoutMs)*time.Millisecond)
	s.poller = NewPreviewPoller(s.fetcher,
		time.Duration(cfg.PollIntervalMs)*time.Millisecond,
		s.acceptFrame, s.noteError)

	streamURL := strings.TrimRight(s.baseURL, "/") + "/" + firstNonEmpty(cfg.StreamPath, "stream")
	s.stream = NewStreamReader(s.baseURL, cfg.StreamPath, func(frame []byte) {
		// The assembler emits anything between boundaries; gate it
		// through the same validator as snapshots.
		if IsValidFrame(frame) {
			s.acceptFrame(frame, streamURL)
		}
	})
	return s
}

// ID returns the session's unique identifier.
func (s *AcquisitionSession) ID() string { return s.id }

// Start switches the session into the requested mode. Any previous run
// is torn down first so two acquisition loops can never coexist.
func (s *AcquisitionSession) Start(ctx context.Context, mode Mode) error {
	if s.baseURL == "" {
		return ErrNoCameraURL
	}
	s.Stop()

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.mode = mode
	s.cancel = cancel
	s.mu.Unlock()

	switch mode {
	case ModePolling:
		s.poller.Start(runCtx)
	case ModeStreaming:
		go s.runStream(runCtx)
	case ModeIdle:
		cancel()
	}
	utils.L().Info("acquisition session %s started (mode=%s, camera=%s)", s.id, mode, s.baseURL)
	return nil
}

// Stop tears the session down: cancels the active mode, waits for no
// one, and releases the latest frame. Idempotent.
func (s *AcquisitionSession) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	wasActive := s.mode != ModeIdle
	s.mode = ModeIdle
	s.latest = nil
	s.mu.Unlock()

	s.poller.Stop()
	if cancel != nil {
		cancel()
	}
	if wasActive {
		utils.L().Info("acquisition session %s stopped (frames=%d, failures=%d)",
			s.id, atomic.LoadUint64(&s.frames), atomic.LoadUint64(&s.failures))
	}
}

// Frame returns a copy of the most recently accepted frame, or nil when
// none has arrived yet. Consumers never observe a partially written
// buffer.
func (s *AcquisitionSession) Frame() *models.FrameBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest.Clone()
}

// Mode reports the currently active acquisition mode.
func (s *AcquisitionSession) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// LastError returns the most recent acquisition error, cleared by the
// next accepted frame.
func (s *AcquisitionSession) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Stats returns (accepted frames, failed attempts) atomically.
func (s *AcquisitionSession) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&s.frames), atomic.LoadUint64(&s.failures)
}

// FetchOnce exposes a single-shot capture on the session's fetcher, for
// callers that need a frame outside the preview cadence.
func (s *AcquisitionSession) FetchOnce(ctx context.Context) (*models.FrameBuffer, error) {
	jpeg, endpoint, err := s.fetcher.FetchOnce(ctx)
	if err != nil {
		return nil, err
	}
	return s.newFrame(jpeg, endpoint), nil
}

// runStream drives the MJPEG reader and downgrades to polling when it
// fails. A cancelled context means the session was stopped; no fallback.
func (s *AcquisitionSession) runStream(ctx context.Context) {
	err := s.stream.Run(ctx)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.mode != ModeStreaming {
		s.mu.Unlock()
		return
	}
	s.mode = ModePolling
	s.lastErr = err
	s.mu.Unlock()

	utils.L().Warn("session %s: stream failed (%v), falling back to polling", s.id, err)
	s.poller.Start(ctx)
}

func (s *AcquisitionSession) newFrame(jpeg []byte, endpoint string) *models.FrameBuffer {
	fb := &models.FrameBuffer{
		TimestampNs: utils.NowNano(),
		SeqNo:       atomic.AddUint64(&s.seq, 1),
		Endpoint:    endpoint,
		SizeBytes:   len(jpeg),
		JPEG:        jpeg,
	}
	fb.FillDimensions()
	return fb
}

func (s *AcquisitionSession) acceptFrame(jpeg []byte, endpoint string) {
	fb := s.newFrame(jpeg, endpoint)
	s.mu.Lock()
	if s.mode == ModeIdle {
		// Stopped while this frame was in flight; discard it.
		s.mu.Unlock()
		return
	}
	s.latest = fb
	s.lastErr = nil
	s.mu.Unlock()
	atomic.AddUint64(&s.frames, 1)
}

func (s *AcquisitionSession) noteError(err error) {
	atomic.AddUint64(&s.failures, 1)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	utils.L().Debug("session %s: fetch failed: %v", s.id, err)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
