package controller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"face-attendance/models"
	"face-attendance/services/backend"
	"face-attendance/services/facedetect"
	"face-attendance/utils"
)

const (
	defaultScanIntervalMs = 1500
	defaultMaxFrameAgeMs  = 3000
)

// ScanController runs the recognition loop: on a fixed cadence it
// snapshots the session's latest frame, gates it through the face
// detector, uploads it to the backend, and emits one AttendanceEvent per
// accepted match. Output channels use non-blocking sends so a slow
// recorder can never back-pressure the scan cadence.
type ScanController struct {
	cfg      utils.ScanConfig
	capture  *CaptureController
	detector facedetect.Detector
	client   *backend.Client

	Out   chan *models.AttendanceEvent // attendance marks
	Scans chan *models.ScanRecord      // one record per scanned frame

	lastSeq uint64
	scans   uint64
	matches uint64
	dropped uint64
}

// NewScanController wires the scan stage between capture and recording.
func NewScanController(cfg utils.ScanConfig, capture *CaptureController,
	detector facedetect.Detector, client *backend.Client) *ScanController {
	return &ScanController{
		cfg:      cfg,
		capture:  capture,
		detector: detector,
		client:   client,
		Out:      make(chan *models.AttendanceEvent, 64),
		Scans:    make(chan *models.ScanRecord, 256),
	}
}

// Start launches the scan goroutine.
func (sc *ScanController) Start(ctx context.Context) {
	go sc.run(ctx)
	utils.L().Info("scan controller started (interval=%dms, min_confidence=%.2f)",
		sc.intervalMs(), sc.cfg.MinConfidence)
}

// Stats returns (scans performed, matches emitted) atomically.
func (sc *ScanController) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&sc.scans), atomic.LoadUint64(&sc.matches)
}

func (sc *ScanController) intervalMs() int {
	if sc.cfg.IntervalMs > 0 {
		return sc.cfg.IntervalMs
	}
	return defaultScanIntervalMs
}

func (sc *ScanController) run(ctx context.Context) {
	defer close(sc.Out)
	defer close(sc.Scans)

	ticker := time.NewTicker(time.Duration(sc.intervalMs()) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.L().Info("scan controller stopped (scans=%d, matches=%d, dropped=%d)",
				atomic.LoadUint64(&sc.scans), atomic.LoadUint64(&sc.matches),
				atomic.LoadUint64(&sc.dropped))
			return
		case <-ticker.C:
			sc.scanOnce(ctx)
		}
	}
}

// scanOnce processes the latest frame if there is a fresh one.
func (sc *ScanController) scanOnce(ctx context.Context) {
	fb := sc.capture.Frame()
	if fb == nil {
		return
	}
	if fb.SeqNo == sc.lastSeq {
		return // nothing new since the previous scan
	}

	maxAge := sc.cfg.MaxFrameAgeMs
	if maxAge <= 0 {
		maxAge = defaultMaxFrameAgeMs
	}
	if time.Since(utils.NanoToTime(fb.TimestampNs)) > time.Duration(maxAge)*time.Millisecond {
		utils.L().Debug("scan: skipping stale frame seq=%d", fb.SeqNo)
		return
	}

	sc.lastSeq = fb.SeqNo
	atomic.AddUint64(&sc.scans, 1)

	rec := &models.ScanRecord{
		TimestampNs: utils.NowNano(),
		FrameSeq:    fb.SeqNo,
		Endpoint:    fb.Endpoint,
		SizeBytes:   fb.SizeBytes,
	}

	if !sc.detector.HasFace(fb.JPEG) {
		sc.pushScan(rec)
		return
	}
	rec.FaceFound = true

	results, err := sc.client.RecognizeFrame(ctx, fb.JPEG, sc.capture.CameraURL())
	if err != nil {
		rec.Error = err.Error()
		utils.L().Warn("scan: recognize failed: %v", err)
		sc.pushScan(rec)
		return
	}

	for _, r := range results {
		if r.Confidence < sc.cfg.MinConfidence {
			continue
		}
		rec.Matches++
		atomic.AddUint64(&sc.matches, 1)

		ev := &models.AttendanceEvent{
			RecordID:    uuid.NewString(),
			TimestampNs: utils.NowNano(),
			ProfileID:   r.ProfileID,
			Name:        r.Name,
			Confidence:  r.Confidence,
			Endpoint:    fb.Endpoint,
			FrameSeq:    fb.SeqNo,
			Frame:       fb.JPEG,
		}
		// Non-blocking send: the recorder must never stall scanning.
		select {
		case sc.Out <- ev:
		default:
			atomic.AddUint64(&sc.dropped, 1)
			utils.L().Warn("scan: attendance channel full, dropping mark for %s", r.Name)
		}
	}
	sc.pushScan(rec)
}

func (sc *ScanController) pushScan(rec *models.ScanRecord) {
	select {
	case sc.Scans <- rec:
	default:
		atomic.AddUint64(&sc.dropped, 1)
	}
}
