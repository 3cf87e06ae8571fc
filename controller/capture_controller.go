package controller

import (
	"context"

	"face-attendance/models"
	"face-attendance/services/camera"
	"face-attendance/utils"
)

// CaptureController owns the lifecycle of the camera acquisition
// session. Downstream controllers and the preview server read frames
// through it; nobody else touches timers or streams directly.
type CaptureController struct {
	cfg     utils.CameraConfig
	session *camera.AcquisitionSession
}

// NewCaptureController builds the acquisition stack from configuration.
func NewCaptureController(cfg utils.CameraConfig) *CaptureController {
	return &CaptureController{
		cfg:     cfg,
		session: camera.NewAcquisitionSession(cfg),
	}
}

// Start begins acquisition: streaming first when configured, otherwise
// polling. Returns ErrNoCameraURL when the camera address is missing.
func (cc *CaptureController) Start(ctx context.Context) error {
	mode := camera.ModePolling
	if cc.cfg.Streaming {
		mode = camera.ModeStreaming
	}
	return cc.session.Start(ctx, mode)
}

// Stop tears the session down. Idempotent.
func (cc *CaptureController) Stop() {
	cc.session.Stop()
}

// Session exposes the acquisition session to read-only consumers.
func (cc *CaptureController) Session() *camera.AcquisitionSession {
	return cc.session
}

// Frame returns a copy of the latest frame, or nil.
func (cc *CaptureController) Frame() *models.FrameBuffer {
	return cc.session.Frame()
}

// CameraURL returns the configured camera base address.
func (cc *CaptureController) CameraURL() string {
	return cc.cfg.BaseURL
}

// LogStats prints the current acquisition counters.
func (cc *CaptureController) LogStats() {
	frames, failures := cc.session.Stats()
	utils.L().Info("  camera   mode=%-9s frames=%d  failures=%d",
		cc.session.Mode(), frames, failures)
	if err := cc.session.LastError(); err != nil {
		utils.L().Info("  camera   last_error=%v", err)
	}
}
