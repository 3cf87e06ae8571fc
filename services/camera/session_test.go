package camera

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"face-attendance/utils"
)

func sessionConfig(baseURL string) utils.CameraConfig {
	return utils.CameraConfig{
		BaseURL:        baseURL,
		FetchTimeoutMs: 2000,
		PollIntervalMs: 15,
	}
}

func TestSession_PollingDeliversLatestFrame(t *testing.T) {
	cam := newCountingCamera()
	cam.handlers["/capture"] = serveJPEG(t, jpegPayload(2048))
	srv := httptest.NewServer(cam)
	defer srv.Close()

	s := NewAcquisitionSession(sessionConfig(srv.URL))
	if err := s.Start(context.Background(), ModePolling); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return s.Frame() != nil }) {
		t.Fatal("no frame arrived")
	}
	if s.Mode() != ModePolling {
		t.Errorf("mode = %v, want polling", s.Mode())
	}

	fb := s.Frame()
	if fb.SizeBytes != 2048 || len(fb.JPEG) != 2048 {
		t.Errorf("frame size = %d/%d, want 2048", fb.SizeBytes, len(fb.JPEG))
	}
	if fb.Endpoint != srv.URL+"/capture" {
		t.Errorf("frame endpoint = %q", fb.Endpoint)
	}

	// Frame() hands out snapshots, never the live buffer.
	other := s.Frame()
	if &fb.JPEG[0] == &other.JPEG[0] {
		t.Error("Frame() returned the shared buffer instead of a copy")
	}
}

func TestSession_StopReleasesBufferAndIsIdempotent(t *testing.T) {
	cam := newCountingCamera()
	cam.handlers["/capture"] = serveJPEG(t, jpegPayload(2048))
	srv := httptest.NewServer(cam)
	defer srv.Close()

	s := NewAcquisitionSession(sessionConfig(srv.URL))
	if err := s.Start(context.Background(), ModePolling); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return s.Frame() != nil }) {
		t.Fatal("no frame arrived")
	}

	s.Stop()
	s.Stop() // must be safe to call twice

	if s.Mode() != ModeIdle {
		t.Errorf("mode after stop = %v, want idle", s.Mode())
	}
	if s.Frame() != nil {
		t.Error("latest frame must be released on stop")
	}

	// A stopped session stays quiet: no frame reappears.
	time.Sleep(80 * time.Millisecond)
	if s.Frame() != nil {
		t.Error("frame arrived after Stop")
	}
}

func TestSession_RestartAfterStop(t *testing.T) {
	cam := newCountingCamera()
	cam.handlers["/capture"] = serveJPEG(t, jpegPayload(2048))
	srv := httptest.NewServer(cam)
	defer srv.Close()

	s := NewAcquisitionSession(sessionConfig(srv.URL))
	ctx := context.Background()

	if err := s.Start(ctx, ModePolling); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	s.Stop()
	if err := s.Start(ctx, ModePolling); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	defer s.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return s.Frame() != nil }) {
		t.Fatal("restarted session produced no frame")
	}
}

func TestSession_StreamFailureFallsBackToPolling(t *testing.T) {
	cam := newCountingCamera()
	// No /stream handler: the MJPEG connect 404s immediately.
	cam.handlers["/capture"] = serveJPEG(t, jpegPayload(2048))
	srv := httptest.NewServer(cam)
	defer srv.Close()

	s := NewAcquisitionSession(sessionConfig(srv.URL))
	if err := s.Start(context.Background(), ModeStreaming); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return s.Mode() == ModePolling }) {
		t.Fatalf("session did not fall back to polling, mode=%v", s.Mode())
	}
	if !waitFor(t, 2*time.Second, func() bool { return s.Frame() != nil }) {
		t.Fatal("fallback polling produced no frame")
	}
}

func TestSession_StartWithoutURL(t *testing.T) {
	s := NewAcquisitionSession(utils.CameraConfig{})
	if err := s.Start(context.Background(), ModePolling); err != ErrNoCameraURL {
		t.Errorf("Start() = %v, want ErrNoCameraURL", err)
	}
}

func TestSession_FetchOnce(t *testing.T) {
	cam := newCountingCamera()
	cam.handlers["/capture"] = serveJPEG(t, jpegPayload(4096))
	srv := httptest.NewServer(cam)
	defer srv.Close()

	s := NewAcquisitionSession(sessionConfig(srv.URL))
	fb, err := s.FetchOnce(context.Background())
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	if fb.SizeBytes != 4096 {
		t.Errorf("frame size = %d, want 4096", fb.SizeBytes)
	}
	if fb.SeqNo == 0 {
		t.Error("fetched frame should carry a sequence number")
	}
}
