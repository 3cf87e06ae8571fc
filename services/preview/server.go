// Package preview serves the local live view of the camera session:
// a single-shot snapshot, an MJPEG re-serve, and a websocket frame push.
// It is a read-only consumer of the acquisition session's latest frame.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"face-attendance/models"
	"face-attendance/services/camera"
	"face-attendance/utils"
)

// FrameSource is the slice of the acquisition session the server needs.
type FrameSource interface {
	Frame() *models.FrameBuffer
	Mode() camera.Mode
	LastError() error
}

// Server exposes the preview endpoints over HTTP.
type Server struct {
	src      FrameSource
	srv      *http.Server
	interval time.Duration
	upgrader websocket.Upgrader
}

// New builds a preview server on the given port. interval is the frame
// push cadence for /stream and /ws/preview, normally the camera poll
// interval.
func New(port int, src FrameSource, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 750 * time.Millisecond
	}
	s := &Server{
		src:      src,
		interval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/snapshot.jpg", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/ws/preview", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	return s
}

// Start runs the listener in the background.
func (s *Server) Start() {
	go func() {
		utils.L().Info("preview server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			utils.L().Error("preview server: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		utils.L().Error("preview server shutdown: %v", err)
	}
}

// handleSnapshot serves the latest frame as a plain JPEG.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	fb := s.src.Frame()
	if fb == nil {
		http.Error(w, "no frame available yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprint(len(fb.JPEG)))
	w.Write(fb.JPEG)
}

// handleStream re-serves frames as multipart/x-mixed-replace so any
// browser can show the live view.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fb := s.src.Frame()
			if fb == nil || fb.SeqNo == lastSeq {
				continue
			}
			lastSeq = fb.SeqNo
			_, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(fb.JPEG))
			if err != nil {
				return
			}
			if _, err := w.Write(fb.JPEG); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleWS pushes each new frame as a binary websocket message.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.L().Warn("preview ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fb := s.src.Frame()
			if fb == nil || fb.SeqNo == lastSeq {
				continue
			}
			lastSeq = fb.SeqNo
			if err := conn.WriteMessage(websocket.BinaryMessage, fb.JPEG); err != nil {
				return
			}
		}
	}
}

// handleHealth reports the session state as JSON.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"mode": s.src.Mode().String(),
	}
	if fb := s.src.Frame(); fb != nil {
		status["frame_seq"] = fb.SeqNo
		status["frame_age_ms"] = time.Since(utils.NanoToTime(fb.TimestampNs)).Milliseconds()
		status["frame_bytes"] = fb.SizeBytes
	}
	if err := s.src.LastError(); err != nil {
		status["last_error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
