package camera

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"face-attendance/utils"
)

const streamReadChunk = 4096

// StreamReader connects to the camera's MJPEG endpoint and pumps the
// response body through a StreamingFrameAssembler. It runs until the
// stream ends or errors, then reports a *StreamError so the owning
// session can fall back to snapshot polling.
type StreamReader struct {
	url    string
	client *http.Client
	asm    *StreamingFrameAssembler
}

// NewStreamReader derives the stream URL from the camera base address
// (default path "stream") and wires the assembler to emit. The HTTP
// client carries no overall timeout — the response is long-lived — but a
// bounded dial/header phase.
func NewStreamReader(baseURL, streamPath string, emit func([]byte)) *StreamReader {
	if streamPath == "" {
		streamPath = "stream"
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &StreamReader{
		url: base + "/" + streamPath,
		client: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: defaultFetchTimeout},
		},
		asm: NewStreamingFrameAssembler(emit),
	}
}

// Run blocks reading the stream until ctx is cancelled or the stream
// fails. A cancelled context returns ctx.Err(); every other exit path
// returns a *StreamError.
func (r *StreamReader) Run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return &StreamError{URL: r.url, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &StreamError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StreamError{URL: r.url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	// Advisory only; the assembler does its own framing either way.
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "multipart") {
		utils.L().Warn("stream %s content-type %q is not multipart, parsing anyway", r.url, ct)
	}

	utils.L().Info("stream connected: %s", r.url)
	start := time.Now()

	buf := make([]byte, streamReadChunk)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			r.asm.Write(buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			utils.L().Warn("stream %s ended after %s (frames=%d): %v",
				r.url, time.Since(start).Round(time.Millisecond), r.asm.FramesEmitted(), err)
			return &StreamError{URL: r.url, Err: err}
		}
	}
}
