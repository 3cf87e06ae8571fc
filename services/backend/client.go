// Package backend is the HTTP client for the attendance backend: an
// opaque REST service that stores profiles, computes face embeddings and
// persists attendance. The client's only obligation is to move validated
// frames and form fields across the wire; all recognition logic lives on
// the server.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"face-attendance/models"
	"face-attendance/utils"
)

const defaultTimeout = 10 * time.Second

// Client talks to one backend instance. Safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client from configuration. A non-positive timeout
// selects the 10 s default.
func NewClient(cfg utils.BackendConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// RecognizeFrame uploads one captured frame for recognition. The frame
// travels as multipart file field "image"; cameraHint, when non-empty,
// is passed as form field "camera_url" so the backend can attribute the
// mark to a device. Returns the recognized-profile records.
func (c *Client) RecognizeFrame(ctx context.Context, jpeg []byte, cameraHint string) ([]models.RecognitionResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("build recognize form: %w", err)
	}
	if _, err := fw.Write(jpeg); err != nil {
		return nil, fmt.Errorf("build recognize form: %w", err)
	}
	if cameraHint != "" {
		if err := mw.WriteField("camera_url", cameraHint); err != nil {
			return nil, fmt.Errorf("build recognize form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build recognize form: %w", err)
	}

	var resp struct {
		Results []models.RecognitionResult `json:"results"`
	}
	if err := c.post(ctx, "/api/recognize", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// RegisterProfile creates a profile from a name plus one or more photos
// (repeated multipart file field "photos").
func (c *Client) RegisterProfile(ctx context.Context, name string, photos ...[]byte) (*models.Profile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("build register form: %w", err)
	}
	for i, photo := range photos {
		fw, err := mw.CreateFormFile("photos", fmt.Sprintf("photo_%d.jpg", i))
		if err != nil {
			return nil, fmt.Errorf("build register form: %w", err)
		}
		if _, err := fw.Write(photo); err != nil {
			return nil, fmt.Errorf("build register form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build register form: %w", err)
	}

	var p models.Profile
	if err := c.post(ctx, "/api/profiles", mw.FormDataContentType(), &body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Profiles lists every registered profile.
func (c *Client) Profiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	if err := c.get(ctx, "/api/profiles", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AttendanceLog fetches the backend's attendance rows for one day
// (YYYY-MM-DD); an empty date means today.
func (c *Client) AttendanceLog(ctx context.Context, date string) ([]models.AttendanceEntry, error) {
	path := "/api/attendance"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var out []models.AttendanceEntry
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── transport helpers ──────────────────────────────────────────────────

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("backend %s: %w", path, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("backend %s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend %s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
