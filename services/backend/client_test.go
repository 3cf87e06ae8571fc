package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"face-attendance/utils"
)

func testClient(url, token string) *Client {
	return NewClient(utils.BackendConfig{BaseURL: url, Token: token, TimeoutMs: 2000})
}

func TestRecognizeFrame_RequestShapeAndParsing(t *testing.T) {
	frame := append([]byte{0xFF, 0xD8, 0xFF}, bytes.Repeat([]byte{0x01}, 500)...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/recognize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if hint := r.FormValue("camera_url"); hint != "http://192.168.1.50" {
			t.Errorf("camera_url = %q", hint)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("file field image: %v", err)
		}
		defer file.Close()
		got, _ := io.ReadAll(file)
		if !bytes.Equal(got, frame) {
			t.Error("uploaded frame bytes differ from input")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "p1", "name": "Ada", "timestamp": "2026-08-26T09:00:00Z", "confidence": 0.93},
				{"id": "p2", "name": "Grace", "timestamp": "2026-08-26T09:00:01Z", "confidence": 0.41},
			},
		})
	}))
	defer srv.Close()

	results, err := testClient(srv.URL, "tok123").RecognizeFrame(context.Background(), frame, "http://192.168.1.50")
	if err != nil {
		t.Fatalf("RecognizeFrame: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ProfileID != "p1" || results[0].Name != "Ada" || results[0].Confidence != 0.93 {
		t.Errorf("first result parsed wrong: %+v", results[0])
	}
}

func TestRecognizeFrame_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "embedding service down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, "").RecognizeFrame(context.Background(), []byte{0xFF, 0xD8, 0xFF}, "")
	if err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestRegisterProfile_SendsNameAndPhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profiles" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if name := r.FormValue("name"); name != "Ada Lovelace" {
			t.Errorf("name = %q", name)
		}
		if n := len(r.MultipartForm.File["photos"]); n != 2 {
			t.Errorf("got %d photos, want 2", n)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "p9", "name": "Ada Lovelace", "photo_count": 2})
	}))
	defer srv.Close()

	p, err := testClient(srv.URL, "").RegisterProfile(context.Background(), "Ada Lovelace",
		[]byte{0xFF, 0xD8, 0xFF, 1}, []byte{0xFF, 0xD8, 0xFF, 2})
	if err != nil {
		t.Fatalf("RegisterProfile: %v", err)
	}
	if p.ID != "p9" || p.PhotoCount != 2 {
		t.Errorf("profile parsed wrong: %+v", p)
	}
}

func TestProfilesAndAttendanceLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/profiles":
			json.NewEncoder(w).Encode([]map[string]any{{"id": "p1", "name": "Ada"}})
		case "/api/attendance":
			if d := r.URL.Query().Get("date"); d != "2026-08-26" {
				t.Errorf("date = %q", d)
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "p1", "name": "Ada", "timestamp": "2026-08-26T09:00:00Z", "confidence": 0.93},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, "")
	profiles, err := c.Profiles(context.Background())
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "Ada" {
		t.Errorf("profiles parsed wrong: %+v", profiles)
	}

	log, err := c.AttendanceLog(context.Background(), "2026-08-26")
	if err != nil {
		t.Fatalf("AttendanceLog: %v", err)
	}
	if len(log) != 1 || log[0].ProfileID != "p1" {
		t.Errorf("attendance log parsed wrong: %+v", log)
	}
}
