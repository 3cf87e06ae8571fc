package controller

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"face-attendance/models"
	"face-attendance/utils"
)

func testStorageConfig(t *testing.T) *utils.StorageConfig {
	t.Helper()
	cfg := &utils.StorageConfig{}
	cfg.Storage.BaseDir = t.TempDir()
	cfg.Storage.SessionPrefix = "test"
	cfg.Storage.CSV.WriteHeader = true
	cfg.Storage.CSV.FlushIntervalMs = 20
	cfg.Storage.Frames.Save = true
	cfg.Storage.Frames.SavePath = "frames"
	return cfg
}

func mark(profileID, name string) *models.AttendanceEvent {
	return &models.AttendanceEvent{
		RecordID:    "r-" + profileID,
		TimestampNs: utils.NowNano(),
		ProfileID:   profileID,
		Name:        name,
		Confidence:  0.9,
		Endpoint:    "http://cam/capture",
		FrameSeq:    1,
		Frame:       append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 200)...),
	}
}

func TestAttendanceController_WritesAndDeduplicates(t *testing.T) {
	ac, err := NewAttendanceController(testStorageConfig(t))
	if err != nil {
		t.Fatalf("NewAttendanceController: %v", err)
	}

	events := make(chan *models.AttendanceEvent, 8)
	scans := make(chan *models.ScanRecord, 8)
	ctx, cancel := context.WithCancel(context.Background())
	ac.Start(ctx, events, scans)

	events <- mark("p1", "Ada")
	events <- mark("p1", "Ada") // repeat recognition, must be dropped
	events <- mark("p2", "Grace")
	scans <- &models.ScanRecord{TimestampNs: utils.NowNano(), FrameSeq: 1, FaceFound: true, Matches: 2}

	deadline := time.Now().Add(2 * time.Second)
	for ac.RowsWritten() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	ac.Stop()

	if got := ac.RowsWritten(); got != 2 {
		t.Errorf("marks written = %d, want 2 (dedup per profile per session)", got)
	}

	data, err := os.ReadFile(filepath.Join(ac.SessionDir(), "attendance.csv"))
	if err != nil {
		t.Fatalf("read attendance.csv: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Ada") || !strings.Contains(content, "Grace") {
		t.Errorf("attendance.csv missing marks:\n%s", content)
	}
	if strings.Count(content, "Ada") != 1 {
		t.Errorf("duplicate profile mark written:\n%s", content)
	}

	if _, err := os.ReadFile(filepath.Join(ac.SessionDir(), "scans.csv")); err != nil {
		t.Errorf("read scans.csv: %v", err)
	}

	// Matched frames land under the frames subdir (written async).
	time.Sleep(100 * time.Millisecond)
	entries, err := os.ReadDir(filepath.Join(ac.SessionDir(), "frames"))
	if err != nil || len(entries) == 0 {
		t.Errorf("no matched frames saved (err=%v)", err)
	}
}

func TestAttendanceController_RefusesExistingSessionDir(t *testing.T) {
	cfg := testStorageConfig(t)
	cfg.Storage.Overwrite = false

	ac, err := NewAttendanceController(cfg)
	if err != nil {
		t.Fatalf("first controller: %v", err)
	}
	// Same prefix within the same second collides on the session name.
	if _, err := NewAttendanceController(cfg); err == nil {
		t.Skip("session names differed; timing-dependent collision did not occur")
	}
	_ = ac
}
