package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"face-attendance/models"
	"face-attendance/utils"
	"face-attendance/views"
)

// AttendanceController is the final pipeline stage. It reads attendance
// events and scan records and writes them to:
//   - attendance.csv  (one row per accepted mark, de-duplicated per profile)
//   - scans.csv       (one row per scanned frame)
//   - matched JPEG frames to disk (optional)
//
// Writing is asynchronous with periodic flush, ensuring zero
// back-pressure on the scan stage.
type AttendanceController struct {
	storageCfg *utils.StorageConfig
	sessionDir string

	attendanceWriter *views.CSVWriter
	scansWriter      *views.CSVWriter

	saveFrames bool
	framesDir  string

	seen map[string]bool // profile IDs already marked this session

	rowsWritten uint64
	wg          sync.WaitGroup
}

// NewAttendanceController sets up the session directory tree and CSV writers.
func NewAttendanceController(storageCfg *utils.StorageConfig) (*AttendanceController, error) {
	sess := utils.SessionName(storageCfg.Storage.SessionPrefix)
	sessionDir := filepath.Join(storageCfg.Storage.BaseDir, sess)

	if !storageCfg.Storage.Overwrite {
		if _, err := os.Stat(sessionDir); err == nil {
			return nil, fmt.Errorf("session dir %s already exists (overwrite=false)", sessionDir)
		}
	}
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	csvCfg := storageCfg.Storage.CSV
	bufSize := csvCfg.BufferSizeKB * 1024

	ac := &AttendanceController{
		storageCfg: storageCfg,
		sessionDir: sessionDir,
		seen:       make(map[string]bool),
	}

	var err error
	ac.attendanceWriter, err = views.NewCSVWriter(
		filepath.Join(sessionDir, "attendance.csv"), bufSize, csvCfg.WriteHeader,
		models.AttendanceEvent{}.CSVHeader(),
	)
	if err != nil {
		return nil, err
	}

	ac.scansWriter, err = views.NewCSVWriter(
		filepath.Join(sessionDir, "scans.csv"), bufSize, csvCfg.WriteHeader,
		models.ScanRecord{}.CSVHeader(),
	)
	if err != nil {
		return nil, err
	}

	if storageCfg.Storage.Frames.Save {
		savePath := storageCfg.Storage.Frames.SavePath
		if savePath == "" {
			savePath = "frames"
		}
		ac.framesDir = filepath.Join(sessionDir, savePath)
		if err := os.MkdirAll(ac.framesDir, 0755); err != nil {
			return nil, fmt.Errorf("create frames dir: %w", err)
		}
		ac.saveFrames = true
	}

	utils.L().Info("attendance controller ready  session=%s", sessionDir)
	return ac, nil
}

// Start begins consuming events and scan records, plus a periodic flush
// goroutine.
func (ac *AttendanceController) Start(ctx context.Context,
	events <-chan *models.AttendanceEvent, scans <-chan *models.ScanRecord) {

	// Periodic flusher
	ac.wg.Add(1)
	go func() {
		defer ac.wg.Done()
		flushMs := ac.storageCfg.Storage.CSV.FlushIntervalMs
		if flushMs <= 0 {
			flushMs = 100
		}
		ticker := time.NewTicker(time.Duration(flushMs) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				ac.flushAll()
				return
			case <-ticker.C:
				ac.flushAll()
			}
		}
	}()

	// Main writer goroutine
	ac.wg.Add(1)
	go func() {
		defer ac.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				ac.writeEvent(ev)
			case rec, ok := <-scans:
				if !ok {
					return
				}
				ac.scansWriter.WriteRow(rec.CSVRow())
			}
		}
	}()

	utils.L().Info("attendance controller started")
}

// writeEvent persists one attendance mark. Each profile is marked at
// most once per session; repeat recognitions are dropped here.
func (ac *AttendanceController) writeEvent(ev *models.AttendanceEvent) {
	if ac.seen[ev.ProfileID] {
		utils.L().Debug("attendance: %s already marked this session", ev.Name)
		return
	}
	ac.seen[ev.ProfileID] = true

	if ac.saveFrames && len(ev.Frame) > 0 {
		savePath := ac.storageCfg.Storage.Frames.SavePath
		if savePath == "" {
			savePath = "frames"
		}
		fname := utils.FrameFileName(ev.TimestampNs)
		ev.FramePath = filepath.Join(savePath, fname)
		fpath := filepath.Join(ac.framesDir, fname)
		go func(data []byte, path string) {
			if err := os.WriteFile(path, data, 0644); err != nil {
				utils.L().Error("save frame: %v", err)
			}
		}(ev.Frame, fpath)
	}

	ac.attendanceWriter.WriteRow(ev.CSVRow())
	atomic.AddUint64(&ac.rowsWritten, 1)
	utils.L().Info("attendance: marked %s (confidence=%.2f)", ev.Name, ev.Confidence)
}

func (ac *AttendanceController) flushAll() {
	ac.attendanceWriter.Flush()
	ac.scansWriter.Flush()
}

// Stop waits for the writer goroutines, then flushes and closes every CSV.
func (ac *AttendanceController) Stop() {
	ac.wg.Wait()
	ac.flushAll()
	ac.attendanceWriter.Close()
	ac.scansWriter.Close()

	rows := atomic.LoadUint64(&ac.rowsWritten)
	utils.L().Info("attendance controller stopped  (marks=%d, session=%s)", rows, ac.sessionDir)
}

// SessionDir returns the path to the active session directory.
func (ac *AttendanceController) SessionDir() string {
	return ac.sessionDir
}

// RowsWritten returns the number of attendance marks persisted.
func (ac *AttendanceController) RowsWritten() uint64 {
	return atomic.LoadUint64(&ac.rowsWritten)
}
