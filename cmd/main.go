package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"face-attendance/controller"
	"face-attendance/services/backend"
	"face-attendance/services/camera"
	"face-attendance/services/facedetect"
	"face-attendance/services/preview"
	"face-attendance/utils"
)

func main() {
	// ── CLI flags ────────────────────────────────────────────────────
	configPath := flag.String("config", "config/camera.yaml", "path to camera.yaml")
	storagePath := flag.String("storage", "config/storage.yaml", "path to storage.yaml")
	logFile := flag.String("log", "", "optional log file path (stdout is always included)")
	logLevel := flag.String("level", "info", "minimum log level (debug|info|warn|error)")
	duration := flag.Int("duration", 0, "auto-stop after N seconds (0 = run until signal)")
	flag.Parse()

	// ── Logger ───────────────────────────────────────────────────────
	logger := utils.InitLogger(utils.ParseLevel(*logLevel), *logFile)
	defer logger.Close()

	utils.L().Info("═══════════════════════════════════════════════════")
	utils.L().Info("  Face-Attendance  ·  ESP32-CAM Scan Service")
	utils.L().Info("  GOMAXPROCS=%d  ·  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())
	utils.L().Info("═══════════════════════════════════════════════════")

	// ── Load configs ─────────────────────────────────────────────────
	appCfg, err := utils.LoadAppConfig(*configPath)
	if err != nil {
		utils.L().Fatal("load app config: %v", err)
	}
	storageCfg, err := utils.LoadStorageConfig(*storagePath)
	if err != nil {
		utils.L().Fatal("load storage config: %v", err)
	}

	// Resolve relative base_dir to absolute.
	if !filepath.IsAbs(storageCfg.Storage.BaseDir) {
		abs, _ := filepath.Abs(storageCfg.Storage.BaseDir)
		storageCfg.Storage.BaseDir = abs
	}

	// ── Context with OS signal cancellation ──────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *duration > 0 {
		var timerCancel context.CancelFunc
		ctx, timerCancel = context.WithTimeout(ctx, time.Duration(*duration)*time.Second)
		defer timerCancel()
		utils.L().Info("scanning will auto-stop after %ds", *duration)
	}

	// ── Pipeline assembly ────────────────────────────────────────────
	//
	//  AcquisitionSession  ──►  latest frame  ──►  ScanController
	//   (poll / stream)                                  │
	//                                         AttendanceEvent / ScanRecord chans
	//                                                    │
	//                                          AttendanceController
	//                                           │              │
	//                                     attendance.csv   scans.csv + frames

	// 1. Capture
	captureCtrl := controller.NewCaptureController(appCfg.Camera)
	if err := captureCtrl.Start(ctx); err != nil {
		if errors.Is(err, camera.ErrNoCameraURL) {
			utils.L().Fatal("no camera base_url configured — set camera.base_url in %s", *configPath)
		}
		utils.L().Fatal("start capture: %v", err)
	}

	// 2. Scan
	detector := facedetect.FromName(appCfg.Scan.Detector, appCfg.Scan.MinFaceBytes)
	client := backend.NewClient(appCfg.Backend)
	scanCtrl := controller.NewScanController(appCfg.Scan, captureCtrl, detector, client)
	scanCtrl.Start(ctx)

	// 3. Recording
	attendCtrl, err := controller.NewAttendanceController(storageCfg)
	if err != nil {
		utils.L().Fatal("init attendance controller: %v", err)
	}
	attendCtrl.Start(ctx, scanCtrl.Out, scanCtrl.Scans)

	// 4. Local preview (optional)
	var previewSrv *preview.Server
	if appCfg.Preview.Enabled {
		interval := time.Duration(appCfg.Camera.PollIntervalMs) * time.Millisecond
		previewSrv = preview.New(appCfg.Preview.Port, captureCtrl.Session(), interval)
		previewSrv.Start()
	}

	utils.L().Info("pipeline running — press Ctrl+C to stop")

	// ── Stats ticker ─────────────────────────────────────────────────
	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	// ── Main event loop ──────────────────────────────────────────────
	for {
		select {
		case sig := <-sigCh:
			utils.L().Info("received signal: %v — shutting down…", sig)
			cancel()
			goto shutdown

		case <-ctx.Done():
			goto shutdown

		case <-statsTicker.C:
			scans, matches := scanCtrl.Stats()
			utils.L().Info("── stats ─────────────────────────")
			captureCtrl.LogStats()
			utils.L().Info("  scans    performed=%d  matches=%d", scans, matches)
			utils.L().Info("  marks    written=%d", attendCtrl.RowsWritten())
			utils.L().Info("──────────────────────────────────")
		}
	}

shutdown:
	// Allow a brief drain period for in-flight data.
	utils.L().Info("draining pipeline…")
	time.Sleep(500 * time.Millisecond)

	if previewSrv != nil {
		previewSrv.Stop()
	}
	captureCtrl.Stop()
	attendCtrl.Stop()

	utils.L().Info("session saved to: %s", attendCtrl.SessionDir())
	utils.L().Info("total attendance marks: %d", attendCtrl.RowsWritten())

	fmt.Println("\n✓ Face-Attendance finished. Session at:", attendCtrl.SessionDir())
}
