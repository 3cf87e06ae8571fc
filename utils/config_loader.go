package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ─── Camera / scan configs ──────────────────────────────────────────────

type CameraConfig struct {
	BaseURL            string   `yaml:"base_url"`
	FetchTimeoutMs     int      `yaml:"fetch_timeout_ms"` // per-candidate GET timeout, default 5000
	PollIntervalMs     int      `yaml:"poll_interval_ms"` // preview poll cadence, default 750
	Streaming          bool     `yaml:"streaming"`        // try MJPEG first, fall back to polling
	StreamPath         string   `yaml:"stream_path"`      // default "stream"
	ExtraSnapshotPaths []string `yaml:"extra_snapshot_paths"`
}

type ScanConfig struct {
	IntervalMs    int     `yaml:"interval_ms"`      // recognize cadence, default 1500
	MinConfidence float64 `yaml:"min_confidence"`   // results below this are ignored
	MaxFrameAgeMs int     `yaml:"max_frame_age_ms"` // stale frames are skipped, default 3000
	Detector      string  `yaml:"detector"`         // "none" or "size"
	MinFaceBytes  int     `yaml:"min_face_bytes"`   // threshold for the "size" detector
}

type BackendConfig struct {
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"` // optional bearer token
	TimeoutMs int    `yaml:"timeout_ms"`
}

type PreviewConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// AppConfig is the top-level structure for camera.yaml.
type AppConfig struct {
	Camera  CameraConfig  `yaml:"camera"`
	Scan    ScanConfig    `yaml:"scan"`
	Backend BackendConfig `yaml:"backend"`
	Preview PreviewConfig `yaml:"preview"`
}

// ─── Storage configs ────────────────────────────────────────────────────

type CSVStorageConfig struct {
	FlushIntervalMs int  `yaml:"flush_interval_ms"`
	BufferSizeKB    int  `yaml:"buffer_size_kb"`
	WriteHeader     bool `yaml:"write_header"`
}

type FrameStorageConfig struct {
	Save     bool   `yaml:"save"`      // persist matched frames as JPEGs
	SavePath string `yaml:"save_path"` // subdir under the session dir
}

type StorageConfig struct {
	Storage struct {
		BaseDir       string             `yaml:"base_dir"`
		SessionPrefix string             `yaml:"session_prefix"`
		CSV           CSVStorageConfig   `yaml:"csv"`
		Frames        FrameStorageConfig `yaml:"frames"`
		Overwrite     bool               `yaml:"overwrite"`
	} `yaml:"storage"`
}

// ─── Loaders ────────────────────────────────────────────────────────────

// LoadAppConfig reads and parses camera.yaml.
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read app config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse app config: %w", err)
	}
	return &cfg, nil
}

// LoadStorageConfig reads and parses storage.yaml.
func LoadStorageConfig(path string) (*StorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storage config: %w", err)
	}
	var cfg StorageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse storage config: %w", err)
	}
	return &cfg, nil
}
