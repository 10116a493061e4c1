// Package config loads handpet settings from TOML, YAML or JSON files and
// the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/handpet/internal/app"
	"github.com/ayusman/handpet/internal/capture"
	"github.com/ayusman/handpet/internal/detector"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Environment variables read by ApplyEnvOverrides.
const (
	EnvAddr   = "HANDPET_ADDR"
	EnvCamera = "HANDPET_CAMERA"
	EnvDB     = "HANDPET_DB"
)

// Config is the complete application configuration.
type Config struct {
	Camera   capture.Config       `toml:"camera" yaml:"camera" json:"camera"`
	Motion   capture.MotionConfig `toml:"motion" yaml:"motion" json:"motion"`
	Detector detector.Config      `toml:"detector" yaml:"detector" json:"detector"`
	Pipeline PipelineConfig       `toml:"pipeline" yaml:"pipeline" json:"pipeline"`
	Server   ServerConfig         `toml:"server" yaml:"server" json:"server"`
	Store    StoreConfig          `toml:"store" yaml:"store" json:"store"`
	Tray     TrayConfig           `toml:"tray" yaml:"tray" json:"tray"`
	Plugins  PluginsConfig        `toml:"plugins" yaml:"plugins" json:"plugins"`
	Tuning   Tuning               `toml:"tuning" yaml:"tuning" json:"tuning"`
}

// PipelineConfig controls capture pacing.
type PipelineConfig struct {
	IdleFPS     int `toml:"idle_fps" yaml:"idle_fps" json:"idle_fps"`
	ActiveFPS   int `toml:"active_fps" yaml:"active_fps" json:"active_fps"`
	IdleAfterMS int `toml:"idle_after_ms" yaml:"idle_after_ms" json:"idle_after_ms"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr" json:"addr"`
	// StaticDir is served at /. Empty means look for a web directory.
	StaticDir string `toml:"static_dir" yaml:"static_dir" json:"static_dir"`
}

// StoreConfig locates the settings database.
type StoreConfig struct {
	Path string `toml:"path" yaml:"path" json:"path"`
}

// TrayConfig controls the system tray icon.
type TrayConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled" json:"enabled"`
}

// PluginsConfig locates event hook plugins.
type PluginsConfig struct {
	Dir       string `toml:"dir" yaml:"dir" json:"dir"`
	TimeoutMS int    `toml:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Camera:   capture.DefaultConfig(),
		Motion:   capture.DefaultMotionConfig(),
		Detector: detector.DefaultConfig(),
		Pipeline: PipelineConfig{
			IdleFPS:     app.IdleFPS,
			ActiveFPS:   app.ActiveFPS,
			IdleAfterMS: int(app.IdleAfter / time.Millisecond),
		},
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: filepath.Join(DataDir(), "handpet.db")},
		Plugins: PluginsConfig{
			Dir:       filepath.Join(DataDir(), "plugins"),
			TimeoutMS: 5000,
		},
		Tuning: DefaultTuning(),
	}
}

// DataDir returns ~/.handpet, or .handpet when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handpet"
	}
	return filepath.Join(home, ".handpet")
}

// ApplyEnvOverrides replaces settings with any HANDPET_* variables that are set.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvCamera); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Ignoring %s=%q: not a device number", EnvCamera, v)
		} else {
			c.Camera.DeviceID = id
		}
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Store.Path = v
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Camera.DeviceID < 0 {
		return fmt.Errorf("%w: camera.device must not be negative", ErrInvalid)
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 || c.Camera.FPS < 0 {
		return fmt.Errorf("%w: camera width, height and fps must not be negative", ErrInvalid)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("%w: detector.max_hands must be at least 1", ErrInvalid)
	}
	if !unit(c.Detector.MinConfidence) || !unit(c.Detector.MinTrackingConf) {
		return fmt.Errorf("%w: detector confidences must be within [0, 1]", ErrInvalid)
	}
	if c.Pipeline.IdleFPS < 1 || c.Pipeline.ActiveFPS < 1 {
		return fmt.Errorf("%w: pipeline fps must be at least 1", ErrInvalid)
	}
	if c.Pipeline.IdleAfterMS <= 0 {
		return fmt.Errorf("%w: pipeline.idle_after_ms must be positive", ErrInvalid)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", ErrInvalid)
	}
	if c.Plugins.TimeoutMS <= 0 {
		return fmt.Errorf("%w: plugins.timeout_ms must be positive", ErrInvalid)
	}
	return c.Tuning.Validate()
}

// App converts the configuration into pipeline settings.
func (c *Config) App() app.Config {
	ac := app.DefaultConfig()
	ac.Camera = c.Camera
	ac.Motion = c.Motion
	ac.Detector = c.Detector
	ac.Interaction = c.Tuning.Interaction()
	ac.IdleFPS = c.Pipeline.IdleFPS
	ac.ActiveFPS = c.Pipeline.ActiveFPS
	ac.IdleAfter = time.Duration(c.Pipeline.IdleAfterMS) * time.Millisecond
	return ac
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
