package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handpet/internal/interaction"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, 480, cfg.Camera.Height)
	assert.Equal(t, 2, cfg.Detector.MaxHands)
	assert.Equal(t, 5, cfg.Pipeline.IdleFPS)
	assert.Equal(t, 15, cfg.Pipeline.ActiveFPS)
	assert.Equal(t, 2000, cfg.Pipeline.IdleAfterMS)
	assert.Equal(t, "handpet.db", filepath.Base(cfg.Store.Path))
	assert.False(t, cfg.Tray.Enabled)
	assert.Equal(t, "plugins", filepath.Base(cfg.Plugins.Dir))
	assert.Equal(t, 5000, cfg.Plugins.TimeoutMS)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Tuning, cfg.Tuning)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "handpet.toml",
			content: `
[server]
addr = ":9090"

[camera]
device = 1

[tuning]
feed_cooldown_ms = 900
pinch_ratio = 0.35
`,
		},
		{
			name: "yaml",
			file: "handpet.yaml",
			content: `
server:
  addr: ":9090"
camera:
  device: 1
tuning:
  feed_cooldown_ms: 900
  pinch_ratio: 0.35
`,
		},
		{
			name: "json",
			file: "handpet.json",
			content: `{
  "server": {"addr": ":9090"},
  "camera": {"device": 1},
  "tuning": {"feed_cooldown_ms": 900, "pinch_ratio": 0.35}
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, ":9090", cfg.Server.Addr)
			assert.Equal(t, 1, cfg.Camera.DeviceID)
			assert.Equal(t, 900, cfg.Tuning.FeedCooldownMS)
			assert.InDelta(t, 0.35, cfg.Tuning.PinchRatio, 1e-9)

			// Unset fields keep their defaults.
			assert.Equal(t, 640, cfg.Camera.Width)
			assert.Equal(t, 1000, cfg.Tuning.PetCooldownMS)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "handpet.ini", "addr=:1"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeFile(t, "handpet.toml", "[server\naddr ="))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(writeFile(t, "handpet.toml", "[tuning]\npinch_ratio = 2.0\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, "127.0.0.1:7000")
	t.Setenv(EnvCamera, "2")
	t.Setenv(EnvDB, "/tmp/pet.db")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Camera.DeviceID)
	assert.Equal(t, "/tmp/pet.db", cfg.Store.Path)
}

func TestApplyEnvOverrides_BadCamera(t *testing.T) {
	t.Setenv(EnvCamera, "front")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, 0, cfg.Camera.DeviceID)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	t.Setenv(EnvAddr, ":7777")

	cfg, err := Load(writeFile(t, "handpet.toml", "[server]\naddr = \":9090\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative device", func(c *Config) { c.Camera.DeviceID = -1 }},
		{"no hands", func(c *Config) { c.Detector.MaxHands = 0 }},
		{"confidence above one", func(c *Config) { c.Detector.MinConfidence = 1.5 }},
		{"zero idle fps", func(c *Config) { c.Pipeline.IdleFPS = 0 }},
		{"zero idle after", func(c *Config) { c.Pipeline.IdleAfterMS = 0 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty db path", func(c *Config) { c.Store.Path = "" }},
		{"zero plugin timeout", func(c *Config) { c.Plugins.TimeoutMS = 0 }},
		{"zero cooldown", func(c *Config) { c.Tuning.FeedCooldownMS = 0 }},
		{"zero pinch ratio", func(c *Config) { c.Tuning.PinchRatio = 0 }},
		{"pet off screen", func(c *Config) { c.Tuning.PetX = 120 }},
		{"slow high five", func(c *Config) { c.Tuning.HighFiveMinSpeed = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.Addr = ":9191"
			cfg.Tray.Enabled = true
			cfg.Tuning.TapCooldownMS = 250

			path := filepath.Join(t.TempDir(), "nested", "handpet"+ext)
			require.NoError(t, Save(cfg, path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, ":9191", loaded.Server.Addr)
			assert.True(t, loaded.Tray.Enabled)
			assert.Equal(t, 250, loaded.Tuning.TapCooldownMS)
			assert.Equal(t, cfg.Tuning, loaded.Tuning)
		})
	}
}

func TestApp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.IdleAfterMS = 3000
	cfg.Tuning.FeedCooldownMS = 900

	ac := cfg.App()
	assert.Equal(t, 3*time.Second, ac.IdleAfter)
	assert.Equal(t, 900*time.Millisecond, ac.Interaction.FeedCooldown)
	assert.Equal(t, cfg.Camera, ac.Camera)
	assert.NotNil(t, ac.Now)
}

func TestTuning_RoundTrip(t *testing.T) {
	def := interaction.DefaultConfig()
	tuning := TuningFrom(def)

	assert.Equal(t, 1200, tuning.FeedCooldownMS)
	assert.Equal(t, 500, tuning.HandLostAfterMS)
	assert.InDelta(t, 0.4, tuning.PinchRatio, 1e-9)
	assert.Equal(t, 50.0, tuning.PetX)
	assert.Equal(t, 80.0, tuning.PetY)

	assert.Equal(t, def, tuning.Interaction())
}

func TestTuning_Interaction(t *testing.T) {
	tuning := DefaultTuning()
	tuning.HighFiveMinSpeed = 700
	tuning.MessageMS = 2000
	tuning.PetX = 30

	c := tuning.Interaction()
	assert.Equal(t, 700.0, c.HighFiveMinSpeed)
	assert.Equal(t, 2*time.Second, c.MessageFor)
	assert.Equal(t, 30.0, c.DefaultPet.X)
	// Fields outside Tuning keep their defaults.
	assert.Equal(t, interaction.DefaultConfig().Zone, c.Zone)
	assert.Equal(t, interaction.DefaultConfig().MinSampleInterval, c.MinSampleInterval)
}
