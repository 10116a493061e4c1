package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `toml:"max_hands" yaml:"max_hands" json:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `toml:"min_confidence" yaml:"min_confidence" json:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `toml:"min_tracking_confidence" yaml:"min_tracking_confidence" json:"min_tracking_confidence"`

	// ModelComplexity selects the MediaPipe model (0 = lite, 1 = full).
	ModelComplexity int `toml:"model_complexity" yaml:"model_complexity" json:"model_complexity"`

	// ScriptPath overrides the lookup of mediapipe_service.py.
	ScriptPath string `toml:"script_path" yaml:"script_path" json:"script_path,omitempty"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ModelComplexity: 0,
	}
}
