package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionConfig tunes frame differencing.
type MotionConfig struct {
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64 `toml:"threshold" yaml:"threshold" json:"threshold"`
	// BlurSize is the odd Gaussian kernel size applied before differencing.
	BlurSize int `toml:"blur_size" yaml:"blur_size" json:"blur_size"`
	// PixelDelta is the grey-level difference for a pixel to count as changed.
	PixelDelta float32 `toml:"pixel_delta" yaml:"pixel_delta" json:"pixel_delta"`
}

// DefaultMotionConfig returns settings that ignore sensor noise but catch a hand entering the frame.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:  1.0,
		BlurSize:   21,
		PixelDelta: 25,
	}
}

// Motion is the result of comparing a frame with its predecessor.
type Motion struct {
	Moving bool
	// Changed is the percentage of pixels that differ.
	Changed float64
}

// MotionDetector compares consecutive frames to tell an empty, static
// scene from one worth running hand detection on.
type MotionDetector struct {
	mu     sync.Mutex
	config MotionConfig
	prev   gocv.Mat
	primed bool
}

// NewMotionDetector creates a detector. Invalid fields fall back to defaults.
func NewMotionDetector(config MotionConfig) *MotionDetector {
	def := DefaultMotionConfig()
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	if config.BlurSize <= 0 || config.BlurSize%2 == 0 {
		config.BlurSize = def.BlurSize
	}
	if config.PixelDelta <= 0 {
		config.PixelDelta = def.PixelDelta
	}
	return &MotionDetector{
		config: config,
		prev:   gocv.NewMat(),
	}
}

// Detect compares frame with the previous one. The first frame only
// primes the detector and never reports motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := m.config.BlurSize
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	// A resolution change invalidates the baseline.
	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, m.config.PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return Motion{Moving: changed > m.config.Threshold, Changed: changed}
}

// Reset drops the baseline so the next frame primes the detector again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}
