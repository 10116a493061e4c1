package detector

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	delay    time.Duration
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence queues per-call results. Once the queue is drained Detect
// falls back to the hands set by SetHands.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every Detect call block for d.
func (m *MockDetector) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	err := m.err
	hands := m.hands
	if len(m.sequence) > 0 {
		hands = m.sequence[0]
		m.sequence = m.sequence[1:]
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Pose selects which fingers are extended, ordered thumb, index, middle, ring, pinky.
type Pose [5]bool

// Common poses.
var (
	PoseOpen  = Pose{true, true, true, true, true}
	PoseFist  = Pose{}
	PosePoint = Pose{false, true, false, false, false}
)

// PoseLandmarks builds an upright right hand whose palm center (mean of
// wrist, index MCP and pinky MCP) sits at palm and whose index-MCP to
// pinky-MCP distance is palmWidth. Extended fingers are straight; folded
// fingers turn back onto themselves. For extended fingers to clear the
// classifier's tip-over-PIP margin palmWidth should be at least 0.07.
func PoseLandmarks(palm Point3D, palmWidth float64, pose Pose) HandLandmarks {
	u := palmWidth / 0.9
	wrist := Point3D{X: palm.X, Y: palm.Y + 2*u/3}
	at := func(dx, dy float64) Point3D {
		return Point3D{X: wrist.X + dx*u, Y: wrist.Y + dy*u}
	}

	h := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}
	h.Points[Wrist] = wrist

	h.Points[ThumbCMC] = at(0.5, -0.3)
	h.Points[ThumbMCP] = at(0.8, -0.6)
	if pose[0] {
		h.Points[ThumbIP] = at(1.15, -0.95)
		h.Points[ThumbTip] = at(1.5, -1.3)
	} else {
		h.Points[ThumbIP] = at(0.5, -0.45)
		h.Points[ThumbTip] = at(0.2, -0.3)
	}

	bases := []struct {
		mcp int
		x   float64
	}{
		{IndexMCP, 0.45},
		{MiddleMCP, 0.15},
		{RingMCP, -0.15},
		{PinkyMCP, -0.45},
	}
	for i, b := range bases {
		h.Points[b.mcp] = at(b.x, -1.0)
		h.Points[b.mcp+1] = at(b.x, -1.4)
		if pose[i+1] {
			h.Points[b.mcp+2] = at(b.x, -1.9)
			h.Points[b.mcp+3] = at(b.x, -2.4)
		} else {
			h.Points[b.mcp+2] = at(b.x, -1.25)
			h.Points[b.mcp+3] = at(b.x, -1.05)
		}
	}

	return h
}

// PinchLandmarks builds a closed hand whose thumb and index tips sit gap
// apart, horizontally centred on pinch.
func PinchLandmarks(pinch Point3D, palmWidth, gap float64) HandLandmarks {
	u := palmWidth / 0.9
	palm := Point3D{X: pinch.X - 0.45*u, Y: pinch.Y + 1.05*u - 2*u/3}
	h := PoseLandmarks(palm, palmWidth, PoseFist)
	h.Points[ThumbTip] = Point3D{X: pinch.X - gap/2, Y: pinch.Y}
	h.Points[IndexTip] = Point3D{X: pinch.X + gap/2, Y: pinch.Y}
	return h
}

// ThumbsUpLandmarks returns a preset hand with only the thumb extended.
func ThumbsUpLandmarks() HandLandmarks {
	return PoseLandmarks(Point3D{X: 0.5, Y: 0.6}, 0.12, Pose{true, false, false, false, false})
}

// OpenPalmLandmarks returns a preset hand with every finger extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks(Point3D{X: 0.5, Y: 0.6}, 0.12, PoseOpen)
}
