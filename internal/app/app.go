// Package app runs the capture and detection pipeline and owns the pet's
// session state.
package app

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handpet/internal/capture"
	"github.com/ayusman/handpet/internal/detector"
	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/zone"
)

// Pipeline rates.
const (
	// IdleFPS is the capture rate while the scene is static and no hand is visible.
	IdleFPS = 5
	// ActiveFPS is the capture rate while a hand may be present.
	ActiveFPS = 15
	// IdleAfter is how long the scene must stay quiet before dropping to IdleFPS.
	IdleAfter = 2 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Camera      capture.Config
	Motion      capture.MotionConfig
	Detector    detector.Config
	Interaction interaction.Config

	IdleFPS   int
	ActiveFPS int
	IdleAfter time.Duration

	// Now returns the current time. Frame timestamps and taps use it.
	Now func() time.Time
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		Camera:      capture.DefaultConfig(),
		Motion:      capture.DefaultMotionConfig(),
		Detector:    detector.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
		IdleFPS:     IdleFPS,
		ActiveFPS:   ActiveFPS,
		IdleAfter:   IdleAfter,
		Now:         time.Now,
	}
}

// Stats counts pipeline activity.
type Stats struct {
	Processed    uint64 `json:"processed"`
	Dropped      uint64 `json:"dropped"`
	Idle         uint64 `json:"idle"`
	DetectErrors uint64 `json:"detect_errors"`
}

// App drives the interaction engine from camera frames and fans results
// out to sinks.
type App struct {
	config  Config
	session string
	camera  capture.Camera
	motion  *capture.MotionDetector

	// pubMu is held from commit until every sink has the snapshot, so
	// sinks see snapshots in Seq order.
	pubMu sync.Mutex

	mu       sync.RWMutex
	detector detector.Detector
	engine   *interaction.Engine
	state    interaction.State
	last     Snapshot
	lastAt   time.Time
	seq      uint64
	sinks    []Sink
	enabled  bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	// busy is set while a detection is in flight; frames arriving
	// meanwhile are dropped.
	busy     atomic.Bool
	inflight sync.WaitGroup

	previewMu  sync.RWMutex
	preview    []byte
	previewSeq uint64

	processed    atomic.Uint64
	dropped      atomic.Uint64
	idle         atomic.Uint64
	detectErrors atomic.Uint64
}

// New creates an App. It uses the MediaPipe detector when its service
// script can be found and a mock detector otherwise.
func New(config Config) *App {
	def := DefaultConfig()
	if config.IdleFPS <= 0 {
		config.IdleFPS = def.IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = def.ActiveFPS
	}
	if config.IdleAfter <= 0 {
		config.IdleAfter = def.IdleAfter
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	engine := interaction.NewEngine(config.Interaction)
	a := &App{
		config:  config,
		session: uuid.NewString(),
		camera:  capture.NewCamera(config.Camera),
		motion:  capture.NewMotionDetector(config.Motion),
		engine:  engine,
		state:   engine.NewState(),
		enabled: true,
	}
	a.last = Snapshot{Session: a.session, State: a.state}

	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// Session returns the ID of this run.
func (a *App) Session() string {
	return a.session
}

// SetEnabled pauses or resumes detection. The camera keeps running so the
// preview stays live.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		log.Printf("Detection enabled: %v", enabled)
	}
	a.enabled = enabled
}

// IsEnabled returns whether detection is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector replaces the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetCamera replaces the frame source. Call it before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.camera = c
}

// Camera returns the frame source.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Subscribe registers a sink for every future snapshot.
func (a *App) Subscribe(s Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// Snapshot returns the most recent snapshot.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Tuning returns the interaction settings in use.
func (a *App) Tuning() interaction.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.Config()
}

// ApplyTuning swaps in new interaction settings between frames. Session
// state, including the pet position, carries over.
func (a *App) ApplyTuning(config interaction.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine = interaction.NewEngine(config)
	log.Println("Applied new interaction tuning")
}

// Tap registers a direct tap on the pet.
func (a *App) Tap() []interaction.Event {
	a.pubMu.Lock()
	defer a.pubMu.Unlock()

	a.mu.Lock()
	at := a.monotonic(a.config.Now())
	state, events := a.engine.Tap(a.state, at)
	a.state = state
	snap := a.commit(at, events, a.last.Size, nil)
	sinks := a.sinks
	a.mu.Unlock()

	a.publish(sinks, snap)
	return events
}

// Stats returns pipeline counters.
func (a *App) Stats() Stats {
	return Stats{
		Processed:    a.processed.Load(),
		Dropped:      a.dropped.Load(),
		Idle:         a.idle.Load(),
		DetectErrors: a.detectErrors.Load(),
	}
}

// LatestJPEG returns the newest mirrored preview frame and its sequence
// number. ok is false until the first frame has been captured.
func (a *App) LatestJPEG() (jpeg []byte, seq uint64, ok bool) {
	a.previewMu.RLock()
	defer a.previewMu.RUnlock()
	return a.preview, a.previewSeq, a.preview != nil
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.ActiveFPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Printf("Detection pipeline started (session %s)", a.session)
	return nil
}

// Stop halts the pipeline, waits for any detection in flight and releases
// the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	a.inflight.Wait()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// monotonic keeps timestamps handed to the engine non-decreasing.
// Callers hold a.mu.
func (a *App) monotonic(at time.Time) time.Time {
	if at.Before(a.lastAt) {
		return a.lastAt
	}
	a.lastAt = at
	return at
}

// commit records a new snapshot. Callers hold a.mu.
func (a *App) commit(at time.Time, events []interaction.Event, size zone.Size, res *interaction.Result) Snapshot {
	a.seq++
	snap := Snapshot{
		Seq:     a.seq,
		Session: a.session,
		At:      at,
		State:   a.state,
		Events:  events,
		Size:    size,
	}
	if res != nil {
		snap.Gesture = res.Gesture
		snap.Proximity = res.Proximity
		snap.HasHand = res.HasHand
		snap.Dropped = res.Dropped
	} else {
		snap.Gesture = a.last.Gesture
		snap.Proximity = a.last.Proximity
		snap.HasHand = a.last.HasHand
	}
	a.last = snap
	return snap
}

func (a *App) publish(sinks []Sink, snap Snapshot) {
	for _, ev := range snap.Events {
		log.Printf("Pet event: %s", ev)
	}
	for _, s := range sinks {
		s.Publish(snap)
	}
}
