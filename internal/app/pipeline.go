package app

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpet/internal/detector"
	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/zone"
)

// runPipeline reads camera frames on a ticker until stop is closed.
//
// Pipeline logic:
//  1. Start in active mode (ActiveFPS) so a hand already in view is found.
//     The preview is refreshed on every tick.
//  2. Motion or a visible hand keeps or switches to active mode.
//  3. In active mode each frame is handed to a detection worker, unless one
//     is still running, in which case the frame is dropped.
//  4. After IdleAfter without motion or a hand, fall back to idle mode.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	active := true
	lastActivity := a.config.Now()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.ActiveFPS))
	defer ticker.Stop()

	setMode := func(act bool) {
		active = act
		fps := a.config.IdleFPS
		if act {
			fps = a.config.ActiveFPS
		}
		a.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
		if act {
			log.Println("Switched to active mode")
		} else {
			a.motion.Reset()
			log.Println("Switched to idle mode")
		}
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.Printf("Error reading frame: %v", err)
			continue
		}
		at := a.config.Now()

		a.updatePreview(frame)

		if !a.IsEnabled() {
			frame.Close()
			continue
		}

		motion := a.motion.Detect(frame)
		if motion.Moving || a.handVisible() {
			lastActivity = at
			if !active {
				setMode(true)
			}
		} else if active && at.Sub(lastActivity) > a.config.IdleAfter {
			setMode(false)
		}

		if !active {
			a.idle.Add(1)
			frame.Close()
			continue
		}

		a.submit(frame, at)
	}
}

// submit starts detection on frame in the background. If a detection is
// already running the frame is dropped. submit takes ownership of frame.
func (a *App) submit(frame *gocv.Mat, at time.Time) bool {
	if !a.busy.CompareAndSwap(false, true) {
		if n := a.dropped.Add(1); n%100 == 1 {
			log.Printf("Detector busy, dropped %d frames so far", n)
		}
		frame.Close()
		return false
	}

	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		defer a.busy.Store(false)
		defer frame.Close()

		if _, err := a.ProcessFrame(frame, at); err != nil {
			log.Printf("Error detecting hands: %v", err)
		}
	}()
	return true
}

// ProcessFrame runs hand detection on frame and advances the session.
// A detector failure leaves the session untouched.
func (a *App) ProcessFrame(frame *gocv.Mat, at time.Time) (Snapshot, error) {
	d := a.Detector()
	if d == nil {
		return Snapshot{}, fmt.Errorf("no detector configured")
	}

	hands, err := d.Detect(frame)
	if err != nil {
		a.detectErrors.Add(1)
		return Snapshot{}, fmt.Errorf("detect: %w", err)
	}

	size := zone.Size{Width: float64(frame.Cols()), Height: float64(frame.Rows())}
	return a.ProcessHands(hands, at, size), nil
}

// ProcessHands advances the session with one frame's worth of hands.
func (a *App) ProcessHands(hands []detector.HandLandmarks, at time.Time, size zone.Size) Snapshot {
	a.pubMu.Lock()
	defer a.pubMu.Unlock()

	a.mu.Lock()
	at = a.monotonic(at)
	state, res := a.engine.Step(a.state, detector.Frame{Hands: hands, Timestamp: at}, size)
	a.state = state
	snap := a.commit(at, res.Events, size, &res)
	sinks := a.sinks
	a.mu.Unlock()

	a.processed.Add(1)
	if res.Dropped > 0 {
		log.Printf("Ignored %d malformed hand(s)", res.Dropped)
	}
	a.publish(sinks, snap)
	return snap
}

// State returns the current session state.
func (a *App) State() interaction.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *App) handVisible() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.HandVisible
}

// updatePreview stores a mirrored JPEG of frame for the stream endpoint.
func (a *App) updatePreview(frame *gocv.Mat) {
	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(*frame, &mirrored, 1)

	buf, err := gocv.IMEncode(".jpg", mirrored)
	if err != nil {
		log.Printf("Error encoding preview: %v", err)
		return
	}
	data := bytes.Clone(buf.GetBytes())
	buf.Close()

	a.previewMu.Lock()
	a.preview = data
	a.previewSeq++
	a.previewMu.Unlock()
}
