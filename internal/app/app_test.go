package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpet/internal/capture"
	"github.com/ayusman/handpet/internal/detector"
	"github.com/ayusman/handpet/internal/interaction"
	"github.com/ayusman/handpet/internal/zone"
)

var testSize = zone.Size{Width: 1000, Height: 1000}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestApp(t *testing.T) (*App, *fakeClock, *detector.MockDetector) {
	t.Helper()
	clk := newClock()
	cfg := DefaultConfig()
	cfg.Now = clk.Now
	a := New(cfg)
	mock := detector.NewMockDetector()
	a.SetDetector(mock)
	return a, clk, mock
}

// feedHand pinches 10px from the bowl.
func feedHand() detector.HandLandmarks {
	return detector.PinchLandmarks(detector.Point3D{X: 0.49, Y: 0.88}, 0.1, 0.02)
}

func TestNew_InitialSnapshot(t *testing.T) {
	a, _, _ := newTestApp(t)

	snap := a.Snapshot()
	if snap.Session == "" || snap.Session != a.Session() {
		t.Errorf("session = %q, want %q", snap.Session, a.Session())
	}
	if snap.Seq != 0 {
		t.Errorf("seq = %d, want 0", snap.Seq)
	}
	if snap.State.Pet != (zone.Position{X: 50, Y: 80}) {
		t.Errorf("pet = %+v, want default", snap.State.Pet)
	}
	if !a.IsEnabled() {
		t.Error("detection should start enabled")
	}
}

func TestProcessHands_PublishesSnapshots(t *testing.T) {
	a, clk, _ := newTestApp(t)

	var got []Snapshot
	a.Subscribe(SinkFunc(func(s Snapshot) { got = append(got, s) }))

	snap := a.ProcessHands([]detector.HandLandmarks{feedHand()}, clk.Now(), testSize)
	if snap.Seq != 1 {
		t.Errorf("seq = %d, want 1", snap.Seq)
	}
	if !snap.HasHand || !snap.State.HandVisible {
		t.Error("expected a visible hand")
	}
	if len(snap.Events) != 1 || snap.Events[0].Kind != interaction.KindFeed {
		t.Fatalf("events = %+v, want one feed", snap.Events)
	}
	if !snap.State.Feeding {
		t.Error("Feeding should be true")
	}
	if snap.Size != testSize {
		t.Errorf("size = %+v", snap.Size)
	}

	clk.Advance(100 * time.Millisecond)
	snap = a.ProcessHands(nil, clk.Now(), testSize)
	if snap.Seq != 2 || len(snap.Events) != 0 {
		t.Errorf("second snapshot = seq %d events %d", snap.Seq, len(snap.Events))
	}

	if len(got) != 2 {
		t.Fatalf("sink got %d snapshots, want 2", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("sink order = %d, %d", got[0].Seq, got[1].Seq)
	}
	if a.Snapshot().Seq != 2 {
		t.Errorf("latest seq = %d, want 2", a.Snapshot().Seq)
	}
	if a.Stats().Processed != 2 {
		t.Errorf("processed = %d, want 2", a.Stats().Processed)
	}
}

func TestProcessHands_MalformedHandsCounted(t *testing.T) {
	a, clk, _ := newTestApp(t)

	bad := detector.HandLandmarks{Points: make([]detector.Point3D, 3)}
	snap := a.ProcessHands([]detector.HandLandmarks{bad}, clk.Now(), testSize)
	if snap.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", snap.Dropped)
	}
	if snap.HasHand {
		t.Error("a malformed hand must not count as visible")
	}
}

func TestProcessHands_MonotonicTimestamps(t *testing.T) {
	a, clk, _ := newTestApp(t)

	first := a.ProcessHands(nil, clk.Now(), testSize)
	snap := a.ProcessHands(nil, clk.Now().Add(-time.Second), testSize)
	if !snap.At.Equal(first.At) {
		t.Errorf("at = %v, want clamped to %v", snap.At, first.At)
	}
}

func TestTap(t *testing.T) {
	a, clk, _ := newTestApp(t)

	var got []Snapshot
	a.Subscribe(SinkFunc(func(s Snapshot) { got = append(got, s) }))

	events := a.Tap()
	if len(events) != 1 || events[0].Kind != interaction.KindTap {
		t.Fatalf("events = %+v, want one tap", events)
	}
	if !a.State().Poking {
		t.Error("Poking should be true after a tap")
	}

	clk.Advance(200 * time.Millisecond)
	if events := a.Tap(); len(events) != 0 {
		t.Errorf("tap inside cooldown fired: %+v", events)
	}

	if len(got) != 2 {
		t.Errorf("sink got %d snapshots, want 2", len(got))
	}
}

func TestApplyTuning_KeepsSession(t *testing.T) {
	a, clk, _ := newTestApp(t)

	// Grab the pet and drag it somewhere new.
	pinch := detector.Point3D{X: 0.5, Y: 0.8}
	hand := detector.PinchLandmarks(pinch, 0.1, 0.02)
	a.ProcessHands([]detector.HandLandmarks{hand}, clk.Now(), testSize)
	if !a.State().Grabbing {
		t.Fatal("expected a grab")
	}
	clk.Advance(50 * time.Millisecond)
	a.ProcessHands([]detector.HandLandmarks{hand.Translate(-0.1, -0.2)}, clk.Now(), testSize)
	pet := a.State().Pet

	cfg := a.Tuning()
	cfg.TapCooldown = 100 * time.Millisecond
	a.ApplyTuning(cfg)

	if a.Tuning().TapCooldown != 100*time.Millisecond {
		t.Errorf("tap cooldown = %v", a.Tuning().TapCooldown)
	}
	if a.State().Pet != pet {
		t.Errorf("pet moved from %+v to %+v on retune", pet, a.State().Pet)
	}

	a.Tap()
	clk.Advance(200 * time.Millisecond)
	if events := a.Tap(); len(events) != 1 {
		t.Errorf("tap after shortened cooldown = %+v, want one", events)
	}
}

func TestSetEnabled(t *testing.T) {
	a, _, _ := newTestApp(t)

	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Error("expected disabled")
	}
	a.SetEnabled(true)
	if !a.IsEnabled() {
		t.Error("expected enabled")
	}
}

func TestProcessFrame(t *testing.T) {
	a, clk, mock := newTestApp(t)
	mock.SetHands([]detector.HandLandmarks{feedHand()})

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	snap, err := a.ProcessFrame(&frame, clk.Now())
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if snap.Size != (zone.Size{Width: 640, Height: 480}) {
		t.Errorf("size = %+v, want 640x480", snap.Size)
	}
	if !snap.HasHand {
		t.Error("expected a hand")
	}
}

func TestProcessFrame_DetectorError(t *testing.T) {
	a, clk, mock := newTestApp(t)
	mock.SetError(errors.New("boom"))

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, err := a.ProcessFrame(&frame, clk.Now()); err == nil {
		t.Fatal("expected an error")
	}
	if a.Snapshot().Seq != 0 {
		t.Error("a failed detection must not advance the session")
	}
	if a.Stats().DetectErrors != 1 {
		t.Errorf("detect errors = %d, want 1", a.Stats().DetectErrors)
	}
}

func TestSubmit_DropsWhileBusy(t *testing.T) {
	a, clk, mock := newTestApp(t)
	mock.SetDelay(100 * time.Millisecond)

	f1 := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	f2 := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)

	if !a.submit(&f1, clk.Now()) {
		t.Fatal("first frame should be accepted")
	}
	if a.submit(&f2, clk.Now()) {
		t.Error("second frame should be dropped while busy")
	}
	a.inflight.Wait()

	stats := a.Stats()
	if stats.Processed != 1 || stats.Dropped != 1 {
		t.Errorf("stats = %+v, want 1 processed and 1 dropped", stats)
	}
	if mock.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", mock.Calls())
	}

	f3 := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	if !a.submit(&f3, clk.Now()) {
		t.Error("frame after completion should be accepted")
	}
	a.inflight.Wait()
}

func TestStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline test in short mode")
	}

	cfg := DefaultConfig()
	cfg.ActiveFPS = 30
	a := New(cfg)
	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	a.SetDetector(mock)

	cam, release := capture.NewBlankCamera(320, 240)
	defer release()
	a.SetCamera(cam)

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for a.Stats().Processed == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Stop()

	if a.Stats().Processed == 0 {
		t.Fatal("no frames processed")
	}
	if !a.Snapshot().HasHand {
		t.Error("expected the mock hand to be seen")
	}
	if _, _, ok := a.LatestJPEG(); !ok {
		t.Error("expected a preview frame")
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}

	// Stop is idempotent.
	a.Stop()
}

func TestPublish_InSeqOrder(t *testing.T) {
	a, clk, _ := newTestApp(t)

	var mu sync.Mutex
	var seqs []uint64
	entered := make(chan struct{})
	release := make(chan struct{})
	a.Subscribe(SinkFunc(func(s Snapshot) {
		if s.Seq == 1 {
			close(entered)
			<-release
		}
		mu.Lock()
		seqs = append(seqs, s.Seq)
		mu.Unlock()
	}))

	frameDone := make(chan struct{})
	go func() {
		defer close(frameDone)
		a.ProcessHands(nil, clk.Now(), testSize)
	}()
	<-entered

	tapDone := make(chan struct{})
	go func() {
		defer close(tapDone)
		a.Tap()
	}()

	// Give the tap a chance to overtake the stalled frame.
	time.Sleep(50 * time.Millisecond)
	close(release)
	<-frameDone
	<-tapDone

	mu.Lock()
	defer mu.Unlock()
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("published seqs = %v, want [1 2]", seqs)
	}
	if got := a.Snapshot().Seq; got != seqs[len(seqs)-1] {
		t.Errorf("snapshot seq = %d, last published = %d", got, seqs[len(seqs)-1])
	}
}
