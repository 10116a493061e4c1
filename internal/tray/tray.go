// Package tray provides a system tray menu for handpet.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handpet/internal/app"
	"github.com/ayusman/handpet/internal/interaction"
)

// Tray is the system tray menu. It implements app.Sink to show the latest
// pet event and mood.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	lastEvent string
	mood      string

	menuToggle    *systray.MenuItem
	menuLastEvent *systray.MenuItem
	menuMood      *systray.MenuItem
}

// New creates a Tray with detection shown as enabled.
func New() *Tray {
	return &Tray{
		enabled:   true,
		lastEvent: eventLabel(nil),
		mood:      moodLabel(interaction.State{}),
	}
}

// OnToggle sets the callback for the detection toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open Pet" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until systray.Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Handpet")
	systray.SetTooltip("Handpet virtual pet")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Toggle hand detection")
	systray.AddSeparator()

	t.menuMood = systray.AddMenuItem(t.mood, "What the pet is doing")
	t.menuMood.Disable()
	t.menuLastEvent = systray.AddMenuItem(t.lastEvent, "Last pet event")
	t.menuLastEvent.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Pet...", "Open the pet in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handpet")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish updates the mood and, when the snapshot carries events, the
// last event line.
func (t *Tray) Publish(snap app.Snapshot) {
	mood := moodLabel(snap.State)

	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(snap.Events); n > 0 {
		t.lastEvent = eventLabel(&snap.Events[n-1])
		if t.menuLastEvent != nil {
			t.menuLastEvent.SetTitle(t.lastEvent)
		}
	}
	if mood != t.mood {
		t.mood = mood
		if t.menuMood != nil {
			t.menuMood.SetTitle(mood)
		}
	}
}

// LastEvent returns the text of the last event line.
func (t *Tray) LastEvent() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastEvent
}

// Mood returns the text of the mood line.
func (t *Tray) Mood() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mood
}

// SetEnabled reflects a detection change made elsewhere, e.g. via the API.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

var _ app.Sink = (*Tray)(nil)

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}
