package tray

import "github.com/ayusman/handpet/internal/interaction"

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Detecting"
	}
	return "○ Paused"
}

func eventLabel(ev *interaction.Event) string {
	if ev == nil {
		return "Last: none"
	}
	if ev.Message != "" {
		return "Last: " + ev.Message
	}
	return "Last: " + string(ev.Kind)
}

// moodLabel names the most prominent thing the pet is doing.
func moodLabel(s interaction.State) string {
	switch {
	case s.Grabbing:
		return "Pet: carried"
	case s.Feeding:
		return "Pet: eating"
	case s.HighFiving:
		return "Pet: high-fiving"
	case s.Petting:
		return "Pet: purring"
	case s.Poking:
		return "Pet: poked"
	case s.Gesturing && s.GestureFinger != nil:
		return "Pet: watching your " + s.GestureFinger.String()
	case s.HandVisible:
		return "Pet: curious"
	default:
		return "Pet: idle"
	}
}
