// Package plugin runs external executables in response to pet events.
package plugin

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/ayusman/handpet/internal/zone"
)

// AllEvents subscribes a plugin to every event kind.
const AllEvents = "*"

// Manifest describes a plugin's metadata and the event kinds it handles.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Request is written to a plugin's stdin for one pet event.
type Request struct {
	Event   string        `json:"event"`
	ID      string        `json:"id"`
	Message string        `json:"message,omitempty"`
	Finger  string        `json:"finger,omitempty"`
	At      time.Time     `json:"at"`
	Session string        `json:"session"`
	Pet     zone.Position `json:"pet"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to events of kind.
func (p *Plugin) Handles(kind string) bool {
	return slices.Contains(p.Manifest.Events, AllEvents) || slices.Contains(p.Manifest.Events, kind)
}
