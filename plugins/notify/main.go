// Package main provides a desktop notification plugin.
// It shows the pet's message for each event through osascript on macOS
// and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event   string `json:"event"`
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	Finger  string `json:"finger,omitempty"`
	Session string `json:"session"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

const title = "Handpet"

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	// Grab and release carry no message.
	if req.Message == "" {
		writeSuccessResponse(false)
		return
	}

	if err := notify(title, req.Message); err != nil {
		writeErrorResponse(fmt.Sprintf("%s notification failed: %v", req.Event, err))
		return
	}
	writeSuccessResponse(true)
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse(shown bool) {
	data, _ := json.Marshal(map[string]bool{"shown": shown})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", quote(body), quote(title))
		cmd = exec.Command("osascript", "-e", script)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("notify-send", "--app-name", title, title, body)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
