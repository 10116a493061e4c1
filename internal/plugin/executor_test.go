package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/handpet/internal/zone"
)

// writeScript creates an executable shell plugin in dir.
func writeScript(t *testing.T, dir, name, body string, events ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	scriptPath := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	if len(events) == 0 {
		events = []string{AllEvents}
	}
	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Events:     events,
		},
		Path:       dir,
		Executable: scriptPath,
	}
}

func feedRequest() *Request {
	return &Request{
		Event:   "feed",
		ID:      "ev-1",
		Message: "Yum!",
		At:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Session: "session-1",
		Pet:     zone.Position{X: 50, Y: 80},
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "hello", `cat >/dev/null
echo '{"success":true,"data":{"message":"hello world"}}'
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, feedRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, feedRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Event != "feed" || got.ID != "ev-1" || got.Message != "Yum!" {
		t.Errorf("received = %+v", got)
	}
	if got.Session != "session-1" {
		t.Errorf("session = %q", got.Session)
	}
	if got.Pet != (zone.Position{X: 50, Y: 80}) {
		t.Errorf("pet = %+v", got.Pet)
	}
}

func TestExecutor_Execute_RunsInPluginDir(t *testing.T) {
	dir := t.TempDir()
	plugin := writeScript(t, dir, "pwd", `cat >/dev/null
echo "{\"success\":true,\"data\":\"$(pwd)\"}"
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, feedRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var wd string
	if err := json.Unmarshal(response.Data, &wd); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(wd)
	if got != want {
		t.Errorf("working dir = %q, want %q", got, want)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "slow", `sleep 10
echo '{"success":true}'
`)

	start := time.Now()
	_, err := NewExecutor(100).Execute(context.Background(), plugin, feedRequest())
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestExecutor_Execute_Cancelled(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "slow", `sleep 10
echo '{"success":true}'
`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	if _, err := NewExecutor(5000).Execute(ctx, plugin, feedRequest()); err == nil {
		t.Fatal("expected an error after cancel")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "fail", `cat >/dev/null
echo '{"success":false,"error":"something went wrong"}'
`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, feedRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "bad", `cat >/dev/null
echo 'not valid json'
`)

	if _, err := NewExecutor(5000).Execute(context.Background(), plugin, feedRequest()); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := writeScript(t, t.TempDir(), "exit", `cat >/dev/null
echo "Error: something failed" >&2
exit 1
`)

	_, err := NewExecutor(5000).Execute(context.Background(), plugin, feedRequest())
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if !strings.Contains(err.Error(), "something failed") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3000)
	if executor == nil {
		t.Fatal("NewExecutor() returned nil")
	}
	if executor.timeoutMs != 3000 {
		t.Errorf("expected timeoutMs=3000, got %d", executor.timeoutMs)
	}
}
