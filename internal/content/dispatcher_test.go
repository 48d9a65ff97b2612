package content

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

type consoleLog struct {
	mu      sync.Mutex
	entries [][2]string
}

func (c *consoleLog) record(level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, [2]string{level, message})
}

func (c *consoleLog) all() [][2]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]string(nil), c.entries...)
}

func newTestDispatcher(t *testing.T, timeout time.Duration) (*Dispatcher, *Registry, *consoleLog) {
	t.Helper()
	registry := NewRegistry()
	console := &consoleLog{}
	d, err := NewDispatcher(registry, timeout, console.record)
	if err != nil {
		t.Fatalf("Failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Close)
	return d, registry, console
}

func TestDispatcherExecute(t *testing.T) {
	d, registry, _ := newTestDispatcher(t, time.Second)

	var got []json.RawMessage
	registry.Register("vote:t3_abc:up", func(args []json.RawMessage) error {
		got = args
		return nil
	})

	stmt, err := types.DispatchStatement("vote:t3_abc:up", []byte(`["up",2]`))
	if err != nil {
		t.Fatalf("DispatchStatement() error = %v", err)
	}
	if err := d.Run(context.Background(), stmt); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(got) != 2 || string(got[0]) != `"up"` || string(got[1]) != "2" {
		t.Errorf("closure got args %s, want [\"up\" 2]", got)
	}
}

func TestDispatcherUnknownNameIsNoop(t *testing.T) {
	d, _, console := newTestDispatcher(t, time.Second)

	if err := d.Run(context.Background(), `__swipe.execute("gone", "[]");`); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := len(console.all()); n != 0 {
		t.Errorf("expected no console output, got %d entries", n)
	}
}

func TestDispatcherBadArgsReported(t *testing.T) {
	d, registry, console := newTestDispatcher(t, time.Second)
	registry.Register("x", func([]json.RawMessage) error { return nil })

	if err := d.Run(context.Background(), `__swipe.execute("x", "{not json");`); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries := console.all()
	if len(entries) != 1 || entries[0][0] != "error" {
		t.Fatalf("expected one error console entry, got %v", entries)
	}
}

func TestDispatcherSecurity(t *testing.T) {
	d, _, console := newTestDispatcher(t, time.Second)

	blocked := []struct {
		name   string
		script string
	}{
		{name: "require blocked", script: "require('fs')"},
		{name: "process blocked", script: "process.exit(1)"},
		{name: "module blocked", script: "module.exports = {}"},
		{name: "timers blocked", script: "setTimeout(function(){}, 0)"},
	}

	for _, tt := range blocked {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Run(context.Background(), tt.script); err == nil {
				t.Errorf("%s executed successfully", tt.script)
			}
		})
	}

	if err := d.Run(context.Background(), "console.log(typeof require)"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	entries := console.all()
	if len(entries) != 1 || entries[0][1] != "undefined" {
		t.Errorf("require should be undefined, console = %v", entries)
	}
}

func TestDispatcherTimeout(t *testing.T) {
	d, _, _ := newTestDispatcher(t, 100*time.Millisecond)

	script := `
		let i = 0;
		while(true) {
			i++;
		}
	`
	if err := d.Run(context.Background(), script); err == nil {
		t.Error("Expected timeout error, got nil")
	}

	// The VM stays usable after an interrupt.
	if err := d.Run(context.Background(), "1 + 1"); err != nil {
		t.Errorf("Run() after timeout error = %v", err)
	}
}

func TestDispatcherConsoleCapture(t *testing.T) {
	d, _, console := newTestDispatcher(t, time.Second)

	script := `
		console.log('info message');
		console.warn('warning', 2);
		console.error('error message');
	`
	if err := d.Run(context.Background(), script); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries := console.all()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 console entries, got %d", len(entries))
	}
	levels := []string{"log", "warn", "error"}
	for i, entry := range entries {
		if entry[0] != levels[i] {
			t.Errorf("Console entry %d: expected level %s, got %s", i, levels[i], entry[0])
		}
	}
	if entries[1][1] != "warning 2" {
		t.Errorf("Console entry 1: got %q", entries[1][1])
	}
}

func TestDispatcherClosed(t *testing.T) {
	d, _, _ := newTestDispatcher(t, time.Second)
	d.Close()

	if err := d.Run(context.Background(), "1"); err == nil {
		t.Error("expected error from closed dispatcher")
	}
}
