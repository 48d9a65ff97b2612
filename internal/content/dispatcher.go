package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

var ErrDispatcherClosed = errors.New("dispatcher is closed")

// ConsoleFunc receives console output and dispatch failures from the VM.
type ConsoleFunc func(level, message string)

// Dispatcher evaluates host→page statements in an isolated goja VM whose only
// capability is the global dispatcher object bound to one Registry.
type Dispatcher struct {
	mu       sync.Mutex
	vm       *goja.Runtime
	registry *Registry
	timeout  time.Duration
	console  ConsoleFunc
}

// NewDispatcher creates a VM bound to registry.
func NewDispatcher(registry *Registry, timeout time.Duration, console ConsoleFunc) (*Dispatcher, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if console == nil {
		console = func(string, string) {}
	}

	d := &Dispatcher{
		vm:       goja.New(),
		registry: registry,
		timeout:  timeout,
		console:  console,
	}
	if err := d.setupGlobals(); err != nil {
		return nil, err
	}
	return d, nil
}

// Run evaluates statement, interrupting it after the timeout or when ctx ends.
func (d *Dispatcher) Run(ctx context.Context, statement string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vm == nil {
		return ErrDispatcherClosed
	}

	vm := d.vm
	vm.ClearInterrupt()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-timer.C:
			vm.Interrupt("dispatch timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-stop:
		}
	}()

	if _, err := vm.RunString(statement); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

// Close drops the VM.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vm = nil
}

func (d *Dispatcher) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports", "setTimeout", "setInterval"} {
		if err := d.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	console := d.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		if err := console.Set(level, d.consoleFunc(level)); err != nil {
			return err
		}
	}
	if err := d.vm.Set("console", console); err != nil {
		return err
	}

	dispatcher := d.vm.NewObject()
	if err := dispatcher.Set("execute", d.execute); err != nil {
		return err
	}
	return d.vm.Set(types.DispatcherGlobal, dispatcher)
}

// execute is __swipe.execute(name, argsJSON). Failures are reported to the
// console rather than thrown; the host has no way to observe them otherwise.
func (d *Dispatcher) execute(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	args := ""
	if a := call.Argument(1); !goja.IsUndefined(a) && !goja.IsNull(a) {
		args = a.String()
	}

	if err := d.registry.Execute(name, args); err != nil {
		d.console("error", fmt.Sprintf("%s: %v", name, err))
	}
	return goja.Undefined()
}

func (d *Dispatcher) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		d.console(level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}
