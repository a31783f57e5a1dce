package testsupport

import (
	"context"
	"sync"

	"devbox/internal/shell"
)

// FakeRunner records commands and returns scripted results keyed by command
// name. Unscripted commands succeed with an empty result.
type FakeRunner struct {
	mu       sync.Mutex
	Commands []shell.Command
	Handlers map[string]func(shell.Command) (shell.Result, error)
}

// NewFakeRunner constructs an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Handlers: make(map[string]func(shell.Command) (shell.Result, error))}
}

// On registers a handler for commands whose Name equals name.
func (f *FakeRunner) On(name string, handler func(shell.Command) (shell.Result, error)) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Handlers[name] = handler
	return f
}

// Fail makes every invocation of name exit with the given status.
func (f *FakeRunner) Fail(name string, exitCode int, tail ...string) *FakeRunner {
	return f.On(name, func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{ExitCode: exitCode, Tail: tail}, &shell.ExitError{Command: cmd.String(), ExitCode: exitCode}
	})
}

// Run implements shell.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd shell.Command) (shell.Result, error) {
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	handler := f.Handlers[cmd.Name]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return shell.Result{ExitCode: -1}, err
	}
	if handler == nil {
		return shell.Result{}, nil
	}
	return handler(cmd)
}

// Names returns the recorded command names in call order.
func (f *FakeRunner) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.Commands))
	for i, cmd := range f.Commands {
		names[i] = cmd.Name
	}
	return names
}
