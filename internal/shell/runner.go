package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultTailLines is used when a runner is built with a non-positive tail size.
const DefaultTailLines = 5

// MaxLineBytes caps a retained output line; the remainder of a longer line is
// discarded.
const MaxLineBytes = 64 * 1024

const waitDelay = 2 * time.Second

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the current process environment.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Result captures the outcome of a finished command.
type Result struct {
	ExitCode int
	Tail     []string
	Duration time.Duration
}

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	tailLines int
	echo      io.Writer
}

// NewExecRunner constructs a runner keeping tailLines of merged output. When
// echo is non-nil the retained lines are written to it after each command.
func NewExecRunner(tailLines int, echo io.Writer) *ExecRunner {
	if tailLines <= 0 {
		tailLines = DefaultTailLines
	}
	return &ExecRunner{tailLines: tailLines, echo: echo}
}

// Run executes cmd and waits for it to finish. A non-zero exit returns an
// *ExitError alongside a populated Result.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Result{ExitCode: -1}, errors.New("command name required")
	}
	cmd := exec.CommandContext(ctx, name, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	// The command leads its own process group so cancellation also reaches
	// children that inherited the output pipe.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	// A non-file writer makes exec copy output in its own goroutine, which
	// WaitDelay bounds once the command has exited.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	tail := newTailBuffer(r.tailLines)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		collectLines(pr, tail)
	}()

	started := time.Now()
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		<-collected
		return Result{ExitCode: -1}, fmt.Errorf("start %s: %w", name, err)
	}

	waitErr := cmd.Wait()
	_ = pw.Close()
	<-collected
	if errors.Is(waitErr, exec.ErrWaitDelay) && ctx.Err() == nil {
		// Exited cleanly but a background child kept the output open.
		waitErr = nil
	}
	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Tail:     tail.lines(),
		Duration: time.Since(started),
	}
	r.echoTail(result.Tail)

	if waitErr == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: %w", c.String(), ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return result, &ExitError{Command: c.String(), ExitCode: result.ExitCode}
	}
	return result, fmt.Errorf("wait %s: %w", name, waitErr)
}

// collectLines reads rd to EOF, truncating overlong lines so the writer is
// never left blocked on a full pipe.
func collectLines(rd io.Reader, tail *tailBuffer) {
	br := bufio.NewReaderSize(rd, 64*1024)
	var line []byte
	for {
		chunk, more, err := br.ReadLine()
		if err != nil {
			if len(line) > 0 {
				tail.add(string(line))
			}
			return
		}
		if room := MaxLineBytes - len(line); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			line = append(line, chunk...)
		}
		if more {
			continue
		}
		tail.add(string(line))
		line = line[:0]
	}
}

func (r *ExecRunner) echoTail(lines []string) {
	if r.echo == nil {
		return
	}
	for _, line := range lines {
		fmt.Fprintf(r.echo, "    %s\n", line)
	}
}

type tailBuffer struct {
	mu    sync.Mutex
	max   int
	items []string
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max, items: make([]string, 0, max)}
}

func (t *tailBuffer) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.items) == t.max {
		copy(t.items, t.items[1:])
		t.items = t.items[:t.max-1]
	}
	t.items = append(t.items, line)
}

func (t *tailBuffer) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.items))
	copy(out, t.items)
	return out
}
