package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/mattjoyce/execdir/internal/log"
)

const (
	// DefaultTimeout applies when a Spec carries no positive timeout.
	DefaultTimeout = 30 * time.Second

	// defaultWaitDelay caps the wait for output pipes once the process is gone.
	defaultWaitDelay = 2 * time.Second
)

// Outcome classifies how an execution ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeTimedOut
	OutcomeSpawnFailed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeSpawnFailed:
		return "spawn_failed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Spec describes one command execution. Dir must already be resolved and
// authorized by the caller.
type Spec struct {
	Command string
	Dir     string
	Timeout time.Duration
}

// Result is the outcome of Execute. Stdout, Stderr and ExitCode are only
// meaningful when Outcome is OutcomeCompleted; Error is set otherwise.
type Result struct {
	ID       string
	Outcome  Outcome
	Command  string
	Dir      string
	Stdout   string
	Stderr   string
	ExitCode int
	Error    string
	Duration time.Duration
}

// Success reports whether the process ran to completion before its deadline.
func (r Result) Success() bool {
	return r.Outcome == OutcomeCompleted
}

// Executor spawns shell commands.
type Executor struct {
	shell     string
	shellFlag string
	waitDelay time.Duration

	mu      sync.Mutex
	running int
	idle    chan struct{} // closed when running drops to zero
}

// Option configures an Executor.
type Option func(*Executor)

// WithShell overrides the shell binary and the flag that introduces the command string.
func WithShell(shell, flag string) Option {
	return func(e *Executor) {
		e.shell = shell
		e.shellFlag = flag
	}
}

// WithWaitDelay overrides how long Wait may block on open pipes after the process is gone.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.waitDelay = d
	}
}

// New creates an Executor using the platform shell.
func New(opts ...Option) *Executor {
	shell, flag := defaultShell()
	e := &Executor{
		shell:     shell,
		shellFlag: flag,
		waitDelay: defaultWaitDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs spec.Command through the shell in spec.Dir and waits for it to
// exit, for the deadline to pass, or for ctx to be cancelled.
func (e *Executor) Execute(ctx context.Context, spec Spec) (res Result) {
	e.begin()
	defer e.end()

	res = Result{
		ID:      uuid.NewString(),
		Command: spec.Command,
		Dir:     spec.Dir,
	}
	start := time.Now()
	logger := log.WithExecution(res.ID).With("component", "executor", "command", spec.Command, "dir", spec.Dir)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during execution", "panic", r)
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("execution error: %v", r)
		}
		res.Duration = time.Since(start)
		logger.Info("execution finished",
			"outcome", res.Outcome.String(),
			"exit_code", res.ExitCode,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}()

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Termination is managed here, so no CommandContext.
	cmd := exec.Command(e.shell, e.shellFlag, spec.Command)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = e.waitDelay
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("executing command", "timeout", timeout)

	if err := cmd.Start(); err != nil {
		logger.Error("failed to start command", "error", err)
		res.Outcome = OutcomeSpawnFailed
		res.Error = fmt.Sprintf("failed to start command: %v", err)
		return res
	}

	timeoutTimer := time.NewTimer(timeout)
	defer timeoutTimer.Stop()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	select {
	case <-timeoutTimer.C:
		logger.Warn("command timed out, killing process")
		e.kill(cmd, logger)
		<-waitErr
		res.Outcome = OutcomeTimedOut
		res.Error = fmt.Sprintf("command timed out after %s", formatSeconds(timeout))
		return res

	case <-ctx.Done():
		logger.Warn("execution cancelled, killing process", "error", ctx.Err())
		e.kill(cmd, logger)
		<-waitErr
		res.Outcome = OutcomeFailed
		res.Error = fmt.Sprintf("execution cancelled: %v", ctx.Err())
		return res

	case err := <-waitErr:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
			logger.Error("wait for process failed", "error", err)
			res.Outcome = OutcomeFailed
			res.Error = fmt.Sprintf("execution error: %v", err)
			return res
		}

		res.Outcome = OutcomeCompleted
		res.ExitCode = exitCode(cmd.ProcessState)
		res.Stdout = decodeOutput(stdout.Bytes())
		res.Stderr = decodeOutput(stderr.Bytes())
		return res
	}
}

func (e *Executor) begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running == 0 {
		e.idle = make(chan struct{})
	}
	e.running++
}

func (e *Executor) end() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running--
	if e.running == 0 {
		close(e.idle)
	}
}

// Drain waits until no execution is in progress or the timeout passes. It
// reports whether all executions finished. It is safe to call while new
// executions are being started.
func (e *Executor) Drain(timeout time.Duration) bool {
	e.mu.Lock()
	if e.running == 0 {
		e.mu.Unlock()
		return true
	}
	idle := e.idle
	e.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idle:
		return true
	case <-timer.C:
		return false
	}
}
