package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattjoyce/execdir/internal/executor"
	"github.com/mattjoyce/execdir/internal/protocol"
)

// ToolExecuteCommand is the only tool the gateway exposes.
const ToolExecuteCommand = "execute_command"

// executeArgs are the arguments of execute_command. Pointers distinguish
// absent fields from zero values.
type executeArgs struct {
	Command    *string `json:"command"`
	WorkingDir *string `json:"working_dir"`
	Timeout    *int    `json:"timeout"`
}

// successPayload is the text body of a completed execution.
type successPayload struct {
	Success     bool   `json:"success"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	ReturnCode  int    `json:"returncode"`
	WorkingDir  string `json:"working_dir"`
	Command     string `json:"command"`
	ExecutionID string `json:"execution_id"`
	DurationMS  int64  `json:"duration_ms"`
}

// failurePayload is the text body of any rejected or failed execution.
type failurePayload struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Command     string `json:"command,omitempty"`
	WorkingDir  string `json:"working_dir,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
}

func executeCommandTool(defaultDir string, defaultTimeout time.Duration) protocol.Tool {
	seconds := int(defaultTimeout / time.Second)
	return protocol.Tool{
		Name:        ToolExecuteCommand,
		Description: fmt.Sprintf("Execute a shell command in a directory. Default directory: %s", defaultDir),
		InputSchema: protocol.JSONSchema{
			Type: "object",
			Properties: map[string]protocol.JSONSchema{
				"command": {
					Type:        "string",
					Description: "Shell command to execute",
				},
				"working_dir": {
					Type:        "string",
					Description: fmt.Sprintf("Working directory (optional, default: %s)", defaultDir),
				},
				"timeout": {
					Type:        "integer",
					Description: fmt.Sprintf("Timeout in seconds, default %d", seconds),
					Default:     seconds,
				},
			},
			Required: []string{"command"},
		},
	}
}

// executeCommand validates the arguments, checks the working directory and
// runs the command. Validation and directory failures are tool-level errors
// and never reach the runner.
func (d *Dispatcher) executeCommand(ctx context.Context, raw json.RawMessage) *protocol.ToolsCallResult {
	var args executeArgs
	if err := protocol.DecodeParams(raw, &args); err != nil {
		return errorResult(failurePayload{Error: fmt.Sprintf("invalid arguments: %v", err)})
	}

	if args.Command == nil || *args.Command == "" {
		return errorResult(failurePayload{Error: "command is required"})
	}
	command := *args.Command

	timeout := d.cfg.DefaultTimeout
	if args.Timeout != nil {
		if *args.Timeout <= 0 {
			return errorResult(failurePayload{
				Command: command,
				Error:   fmt.Sprintf("timeout must be a positive integer, got %d", *args.Timeout),
			})
		}
		if limit := int64(d.cfg.MaxTimeout / time.Second); int64(*args.Timeout) > limit {
			return errorResult(failurePayload{
				Command: command,
				Error:   fmt.Sprintf("timeout must be at most %d seconds, got %d", limit, *args.Timeout),
			})
		}
		timeout = time.Duration(*args.Timeout) * time.Second
	}

	target := d.cfg.DefaultDir
	if args.WorkingDir != nil && *args.WorkingDir != "" {
		target = *args.WorkingDir
	}

	dir, err := d.dirs.Check(target)
	if err != nil {
		d.logger.Warn("working directory rejected", "dir", target, "error", err)
		return errorResult(failurePayload{Command: command, Error: err.Error()})
	}

	res := d.runner.Execute(ctx, executor.Spec{
		Command: command,
		Dir:     dir,
		Timeout: timeout,
	})

	if res.Success() {
		return textResult(successPayload{
			Success:     true,
			Stdout:      res.Stdout,
			Stderr:      res.Stderr,
			ReturnCode:  res.ExitCode,
			WorkingDir:  res.Dir,
			Command:     res.Command,
			ExecutionID: res.ID,
			DurationMS:  res.Duration.Milliseconds(),
		})
	}

	return textResult(failurePayload{
		Error:       res.Error,
		Command:     res.Command,
		WorkingDir:  res.Dir,
		ExecutionID: res.ID,
		DurationMS:  res.Duration.Milliseconds(),
	})
}

func textResult(payload any) *protocol.ToolsCallResult {
	text, err := protocol.MarshalText(payload)
	if err != nil {
		panic(fmt.Sprintf("marshal tool payload: %v", err))
	}
	return &protocol.ToolsCallResult{
		Content: []protocol.ContentItem{protocol.NewTextContent(text)},
	}
}

func errorResult(payload any) *protocol.ToolsCallResult {
	result := textResult(payload)
	result.IsError = true
	return result
}
