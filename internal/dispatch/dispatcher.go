package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mattjoyce/execdir/internal/log"
	"github.com/mattjoyce/execdir/internal/protocol"
)

const (
	// ProtocolVersion is the MCP revision advertised by initialize.
	ProtocolVersion = "2024-11-05"

	// ServerName is reported in serverInfo.
	ServerName = "command-executor"
)

// MaxTimeout is the longest command timeout a time.Duration can carry.
const MaxTimeout = time.Duration(math.MaxInt64/int64(time.Second)) * time.Second

// ServerVersion is reported in serverInfo (overridable at build time).
var ServerVersion = "1.0.0"

// Config holds the dispatcher settings derived from the server configuration.
type Config struct {
	DefaultDir     string
	DefaultTimeout time.Duration
	// MaxTimeout caps the per-call timeout. Zero or anything above
	// MaxTimeout means MaxTimeout.
	MaxTimeout time.Duration
}

// State is the mutable server state. It is owned by a single Dispatcher and
// touched only from the request loop.
type State struct {
	Initialized bool
}

// Dispatcher maps requests to method handlers.
type Dispatcher struct {
	cfg    Config
	dirs   DirectoryChecker
	runner CommandRunner
	state  *State
	logger *slog.Logger
}

// New creates a Dispatcher with fresh State.
func New(cfg Config, dirs DirectoryChecker, runner CommandRunner) *Dispatcher {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.MaxTimeout <= 0 || cfg.MaxTimeout > MaxTimeout {
		cfg.MaxTimeout = MaxTimeout
	}
	return &Dispatcher{
		cfg:    cfg,
		dirs:   dirs,
		runner: runner,
		state:  &State{},
		logger: log.WithComponent("dispatch"),
	}
}

// Initialized reports whether an initialize request has been handled.
func (d *Dispatcher) Initialized() bool {
	return d.state.Initialized
}

// Handle parses one input line and dispatches it. It returns nil when no
// response must be written. Panics raised while dispatching are reported as
// internal errors and never escape.
func (d *Dispatcher) Handle(ctx context.Context, line []byte) (resp *protocol.Response) {
	req, err := protocol.DecodeRequest(line)
	if err != nil {
		d.logger.Warn("failed to decode request", "error", err)
		if errors.Is(err, protocol.ErrParse) {
			return protocol.NewError(nil, protocol.CodeParseError, "Parse error")
		}
		return protocol.NewError(nil, protocol.CodeInvalidRequest, "Invalid Request")
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling request", "method", req.Method, "panic", r)
			resp = protocol.NewError(req.ID, protocol.CodeInternalError, fmt.Sprintf("Internal error: %v", r))
		}
	}()

	return d.Dispatch(ctx, req)
}

// Dispatch runs the handler for req. It returns nil for notifications.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	method := ParseMethod(req.Method)
	logger := d.logger.With("method", req.Method)
	if req.HasID() {
		logger = logger.With("request_id", string(req.ID))
	}
	logger.Debug("handling request")

	var (
		result any
		rpcErr *protocol.RPCError
	)

	switch method {
	case MethodInitialize:
		result = d.initialize()
	case MethodInitialized:
		logger.Debug("client initialized")
	case MethodToolsList:
		result = d.toolsList()
	case MethodToolsCall:
		result, rpcErr = d.toolsCall(ctx, req.Params)
	default: // MethodUnknown
		rpcErr = &protocol.RPCError{
			Code:    protocol.CodeMethodNotFound,
			Message: fmt.Sprintf("unknown method: %s", req.Method),
		}
	}

	if method.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		logger.Warn("request failed", "code", rpcErr.Code, "error", rpcErr.Message)
		return &protocol.Response{JSONRPC: protocol.Version, ID: req.ID, Error: rpcErr}
	}
	return protocol.NewResult(req.ID, result)
}

func (d *Dispatcher) initialize() *protocol.InitializeResult {
	d.state.Initialized = true
	return &protocol.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo: protocol.ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
		Capabilities: protocol.Capabilities{
			Tools: &protocol.ToolsCapability{},
		},
	}
}

func (d *Dispatcher) toolsList() *protocol.ToolsListResult {
	return &protocol.ToolsListResult{
		Tools: []protocol.Tool{executeCommandTool(d.cfg.DefaultDir, d.cfg.DefaultTimeout)},
	}
}

func (d *Dispatcher) toolsCall(ctx context.Context, params json.RawMessage) (any, *protocol.RPCError) {
	var p protocol.ToolsCallParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, &protocol.RPCError{Code: protocol.CodeInvalidParams, Message: err.Error()}
	}

	switch p.Name {
	case ToolExecuteCommand:
		return d.executeCommand(ctx, p.Arguments), nil
	default:
		d.logger.Warn("unknown tool requested", "tool", p.Name)
		return errorResult(map[string]string{"error": fmt.Sprintf("unknown tool: %s", p.Name)}), nil
	}
}
