// Package stdio serves the dispatcher over newline-delimited JSON on the
// process's standard streams.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattjoyce/execdir/internal/log"
	"github.com/mattjoyce/execdir/internal/protocol"
)

// Handler turns one input line into a response, or nil when nothing must be
// written.
type Handler interface {
	Handle(ctx context.Context, line []byte) *protocol.Response
}

// Server is the request loop. Exactly one request is read, handled and
// answered before the next line is read.
type Server struct {
	handler Handler
	reader  io.Reader
	writer  io.Writer
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithReader sets the input stream (stdin by default).
func WithReader(r io.Reader) Option {
	return func(s *Server) {
		s.reader = r
	}
}

// WithWriter sets the output stream (stdout by default).
func WithWriter(w io.Writer) Option {
	return func(s *Server) {
		s.writer = w
	}
}

// New creates a Server reading stdin and writing stdout.
func New(handler Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		reader:  os.Stdin,
		writer:  os.Stdout,
		logger:  log.WithComponent("stdio"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes lines until the input ends, ctx is cancelled or the output
// can no longer be written. End of input is a clean shutdown and returns nil.
func (s *Server) Run(ctx context.Context) error {
	reader := bufio.NewReader(s.reader)
	writer := bufio.NewWriter(s.writer)

	s.logger.Info("request loop started")
	defer s.logger.Info("request loop stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read request: %w", readErr)
		}

		// A final line without a trailing newline is still a request.
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if err := s.serve(ctx, writer, trimmed); err != nil {
				return err
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

func (s *Server) serve(ctx context.Context, w *bufio.Writer, line []byte) error {
	resp := s.handle(ctx, line)
	if resp == nil {
		return nil
	}

	if err := protocol.EncodeResponse(w, resp); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}

// handle calls the handler and turns a panic into an internal error. The id
// is unknown at this layer, so the error carries none.
func (s *Server) handle(ctx context.Context, line []byte) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in request handler", "panic", r)
			resp = protocol.NewError(nil, protocol.CodeInternalError, fmt.Sprintf("Internal error: %v", r))
		}
	}()
	return s.handler.Handle(ctx, line)
}
