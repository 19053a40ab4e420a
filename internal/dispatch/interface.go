package dispatch

import (
	"context"

	"github.com/mattjoyce/execdir/internal/executor"
)

//go:generate mockgen -destination=mocks/mock_dispatch.go -package=mocks github.com/mattjoyce/execdir/internal/dispatch CommandRunner,DirectoryChecker

// DirectoryChecker resolves a requested working directory and authorizes it.
// Check returns the canonical path, or an error wrapping one of the guard
// sentinels (not found, not a directory, not allowed).
type DirectoryChecker interface {
	Check(path string) (string, error)
}

// CommandRunner executes a command in an already authorized directory.
type CommandRunner interface {
	Execute(ctx context.Context, spec executor.Spec) executor.Result
}
