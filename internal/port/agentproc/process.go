// Package agentproc defines the port for the driving agent process: the
// external AI-agent CLI that performs the actual work and emits the raw
// event stream the engine interprets. The engine never depends on which CLI
// or transport produced the events; the tolerance rules of the stream
// package are the real contract, not the process's actual output format.
package agentproc

import (
	"context"
	"errors"

	"github.com/agentdeck/agentdeck/internal/domain/stream"
)

// ErrNotRunning indicates a send to a process that has already exited.
var ErrNotRunning = errors.New("agent process is not running")

// SpawnRequest describes one process launch.
type SpawnRequest struct {
	// Prompt is the instruction handed to the process at startup.
	Prompt string
	// WorkDir is the project directory the process operates in.
	WorkDir string
	// ResumeSessionID, when non-empty, asks the process to continue from a
	// previously persisted transcript instead of starting fresh.
	ResumeSessionID string
}

// Process is one live driving process.
type Process interface {
	// Events returns the process's event stream. The channel is closed when
	// the process exits; events arrive strictly in emission order.
	Events() <-chan stream.Envelope

	// Send feeds a follow-up user message to the running process.
	Send(ctx context.Context, message string) error

	// Kill terminates the whole process tree. Idempotent.
	Kill() error

	// Wait blocks until the process has exited and returns its final error,
	// nil for a clean exit.
	Wait() error
}

// Launcher spawns driving processes.
type Launcher interface {
	Spawn(ctx context.Context, req SpawnRequest) (Process, error)
}
