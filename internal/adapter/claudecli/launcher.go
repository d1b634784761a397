// Package claudecli spawns the Claude Code CLI in stream-json mode and
// adapts its stdout into the engine's event stream.
package claudecli

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/port/agentproc"
)

// Launcher spawns agent CLI processes configured from config.Engine.
type Launcher struct {
	cfg config.Engine
	log *slog.Logger
}

// NewLauncher creates a Launcher for the configured agent command.
func NewLauncher(cfg config.Engine, log *slog.Logger) *Launcher {
	return &Launcher{cfg: cfg, log: log.With("adapter", "claudecli")}
}

// Spawn starts one agent process for the given request. The returned
// Process streams decoded events until the process exits.
func (l *Launcher) Spawn(ctx context.Context, req agentproc.SpawnRequest) (agentproc.Process, error) {
	if _, err := exec.LookPath(l.cfg.Command); err != nil {
		return nil, fmt.Errorf("agent binary not found: %s: %w", l.cfg.Command, err)
	}

	args := []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--dangerously-skip-permissions",
	}
	if req.ResumeSessionID != "" {
		args = append(args, "--resume", req.ResumeSessionID)
	}
	args = append(args, l.cfg.Args...)

	return startProcess(ctx, l.cfg, l.log, req, args)
}
