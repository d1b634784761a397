package claudecli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/stream"
	"github.com/agentdeck/agentdeck/internal/port/agentproc"
)

// process is one live agent CLI run.
type process struct {
	cmd    *exec.Cmd
	stdin  *json.Encoder
	events chan stream.Envelope
	done   chan struct{}
	log    *slog.Logger

	killTimeout time.Duration

	mu     sync.Mutex
	exited bool

	waitOnce sync.Once
	waitErr  error
}

// userMessage is the stream-json frame for a follow-up user turn.
type userMessage struct {
	Type    string      `json:"type"`
	Message userPayload `json:"message"`
}

type userPayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func startProcess(ctx context.Context, cfg config.Engine, log *slog.Logger, req agentproc.SpawnRequest, args []string) (*process, error) {
	cmd := exec.CommandContext(ctx, cfg.Command, args...) //nolint:gosec // command from trusted config
	cmd.Dir = req.WorkDir
	cmd.Stderr = os.Stderr
	// Own process group so Kill can take down the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start process: %w", err)
	}

	p := &process{
		cmd:         cmd,
		stdin:       json.NewEncoder(stdin),
		events:      make(chan stream.Envelope, 16),
		done:        make(chan struct{}),
		log:         log,
		killTimeout: cfg.KillTimeout,
	}

	if req.Prompt != "" {
		if err := p.stdin.Encode(userMessage{
			Type:    "user",
			Message: userPayload{Role: "user", Content: req.Prompt},
		}); err != nil {
			_ = p.Kill()
			return nil, fmt.Errorf("write prompt: %w", err)
		}
	}

	go p.readLoop(stdout, cfg.MaxLineBytes)

	log.Info("agent process started", "pid", cmd.Process.Pid, "workdir", req.WorkDir, "resume", req.ResumeSessionID != "")
	return p, nil
}

// readLoop scans stdout line by line and forwards decodable event frames.
// Non-JSON lines and unknown frame types are dropped. The send selects on
// done so a killed process with a full event buffer does not strand this
// goroutine.
func (p *process) readLoop(stdout io.Reader, maxLine int) {
	defer close(p.events)

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	for sc.Scan() {
		ev, ok := stream.Decode(sc.Bytes())
		if !ok {
			continue
		}
		select {
		case p.events <- ev:
		case <-p.done:
			return
		}
	}

	if err := sc.Err(); err != nil {
		p.log.Warn("agent stdout read ended", "error", err)
	}
}

// Events returns the decoded event stream.
func (p *process) Events() <-chan stream.Envelope {
	return p.events
}

// Send feeds a follow-up user message to the running process over stdin.
func (p *process) Send(_ context.Context, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exited {
		return agentproc.ErrNotRunning
	}

	if err := p.stdin.Encode(userMessage{
		Type:    "user",
		Message: userPayload{Role: "user", Content: message},
	}); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Kill terminates the process group, escalating from SIGTERM to SIGKILL
// after the configured timeout. Idempotent.
func (p *process) Kill() error {
	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	pid := p.cmd.Process.Pid
	// Negative pid signals the whole process group.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		return fmt.Errorf("signal process group: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.killTimeout):
		p.log.Warn("agent process did not exit after SIGTERM, killing", "pid", pid)
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}
	return nil
}

// Wait blocks until the process exits and returns its final error.
// Safe to call from multiple goroutines.
func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.done)
		p.mu.Lock()
		p.exited = true
		p.mu.Unlock()
	})
	return p.waitErr
}
