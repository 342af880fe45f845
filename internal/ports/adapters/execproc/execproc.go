package execproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/forPelevin/ytclip/internal/ports"
)

// Spawner starts real child processes.
type Spawner struct{}

func New() *Spawner { return &Spawner{} }

type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (s *Spawner) Start(ctx context.Context, bin string, args []string) (ports.Process, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if isLocked(err) {
			return nil, fmt.Errorf("%w: %w", ports.ErrExecutableLocked, err)
		}
		return nil, err
	}
	return &process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func (p *process) Stdout() io.Reader { return p.stdout }
func (p *process) Stderr() io.Reader { return p.stderr }

func (p *process) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when killed by a signal.
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
