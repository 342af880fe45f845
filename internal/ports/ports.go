package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/forPelevin/ytclip/internal/types"
)

// ErrExecutableLocked marks a spawn failure caused by the executable being
// held open by someone else (text file busy, sharing violation). It is the
// only spawn failure worth retrying.
var ErrExecutableLocked = errors.New("executable is locked")

// Process is a started child whose output must be drained before Wait.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until exit and returns the exit code. err is non-nil only
	// when the exit status could not be obtained at all.
	Wait() (exitCode int, err error)
}

type Spawner interface {
	Start(ctx context.Context, bin string, args []string) (Process, error)
}

// JobRunner runs one tool invocation and streams its events. The returned
// channel is closed after the outcome event.
type JobRunner interface {
	Run(ctx context.Context, bin string, args []string, outputPath string) <-chan types.Event
}

type Revealer interface {
	Reveal(path string) error
}

type VideoTool interface {
	Locate() (string, error)
	ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error)
}

// SetupGate reports whether the engine binary is usable.
type SetupGate interface {
	Ready() bool
	Status() types.SetupStatus
	BinaryPath() string
}
