package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/forPelevin/ytclip/internal/domain/progress"
	"github.com/forPelevin/ytclip/internal/logger"
	"github.com/forPelevin/ytclip/internal/ports"
	"github.com/forPelevin/ytclip/internal/types"
)

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 2 * time.Second

	chunkSize = 32 * 1024
	eventBuf  = 64
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Supervisor runs exactly one child per Run call. Concurrent Runs are
// independent of each other.
type Supervisor struct {
	spawner    ports.Spawner
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
	sleep      Sleeper
}

type Option func(*Supervisor)

func WithMaxRetries(n int) Option {
	return func(s *Supervisor) { s.maxRetries = n }
}

func WithBackoff(d time.Duration) Option {
	return func(s *Supervisor) { s.backoff = d }
}

func WithSleeper(fn Sleeper) Option {
	return func(s *Supervisor) { s.sleep = fn }
}

func New(spawner ports.Spawner, log logger.Logger, opts ...Option) *Supervisor {
	if log == nil {
		log = logger.Nop()
	}
	s := &Supervisor{
		spawner:    spawner,
		log:        log,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run launches bin and returns its event stream. The caller must drain the
// channel; it is closed right after the single outcome event.
func (s *Supervisor) Run(ctx context.Context, bin string, args []string, outputPath string) <-chan types.Event {
	out := make(chan types.Event, eventBuf)
	go s.run(ctx, bin, args, outputPath, out)
	return out
}

type startPanic struct{ v any }

func (p startPanic) Error() string { return fmt.Sprint(p.v) }

func (s *Supervisor) run(ctx context.Context, bin string, args []string, outputPath string, out chan<- types.Event) {
	defer close(out)

	done := false
	finish := func(o types.JobOutcome) {
		if done {
			return
		}
		done = true
		out <- types.OutcomeEvent(o)
	}
	fail := func(msg string) {
		out <- types.LogEvent(types.StreamSystem, msg)
		finish(types.Failure(msg))
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("supervisor panic: %v", r)
			fail(fmt.Sprintf("Critical Start Error: %v", r))
		}
	}()

	for attempt := 0; ; attempt++ {
		proc, err := s.start(ctx, bin, args)
		if err == nil {
			s.log.Debugf("started %s (attempt %d)", bin, attempt+1)
			finish(s.stream(proc, outputPath, out))
			return
		}

		var sp startPanic
		if errors.As(err, &sp) {
			s.log.Errorf("launch panicked: %v", err)
			fail("Critical Start Error: " + err.Error())
			return
		}

		if errors.Is(err, ports.ErrExecutableLocked) && attempt < s.maxRetries {
			s.log.Warnf("engine locked, retry %d/%d in %s: %v", attempt+1, s.maxRetries, s.backoff, err)
			out <- types.LogEvent(types.StreamSystem, fmt.Sprintf(
				"\n[System] Engine is locked (Antivirus). Retrying in %s... (Attempt %d/%d)\n",
				s.backoff, attempt+1, s.maxRetries,
			))
			if err := s.sleep(ctx, s.backoff); err != nil {
				fail("Spawn Error: " + err.Error())
				return
			}
			continue
		}

		s.log.Errorf("spawn %s: %v", bin, err)
		fail("Spawn Error: " + err.Error())
		return
	}
}

// start converts a panic raised while launching into an error.
func (s *Supervisor) start(ctx context.Context, bin string, args []string) (p ports.Process, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, startPanic{v: r}
		}
	}()
	return s.spawner.Start(ctx, bin, args)
}

func (s *Supervisor) stream(proc ports.Process, outputPath string, out chan<- types.Event) types.JobOutcome {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(proc.Stdout(), types.StreamStdout, true, out)
	}()
	go func() {
		defer wg.Done()
		s.pump(proc.Stderr(), types.StreamStderr, false, out)
	}()
	// Pipes must be drained before Wait.
	wg.Wait()

	code, err := proc.Wait()
	if err != nil {
		return types.Failure("wait: " + err.Error())
	}
	if code != 0 {
		s.log.Warnf("engine exited with code %d", code)
		return types.JobOutcome{
			Success:      false,
			ErrorMessage: fmt.Sprintf("engine exited with code %d", code),
			ExitCode:     code,
		}
	}
	return types.JobOutcome{Success: true, OutputPath: outputPath}
}

func (s *Supervisor) pump(r io.Reader, stream string, parseProgress bool, out chan<- types.Event) {
	if r == nil {
		return
	}
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			if parseProgress {
				if pct, ok := progress.Percent(chunk); ok {
					out <- types.ProgressEvent(pct)
				}
			}
			out <- types.LogEvent(stream, chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debugf("%s read: %v", stream, err)
			}
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
