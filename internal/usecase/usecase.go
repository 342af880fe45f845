package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/forPelevin/ytclip/internal/domain/clipargs"
	"github.com/forPelevin/ytclip/internal/domain/timerange"
	"github.com/forPelevin/ytclip/internal/logger"
	"github.com/forPelevin/ytclip/internal/ports"
	"github.com/forPelevin/ytclip/internal/types"
)

type Deps struct {
	Runner ports.JobRunner
	Setup  ports.SetupGate
	Video  ports.VideoTool
	Reveal ports.Revealer
	Log    logger.Logger

	// NewID defaults to uuid.NewString.
	NewID func() string
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return Usecase{d: d}
}

type Input struct {
	Request      types.ClipRequest
	DownloadsDir string
}

// Run accepts one clip request and returns its event stream. Every path,
// including panics, ends in exactly one outcome event, after which the
// channel is closed. The caller must drain it.
func (u Usecase) Run(ctx context.Context, in Input) <-chan types.Event {
	out := make(chan types.Event, 64)
	go u.run(ctx, in, out)
	return out
}

type job struct {
	id   string
	out  chan<- types.Event
	done bool
}

func (j *job) emit(ev types.Event) {
	ev.JobID = j.id
	if ev.Kind == types.EventOutcome {
		if j.done {
			return
		}
		j.done = true
	}
	j.out <- ev
}

func (j *job) fail(msg string) {
	j.emit(types.LogEvent(types.StreamSystem, msg))
	j.emit(types.OutcomeEvent(types.Failure(msg)))
}

func (u Usecase) run(ctx context.Context, in Input, out chan<- types.Event) {
	j := &job{id: u.d.NewID(), out: out}
	log := u.d.Log
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[JOB %s] panic: %v", j.id, r)
			j.fail(fmt.Sprintf("Unexpected error: %v", r))
		}
	}()

	req := in.Request
	log.Infof("[JOB %s] clip %s [%s-%s] quality=%q", j.id, req.SourceURL, req.StartTime, req.EndTime, req.Quality)

	if !u.d.Setup.Ready() {
		st := u.d.Setup.Status()
		log.Warnf("[JOB %s] refused, engine %s: %s", j.id, st.Status, st.Message)
		j.fail("Engine is not ready: " + st.Message)
		return
	}

	if err := Validate(req); err != nil {
		log.Infof("[JOB %s] rejected: %v", j.id, err)
		j.fail(UserMessage(err))
		return
	}

	ffmpegPath, err := u.d.Video.Locate()
	if err != nil {
		log.Errorf("[JOB %s] %v", j.id, err)
		j.fail(err.Error())
		return
	}
	if err := os.MkdirAll(in.DownloadsDir, 0o755); err != nil {
		log.Errorf("[JOB %s] downloads dir: %v", j.id, err)
		j.fail(fmt.Sprintf("cannot create %s: %v", in.DownloadsDir, err))
		return
	}

	outputPath := clipargs.OutputPath(in.DownloadsDir, req.OutputName)
	args := clipargs.Build(clipargs.Input{
		Request:      req,
		FFmpegPath:   ffmpegPath,
		DownloadsDir: in.DownloadsDir,
	})
	log.Debugf("[JOB %s] args: %q", j.id, args)

	for ev := range u.d.Runner.Run(ctx, u.d.Setup.BinaryPath(), args, outputPath) {
		if ev.Kind != types.EventOutcome {
			j.emit(ev)
			continue
		}
		o := *ev.Outcome
		if o.Success {
			u.finishSuccess(ctx, j.id, o.OutputPath)
		} else {
			log.Warnf("[JOB %s] failed: %s", j.id, o.ErrorMessage)
		}
		j.emit(types.OutcomeEvent(o))
	}

	if !j.done {
		j.fail("engine stream ended without an outcome")
	}
}

func (u Usecase) finishSuccess(ctx context.Context, id, outputPath string) {
	log := u.d.Log
	if d, err := u.d.Video.ProbeDuration(ctx, outputPath); err == nil {
		log.Infof("[JOB %s] done: %s (%s)", id, outputPath, d)
	} else {
		log.Infof("[JOB %s] done: %s", id, outputPath)
		log.Debugf("[JOB %s] probe: %v", id, err)
	}
	if err := u.d.Reveal.Reveal(outputPath); err != nil {
		log.Warnf("[JOB %s] reveal: %v", id, err)
	}
}

// Validate rejects a request before any of its fields reach the engine.
func Validate(req types.ClipRequest) error {
	if _, err := timerange.Validate(req.StartTime, req.EndTime); err != nil {
		return err
	}
	return clipargs.Validate(req)
}

// UserMessage returns the text meant for the requester when err carries
// one, and err.Error() otherwise.
func UserMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
