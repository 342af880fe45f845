package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/ytclip/internal/types"
)

func TestRun_SuccessRevealsOnce(t *testing.T) {
	t.Parallel()

	dl := filepath.Join(t.TempDir(), "Downloads")
	runner := &fakeRunner{events: []types.Event{
		types.ProgressEvent(10),
		types.LogEvent(types.StreamStdout, "[download]  10.0%"),
	}, exit: 0}
	reveal := &fakeRevealer{}
	uc := New(Deps{
		Runner: runner,
		Setup:  fakeGate{ready: true, bin: "/app/bin/yt-dlp"},
		Video:  fakeVideo{ffmpeg: "/opt/ffmpeg"},
		Reveal: reveal,
		NewID:  func() string { return "job-1" },
	})

	evs := drain(t, uc.Run(context.Background(), Input{
		Request:      testRequest(),
		DownloadsDir: dl,
	}))

	want := filepath.Join(dl, "my_clip_.mp4")
	last := evs[len(evs)-1]
	if last.Kind != types.EventOutcome || !last.Outcome.Success {
		t.Fatalf("expected success outcome last, got %+v", last)
	}
	if last.Outcome.OutputPath != want {
		t.Fatalf("unexpected output path: %s", last.Outcome.OutputPath)
	}
	if len(reveal.paths) != 1 || reveal.paths[0] != want {
		t.Fatalf("expected exactly one reveal of %s, got %v", want, reveal.paths)
	}
	for _, ev := range evs {
		if ev.JobID != "job-1" {
			t.Fatalf("event without job id: %+v", ev)
		}
	}
	if runner.bin != "/app/bin/yt-dlp" {
		t.Fatalf("runner got bin %q", runner.bin)
	}
	if !slices.Contains(runner.args, "/opt/ffmpeg") {
		t.Fatalf("expected ffmpeg location in args: %v", runner.args)
	}
	if !slices.Contains(runner.args, "*00:00:10-00:01:00") {
		t.Fatalf("expected section selector in args: %v", runner.args)
	}
	if evs[0].Kind != types.EventProgress || evs[0].Percent != 10 {
		t.Fatalf("expected relayed progress first, got %+v", evs[0])
	}
}

func TestRun_FailureDoesNotReveal(t *testing.T) {
	t.Parallel()

	reveal := &fakeRevealer{}
	uc := New(Deps{
		Runner: &fakeRunner{exit: 1},
		Setup:  fakeGate{ready: true, bin: "yt-dlp"},
		Video:  fakeVideo{ffmpeg: "ffmpeg"},
		Reveal: reveal,
	})

	evs := drain(t, uc.Run(context.Background(), Input{Request: testRequest(), DownloadsDir: t.TempDir()}))

	o := onlyOutcome(t, evs)
	if o.Success {
		t.Fatalf("expected failure")
	}
	if len(reveal.paths) != 0 {
		t.Fatalf("reveal must not run on failure, got %v", reveal.paths)
	}
}

func TestRun_ValidationRejectsBeforeLaunch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*types.ClipRequest)
		wantMsg string
	}{
		{
			name:    "bad format",
			mutate:  func(r *types.ClipRequest) { r.StartTime = "0:10" },
			wantMsg: "Invalid format. Use HH:MM:SS",
		},
		{
			name:    "reversed",
			mutate:  func(r *types.ClipRequest) { r.StartTime, r.EndTime = "00:02:00", "00:01:00" },
			wantMsg: "End time must be after Start time",
		},
		{
			name:    "url is an engine option",
			mutate:  func(r *types.ClipRequest) { r.SourceURL = "--update-to=attacker/evil@v1" },
			wantMsg: "Invalid URL. Use an http(s) link",
		},
		{
			name:    "file url",
			mutate:  func(r *types.ClipRequest) { r.SourceURL = "file:///etc/passwd" },
			wantMsg: "Invalid URL. Use an http(s) link",
		},
		{
			name:    "quality breaks out of selector",
			mutate:  func(r *types.ClipRequest) { r.Quality = "720]/bestaudio" },
			wantMsg: "Invalid quality. Use best or a height like 720",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{}
			req := testRequest()
			tc.mutate(&req)
			uc := New(Deps{
				Runner: runner,
				Setup:  fakeGate{ready: true},
				Video:  fakeVideo{ffmpeg: "ffmpeg"},
				Reveal: &fakeRevealer{},
			})

			evs := drain(t, uc.Run(context.Background(), Input{Request: req, DownloadsDir: t.TempDir()}))

			o := onlyOutcome(t, evs)
			if o.Success || o.ErrorMessage != tc.wantMsg {
				t.Fatalf("unexpected outcome: %+v", o)
			}
			if runner.calls != 0 {
				t.Fatalf("runner must not be called, got %d calls", runner.calls)
			}
		})
	}
}

func TestRun_RefusedWhileNotReady(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	uc := New(Deps{
		Runner: runner,
		Setup:  fakeGate{status: types.SetupStatus{Status: "downloading", Message: "Initializing Engine (First Run)..."}},
		Video:  fakeVideo{ffmpeg: "ffmpeg"},
		Reveal: &fakeRevealer{},
	})

	o := onlyOutcome(t, drain(t, uc.Run(context.Background(), Input{Request: testRequest(), DownloadsDir: t.TempDir()})))
	if o.Success || !strings.Contains(o.ErrorMessage, "not ready") {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if runner.calls != 0 {
		t.Fatalf("runner must not be called")
	}
}

func TestRun_MissingFFmpegFails(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Runner: &fakeRunner{},
		Setup:  fakeGate{ready: true},
		Video:  fakeVideo{locateErr: errors.New("ffmpeg not found (set FFMPEG_PATH)")},
		Reveal: &fakeRevealer{},
	})

	o := onlyOutcome(t, drain(t, uc.Run(context.Background(), Input{Request: testRequest(), DownloadsDir: t.TempDir()})))
	if o.Success || !strings.Contains(o.ErrorMessage, "FFMPEG_PATH") {
		t.Fatalf("unexpected outcome: %+v", o)
	}
}

func TestRun_RunnerPanicIsContained(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Runner: panicRunner{},
		Setup:  fakeGate{ready: true},
		Video:  fakeVideo{ffmpeg: "ffmpeg"},
		Reveal: &fakeRevealer{},
	})

	o := onlyOutcome(t, drain(t, uc.Run(context.Background(), Input{Request: testRequest(), DownloadsDir: t.TempDir()})))
	if o.Success || !strings.Contains(o.ErrorMessage, "boom") {
		t.Fatalf("unexpected outcome: %+v", o)
	}
}

func TestRun_StreamWithoutOutcomeFails(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Runner: &fakeRunner{noOutcome: true},
		Setup:  fakeGate{ready: true},
		Video:  fakeVideo{ffmpeg: "ffmpeg"},
		Reveal: &fakeRevealer{},
	})

	o := onlyOutcome(t, drain(t, uc.Run(context.Background(), Input{Request: testRequest(), DownloadsDir: t.TempDir()})))
	if o.Success {
		t.Fatalf("expected failure when the runner never reports an outcome")
	}
}

func TestUserMessage_FallsBackToError(t *testing.T) {
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

func testRequest() types.ClipRequest {
	return types.ClipRequest{
		SourceURL:  "https://x",
		StartTime:  "00:00:10",
		EndTime:    "00:01:00",
		OutputName: "My Clip!",
		Quality:    "720",
	}
}

func drain(t *testing.T, ch <-chan types.Event) []types.Event {
	t.Helper()
	var evs []types.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				if len(evs) == 0 {
					t.Fatalf("empty event stream")
				}
				return evs
			}
			evs = append(evs, ev)
		case <-timeout:
			t.Fatalf("event stream did not close")
		}
	}
}

func onlyOutcome(t *testing.T, evs []types.Event) types.JobOutcome {
	t.Helper()
	var outs []types.JobOutcome
	for _, ev := range evs {
		if ev.Kind == types.EventOutcome {
			outs = append(outs, *ev.Outcome)
		}
	}
	if len(outs) != 1 {
		t.Fatalf("expected exactly 1 outcome, got %d", len(outs))
	}
	if evs[len(evs)-1].Kind != types.EventOutcome {
		t.Fatalf("outcome must be the last event")
	}
	return outs[0]
}

type fakeRunner struct {
	events    []types.Event
	exit      int
	noOutcome bool

	calls int
	bin   string
	args  []string
}

func (f *fakeRunner) Run(_ context.Context, bin string, args []string, outputPath string) <-chan types.Event {
	f.calls++
	f.bin = bin
	f.args = args
	ch := make(chan types.Event, len(f.events)+1)
	for _, ev := range f.events {
		ch <- ev
	}
	if !f.noOutcome {
		if f.exit == 0 {
			ch <- types.OutcomeEvent(types.JobOutcome{Success: true, OutputPath: outputPath})
		} else {
			ch <- types.OutcomeEvent(types.JobOutcome{ExitCode: f.exit, ErrorMessage: "engine exited"})
		}
	}
	close(ch)
	return ch
}

type panicRunner struct{}

func (panicRunner) Run(context.Context, string, []string, string) <-chan types.Event {
	panic("boom")
}

type fakeGate struct {
	ready  bool
	bin    string
	status types.SetupStatus
}

func (g fakeGate) Ready() bool               { return g.ready }
func (g fakeGate) Status() types.SetupStatus { return g.status }
func (g fakeGate) BinaryPath() string        { return g.bin }

type fakeVideo struct {
	ffmpeg    string
	locateErr error
}

func (f fakeVideo) Locate() (string, error) { return f.ffmpeg, f.locateErr }

func (f fakeVideo) ProbeDuration(context.Context, string) (time.Duration, error) {
	return 50 * time.Second, nil
}

type fakeRevealer struct {
	paths []string
}

func (f *fakeRevealer) Reveal(path string) error {
	f.paths = append(f.paths, path)
	return nil
}
