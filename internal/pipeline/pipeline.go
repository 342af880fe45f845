package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/forPelevin/ytclip/internal/config"
	"github.com/forPelevin/ytclip/internal/logger"
	"github.com/forPelevin/ytclip/internal/ports"
	"github.com/forPelevin/ytclip/internal/ports/adapters/execproc"
	"github.com/forPelevin/ytclip/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/ytclip/internal/ports/adapters/filebrowser"
	"github.com/forPelevin/ytclip/internal/provision"
	"github.com/forPelevin/ytclip/internal/supervisor"
	"github.com/forPelevin/ytclip/internal/types"
	"github.com/forPelevin/ytclip/internal/usecase"
)

// Options swaps out real adapters; zero values mean the real thing.
type Options struct {
	Spawner    ports.Spawner
	Reveal     ports.Revealer
	HTTPClient *http.Client
	Supervisor []supervisor.Option
}

// Pipeline owns the one provisioning state of the process and the clip
// use case that reads it.
type Pipeline struct {
	cfg     config.Config
	log     logger.Logger
	tracker *provision.Tracker
	prov    *provision.Provisioner
	uc      usecase.Usecase
}

func New(cfg config.Config, log logger.Logger, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.Spawner == nil {
		opts.Spawner = execproc.New()
	}
	if opts.Reveal == nil {
		opts.Reveal = filebrowser.New()
	}

	tracker := provision.NewTracker(cfg.BinaryPath())
	prov := provision.New(provision.Config{
		URL:          cfg.YtDlpURL,
		SettleDelay:  cfg.SettleDelay,
		MaxRedirects: cfg.MaxRedirects,
	}, tracker, opts.HTTPClient, log)

	sup := supervisor.New(opts.Spawner, log, opts.Supervisor...)
	uc := usecase.New(usecase.Deps{
		Runner: sup,
		Setup:  tracker,
		Video:  ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		Reveal: opts.Reveal,
		Log:    log,
	})

	return &Pipeline{cfg: cfg, log: log, tracker: tracker, prov: prov, uc: uc}, nil
}

// OnSetupStatus registers fn for every provisioning transition.
func (p *Pipeline) OnSetupStatus(fn func(types.SetupStatus)) {
	p.tracker.Subscribe(fn)
}

// Provision must finish before clip jobs are accepted. It runs once per
// process; a failure sticks until restart.
func (p *Pipeline) Provision(ctx context.Context) error {
	p.log.Infof("engine path: %s", p.tracker.BinaryPath())
	return p.prov.Ensure(ctx)
}

func (p *Pipeline) Setup() ports.SetupGate { return p.tracker }

// Clip starts one job and returns its event stream.
func (p *Pipeline) Clip(ctx context.Context, req types.ClipRequest) <-chan types.Event {
	return p.uc.Run(ctx, usecase.Input{
		Request:      req,
		DownloadsDir: p.cfg.DownloadsDir,
	})
}

// ensure adapters implement ports
var _ ports.Spawner = (*execproc.Spawner)(nil)
var _ ports.JobRunner = (*supervisor.Supervisor)(nil)
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Revealer = (*filebrowser.Revealer)(nil)
var _ ports.Revealer = filebrowser.Nop{}
var _ ports.SetupGate = (*provision.Tracker)(nil)
