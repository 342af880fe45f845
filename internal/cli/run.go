package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/ytclip/internal/config"
	"github.com/forPelevin/ytclip/internal/logger"
	"github.com/forPelevin/ytclip/internal/pipeline"
	"github.com/forPelevin/ytclip/internal/ports/adapters/filebrowser"
	"github.com/forPelevin/ytclip/internal/transport/httpapi"
	"github.com/forPelevin/ytclip/internal/types"
	"github.com/forPelevin/ytclip/internal/usecase"
)

func runClip(cmd *cobra.Command, url string) error {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	name, _ := cmd.Flags().GetString("name")
	quality, _ := cmd.Flags().GetString("quality")
	noReveal, _ := cmd.Flags().GetBool("no-reveal")

	req := types.ClipRequest{
		SourceURL:  url,
		StartTime:  start,
		EndTime:    end,
		OutputName: name,
		Quality:    quality,
	}
	// Bad input never costs a download.
	if err := usecase.Validate(req); err != nil {
		return errors.New(usecase.UserMessage(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := pipeline.Options{}
	if noReveal {
		opts.Reveal = filebrowser.Nop{}
	}
	p, err := newPipeline(cmd, opts)
	if err != nil {
		return err
	}
	if err := p.Provision(ctx); err != nil {
		return err
	}

	return printEvents(cmd.OutOrStdout(), cmd.ErrOrStderr(), p.Clip(ctx, req))
}

func runSetup(cmd *cobra.Command) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := newPipeline(cmd, pipeline.Options{})
	if err != nil {
		return err
	}
	if err := p.Provision(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.Setup().BinaryPath())
	return nil
}

func runServe(cmd *cobra.Command) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := config.Load()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	p, err := pipeline.New(cfg, log, pipeline.Options{})
	if err != nil {
		return err
	}
	// Clip requests get 503 until this finishes.
	go func() {
		if err := p.Provision(ctx); err != nil {
			log.Errorf("setup: %v", err)
		}
	}()

	h := httpapi.NewHTTPHandler(httpapi.NewHandler(p, log), cfg.AllowedOrigins)
	return httpapi.ListenAndServe(ctx, cfg.Addr, h, log)
}

func newPipeline(cmd *cobra.Command, opts pipeline.Options) (*pipeline.Pipeline, error) {
	cfg := config.Load()
	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	p, err := pipeline.New(cfg, log, opts)
	if err != nil {
		return nil, err
	}
	stderr := cmd.ErrOrStderr()
	p.OnSetupStatus(func(s types.SetupStatus) {
		fmt.Fprintf(stderr, "[setup] %s: %s\n", s.Status, s.Message)
	})
	return p, nil
}

// printEvents writes tool output to stdout and progress to stderr, and turns
// the outcome into the command's result.
func printEvents(stdout, stderr io.Writer, events <-chan types.Event) error {
	var outcome *types.JobOutcome
	for ev := range events {
		switch ev.Kind {
		case types.EventProgress:
			fmt.Fprintf(stderr, "progress: %.1f%%\n", ev.Percent)
		case types.EventLog:
			if ev.Stream == types.StreamStdout {
				fmt.Fprint(stdout, ev.Text)
			} else {
				fmt.Fprint(stderr, ev.Text)
			}
		case types.EventOutcome:
			outcome = ev.Outcome
		}
	}
	if outcome == nil {
		return errors.New("job ended without an outcome")
	}
	if !outcome.Success {
		return errors.New(outcome.ErrorMessage)
	}
	fmt.Fprintf(stdout, "\nSaved: %s\n", outcome.OutputPath)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
