package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "ytclip <url>",
		Short:        "Download a time range of an online video as MP4",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClip(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("start", "", "Clip start (HH:MM:SS)")
	root.Flags().String("end", "", "Clip end (HH:MM:SS)")
	root.Flags().String("name", "clip", "Output file name (without extension)")
	root.Flags().String("quality", "best", "Max video height, e.g. 720, or best")
	root.Flags().Bool("no-reveal", false, "Do not open the file manager after a successful clip")
	_ = root.MarkFlagRequired("start")
	_ = root.MarkFlagRequired("end")

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Download the engine binary if missing and report status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd)
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP bridge for a browser front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	serve.Flags().String("addr", "", "Listen address (default $YTCLIP_ADDR)")

	root.AddCommand(setup, serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
