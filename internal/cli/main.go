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
		Use:          "clipscan",
		Short:        "Detect copyrighted music in videos and cut muted clips",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true
	root.PersistentFlags().String("config", "", "Path to TOML config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	scan := &cobra.Command{
		Use:   "scan <video>",
		Short: "Scan a local video for recognized music",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0])
		},
	}
	scan.Flags().Float64("max-duration", 0, "Only scan the first N seconds (0 = full video)")

	clip := &cobra.Command{
		Use:   "clip <video> <start> <end>",
		Short: "Cut a muted clip between two timecodes (MM:SS or HH:MM:SS)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClip(cmd, args[0], args[1], args[2])
		},
	}
	clip.Flags().String("out", ".", "Output directory")

	root.AddCommand(serve, scan, clip)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
