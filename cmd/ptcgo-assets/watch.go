package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/PTCGO-Assets/internal/pipeline"
	"github.com/ramonehamilton/PTCGO-Assets/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-process assets whenever source images change",
	Long: `Watches the downloaded and external source trees and runs the process
task after changes settle. Existing variants are kept, so only new sources
produce new files.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	debounce, err := e.cfg.Debounce()
	if err != nil {
		return err
	}

	roots := []string{
		e.cfg.Paths.Sources,
		e.cfg.Paths.External,
	}
	w := watch.New(roots, debounce, e.logger, func(ctx context.Context, _ []string) error {
		return e.pipeline.Run(ctx, pipeline.TaskProcess)
	})
	return w.Run(cmd.Context())
}
