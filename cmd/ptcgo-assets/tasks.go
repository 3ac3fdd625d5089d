package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/PTCGO-Assets/internal/pipeline"
)

var taskCommands = []struct {
	name  string
	short string
}{
	{pipeline.TaskCardSources, "Build the card manifest and download missing card sources"},
	{pipeline.TaskExpansionSources, "Download missing expansion logos and symbols"},
	{pipeline.TaskCardProcess, "Produce every card size and format"},
	{pipeline.TaskExpansionProcess, "Produce expansion logos, symbols and pack images"},
	{pipeline.TaskSources, "Run card-sources and expansion-sources in parallel"},
	{pipeline.TaskProcess, "Run card-process and expansion-process in parallel"},
	{pipeline.TaskAssets, "Download and process cards and expansions"},
}

func init() {
	for _, task := range taskCommands {
		rootCmd.AddCommand(&cobra.Command{
			Use:   task.name,
			Short: task.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTask(cmd, task.name)
			},
		})
	}
}

func runTask(cmd *cobra.Command, name string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.pipeline.Run(cmd.Context(), name); err != nil {
		e.logger.Error("Task failed", zap.String("task", name), zap.Error(err))
		return err
	}
	return nil
}
