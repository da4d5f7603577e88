package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	initmd "github.com/iansherr/nvim-initmd"
	"github.com/iansherr/nvim-initmd/internal/commands"
	"github.com/iansherr/nvim-initmd/internal/commands/pipelinecmd"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rerun apply whenever the documents change",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := buildConfig(cmd)
	cfg.Watch.Enabled = true

	module, err := initmd.New(cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	logger := commands.CommandLogger(module.Container().LoggerProvider(), "pipeline")
	out := cmd.OutOrStdout()

	apply := func() {
		var result *interfaces.RunResult
		handler := pipelinecmd.NewApplyHandler(module.Container().Pipeline(), logger, func(r *interfaces.RunResult) {
			result = r
		})
		if err := handler.Execute(cmd.Context(), pipelinecmd.ApplyCommand{}); err != nil {
			fmt.Fprintf(out, "%s %v\n", color.RedString("apply failed:"), err)
			return
		}
		printRunSummary(cmd, result)
	}

	// One pass up front so the watcher starts from a reconciled state.
	apply()

	watcher := module.Watcher()
	watcher.OnChange(func(paths []string) {
		fmt.Fprintf(out, "%s %d document(s) changed\n", color.YellowString("watch:"), len(paths))
		apply()
	})

	fmt.Fprintln(out, color.CyanString("watching %s (ctrl-c to stop)", cfg.Documents.Dir))
	if err := watcher.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
