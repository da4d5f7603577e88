package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iansherr/nvim-initmd/internal/commands"
	"github.com/iansherr/nvim-initmd/internal/commands/pipelinecmd"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Run the pipeline and reconcile installed plugins",
	RunE:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	module, err := buildModule(cmd)
	if err != nil {
		return err
	}
	defer module.Close()

	file, _ := cmd.Flags().GetString("file")
	logger := commands.CommandLogger(module.Container().LoggerProvider(), "pipeline")

	var result *interfaces.RunResult
	handler := pipelinecmd.NewApplyHandler(module.Container().Pipeline(), logger, func(r *interfaces.RunResult) {
		result = r
	})
	if err := handler.Execute(cmd.Context(), pipelinecmd.ApplyCommand{Document: file}); err != nil {
		return err
	}

	printRunSummary(cmd, result)
	return nil
}

func printRunSummary(cmd *cobra.Command, result *interfaces.RunResult) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(out, "%s %s\n", bold("run"), result.RunID)
	fmt.Fprintf(out, "  blocks   %d (%s changed, %s removed)\n",
		result.Blocks,
		yellow(fmt.Sprintf("%d", len(result.ChangedBlocks))),
		yellow(fmt.Sprintf("%d", len(result.RemovedBlocks))),
	)
	fmt.Fprintf(out, "  plugins  %s desired\n", green(fmt.Sprintf("%d", len(result.Desired))))
	fmt.Fprintf(out, "  setup    %d immediate, %d deferred\n", result.ImmediateRuns, result.DeferredQueued)
	for _, removal := range result.Removals {
		fmt.Fprintf(out, "  %s %s\n", red("removed"), removal)
	}
	for _, err := range result.Errors {
		fmt.Fprintf(out, "  %s %v\n", red("warning"), err)
	}
}
