package main

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	initmd "github.com/iansherr/nvim-initmd"
	"github.com/iansherr/nvim-initmd/internal/commands"
	"github.com/iansherr/nvim-initmd/internal/commands/pipelinecmd"
	"github.com/iansherr/nvim-initmd/internal/extract"
	"github.com/iansherr/nvim-initmd/internal/pipeline"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the pipeline without installing or persisting anything",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().Bool("diff", true, "show a block diff against the previous run")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	module, err := buildModule(cmd)
	if err != nil {
		return err
	}
	defer module.Close()

	file, _ := cmd.Flags().GetString("file")
	logger := commands.CommandLogger(module.Container().LoggerProvider(), "pipeline")

	var result *interfaces.RunResult
	handler := pipelinecmd.NewPlanHandler(module.Container().Pipeline(), logger, func(r *interfaces.RunResult) {
		result = r
	})
	if err := handler.Execute(cmd.Context(), pipelinecmd.PlanCommand{Document: file}); err != nil {
		return err
	}

	printRunSummary(cmd, result)

	if showDiff, _ := cmd.Flags().GetBool("diff"); showDiff {
		if err := printBlockDiff(cmd, module, file); err != nil {
			return err
		}
	}
	return nil
}

// printBlockDiff compares the current block dump against the one persisted
// by the last apply run, scoped to the same document set the plan run saw.
func printBlockDiff(cmd *cobra.Command, module *initmd.Module, file string) error {
	previous, err := module.Container().StateStore().LoadBlockDump(cmd.Context())
	if err != nil {
		return fmt.Errorf("load previous block dump: %w", err)
	}

	cfg := buildConfig(cmd)
	docs, err := planDocuments(cmd, module, file, cfg)
	if err != nil {
		return err
	}
	extractor := extract.New(extract.Config{
		Language:       cfg.Extract.Language,
		MainHeading:    cfg.Extract.MainHeading,
		PluginsHeading: cfg.Extract.PluginsHeading,
	}, nil)
	current := pipeline.DumpBlocks(extractor.ExtractAll(docs), 1)

	diff := strings.TrimSpace(udiff.Unified(
		"previous", "current",
		strings.Join(previous, "\n\n")+"\n",
		strings.Join(current, "\n\n")+"\n",
	))

	out := cmd.OutOrStdout()
	if diff == "" {
		fmt.Fprintln(out, color.GreenString("no block changes since last apply"))
		return nil
	}
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(out, color.GreenString("%s", line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(out, color.RedString("%s", line))
		default:
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

// planDocuments honors the same single-file sentinel the pipeline run does:
// a non-empty target restricts the diff to that document.
func planDocuments(cmd *cobra.Command, module *initmd.Module, file string, cfg initmd.Config) ([]*interfaces.Document, error) {
	target := file
	if target == "" {
		target = cfg.Documents.File
	}
	if target != "" {
		doc, err := module.Loader().Load(cmd.Context(), target)
		if err != nil {
			return nil, err
		}
		return []*interfaces.Document{doc}, nil
	}
	return module.Loader().LoadAll(cmd.Context())
}
