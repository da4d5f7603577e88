package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show documents and tracked state from the last run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	module, err := buildModule(cmd)
	if err != nil {
		return err
	}
	defer module.Close()

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()

	docs, err := module.Loader().LoadAll(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", color.RedString("documents"), err)
	} else {
		fmt.Fprintf(out, "%s %d\n", bold("documents"), len(docs))
		for _, doc := range docs {
			fmt.Fprintf(out, "  %s\n", doc.FilePath)
		}
	}

	store := module.Container().StateStore()
	ledger, err := store.LoadLedger(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d blocks\n", bold("tracked"), len(ledger))

	indices := make([]int, 0, len(ledger))
	for index := range ledger {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	for _, index := range indices {
		hash := ledger[index]
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(out, "  %3d %s\n", index, hash)
	}
	return nil
}
