package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the literate documents to HTML",
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("output", "o", "", "write HTML to a file instead of stdout")
}

func runPreview(cmd *cobra.Command, _ []string) error {
	module, err := buildModule(cmd)
	if err != nil {
		return err
	}
	defer module.Close()

	file, _ := cmd.Flags().GetString("file")

	var html []byte
	if file != "" {
		doc, err := module.Loader().Load(cmd.Context(), file)
		if err != nil {
			return err
		}
		html, err = module.Renderer().Preview(doc)
		if err != nil {
			return err
		}
	} else {
		docs, err := module.Loader().LoadAll(cmd.Context())
		if err != nil {
			return err
		}
		html, err = module.Renderer().PreviewAll(docs)
		if err != nil {
			return err
		}
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		return os.WriteFile(output, html, 0o644)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(html))
	return err
}
