package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	docsDir    string
	docsFormat string
)

var docsCmd = &cobra.Command{
	Use:   "gen-docs",
	Short: "Generate reference documentation",
	Long: `Write reference pages for every fuji command into a directory.

Man pages go under section 1; markdown and reST output one file per
command, suitable for publishing alongside the repository.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsDir, "dir", "docs", "directory to write pages into")
	docsCmd.Flags().StringVar(&docsFormat, "format", "man", "page format: man, markdown, or rest")
}

func runDocs(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return fmt.Errorf("create docs dir: %w", err)
	}

	var err error
	switch docsFormat {
	case "man":
		err = doc.GenManTree(cmd.Root(), &doc.GenManHeader{
			Title:   "FUJI",
			Section: "1",
			Source:  "fuji " + version,
			Manual:  "Fuji Manual",
		}, docsDir)
	case "markdown":
		err = doc.GenMarkdownTree(cmd.Root(), docsDir)
	case "rest":
		err = doc.GenReSTTree(cmd.Root(), docsDir)
	default:
		return fmt.Errorf("unknown format %q (use man, markdown, or rest)", docsFormat)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "wrote %s pages to %s\n", docsFormat, docsDir)
	return nil
}
