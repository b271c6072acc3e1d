package main

import (
	"context"
	"os"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/rules"
	"github.com/Comcast/netparse/tools"

	"github.com/spf13/cobra"
)

var (
	cssFiles  []string
	highlight string
)

// documentFiles gives the rule document files for a file or
// directory name.
func documentFiles(name string) ([]string, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return rules.Files(name)
	}
	return []string{name}, nil
}

func readDocument(cmd *cobra.Command, filename string) (*core.Document, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ev, err := evaluator()
	if err != nil {
		return nil, err
	}
	return rules.ReadDocument(ctx, ev, filename)
}

var htmlCmd = &cobra.Command{
	Use:   "html FILE",
	Short: "Render a rule document as an HTML page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDocument(cmd, args[0])
		if err != nil {
			return err
		}
		return tools.RenderDocumentPage(doc, cmd.OutOrStdout(), cssFiles)
	},
}

var mermaidCmd = &cobra.Command{
	Use:   "mermaid FILE",
	Short: "Render a rule document as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDocument(cmd, args[0])
		if err != nil {
			return err
		}
		return tools.Mermaid(doc, cmd.OutOrStdout(), nil)
	},
}

var dotCmd = &cobra.Command{
	Use:   "dot FILE",
	Short: "Render a rule document as a Graphviz graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDocument(cmd, args[0])
		if err != nil {
			return err
		}
		return tools.Dot(doc, cmd.OutOrStdout(), highlight)
	},
}

func init() {
	htmlCmd.Flags().StringSliceVar(&cssFiles, "css", nil, "CSS files for the page")
	dotCmd.Flags().StringVar(&highlight, "highlight", "", "directive to highlight")
	rootCmd.AddCommand(htmlCmd, mermaidCmd, dotCmd)
}
