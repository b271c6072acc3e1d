package main

import (
	"fmt"
	"log"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/interpreters"
	"github.com/Comcast/netparse/util"

	"github.com/spf13/cobra"
)

var (
	verbose       bool
	evaluatorName string
)

var rootCmd = &cobra.Command{
	Use:   "netparse",
	Short: "Parse network device output into facts",
	Long: `netparse runs rule documents (YAML or JSON lists of directives)
against raw command output and prints the facts that the documents
export.

Directives:
  block            group directives
  pattern_match    match a regular expression
  json_template    build a structure from templates
  export_facts     add facts directly
  parser_metadata  describe the document`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)
		util.Logging = verbose
		core.ActionWarnings = verbose
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log what happens")
	rootCmd.PersistentFlags().StringVarP(&evaluatorName, "evaluator", "e", interpreters.DefaultName,
		"expression evaluator (goja, ecmascript, expr, lookup)")
}

func evaluator() (core.Evaluator, error) {
	ev, err := interpreters.Find(evaluatorName)
	if err != nil {
		return nil, fmt.Errorf("evaluator %q: %w", evaluatorName, err)
	}
	return ev, nil
}
