package main

import (
	"context"
	"fmt"

	"github.com/Comcast/netparse/rules"
	"github.com/Comcast/netparse/tools"

	"github.com/spf13/cobra"
)

var checkVars []string

var checkCmd = &cobra.Command{
	Use:   "check FILE|DIR ...",
	Short: "Compile rule documents and report suspicious names",
	Long: `Compile each rule document (a directory means every rule document in
it) and print an analysis.  Compilation errors (unknown directives, bad
regular expressions, bad templates) make the command fail.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ev, err := evaluator()
		if err != nil {
			return err
		}

		var files []string
		for _, arg := range args {
			fs, err := documentFiles(arg)
			if err != nil {
				return err
			}
			files = append(files, fs...)
		}

		acc := make(map[string]*tools.DocumentAnalysis, len(files))
		for _, filename := range files {
			doc, err := rules.ReadDocument(ctx, ev, filename)
			if err != nil {
				return err
			}
			a, err := tools.Analyze(doc, checkVars...)
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			acc[filename] = a
		}
		return write(cmd.OutOrStdout(), acc)
	},
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkVars, "vars", nil, "names that runs will bind (besides contents)")
	rootCmd.AddCommand(checkCmd)
}
