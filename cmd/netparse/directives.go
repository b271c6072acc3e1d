package main

import (
	"fmt"
	"runtime"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/interpreters/filters"

	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var directivesCmd = &cobra.Command{
	Use:   "directives",
	Short: "List directives, aliases, and helper functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		aliases := make(map[string]string, len(core.Aliases))
		for name, a := range core.Aliases {
			s := a.Target
			if a.Deprecated {
				s += " (deprecated since " + a.Since + ")"
			}
			aliases[name] = s
		}

		funcs := make(map[string]string, len(filters.Funcs))
		for _, f := range filters.Funcs {
			funcs[f.Name] = f.Doc
		}

		return write(cmd.OutOrStdout(), map[string]interface{}{
			"directives": core.Directives(),
			"aliases":    aliases,
			"functions":  funcs,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "netparse v%s (%s %s/%s)\n",
			Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(directivesCmd, versionCmd)
}
