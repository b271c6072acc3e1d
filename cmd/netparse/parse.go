package main

import (
	"context"
	"fmt"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/rules"
	"github.com/Comcast/netparse/storage"
	"github.com/Comcast/netparse/storage/bolt"

	"github.com/spf13/cobra"
)

var parseOpts struct {
	dir      string
	file     string
	contents string
	text     string
	vars     map[string]string
	events   bool
	db       string
	host     string
	replace  bool
	quiet    bool
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Run rule documents against command output",
	Long: `Run the rule document given by --file (or every rule document in
--dir) against the command output given by --contents (a file name or
"-" for stdin) or --text.  Prints the merged facts.

With --db and --host, the facts are also stored.`,
	Example: `  netparse parse -f show_version.yaml -c show_version.txt
  show_interfaces | netparse parse -d rules/ios -c - -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		ev, err := evaluator()
		if err != nil {
			return err
		}

		task := &rules.Task{
			Dir:  parseOpts.dir,
			File: parseOpts.file,
		}
		switch {
		case parseOpts.contents != "" && parseOpts.text != "":
			return fmt.Errorf("--contents and --text are mutually exclusive")
		case parseOpts.contents == "-":
			task.Contents = rules.ReaderText{Reader: cmd.InOrStdin()}
		case parseOpts.contents != "":
			task.Contents = &rules.FileText{Filename: parseOpts.contents}
		case cmd.Flags().Changed("text"):
			task.Contents = rules.StaticText(parseOpts.text)
		}
		if 0 < len(parseOpts.vars) {
			task.Vars = make(map[string]interface{}, len(parseOpts.vars))
			for k, v := range parseOpts.vars {
				task.Vars[k] = v
			}
		}

		r, err := task.Run(ctx, ev)
		if err != nil {
			return err
		}

		if parseOpts.db != "" {
			if err := store(ctx, parseOpts.db, parseOpts.host, r, parseOpts.replace); err != nil {
				return err
			}
		}

		// With --verbose, the warnings are already logged.
		if !parseOpts.quiet && !parseOpts.events && !verbose {
			for _, w := range r.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
		}

		if parseOpts.events {
			return write(cmd.OutOrStdout(), r)
		}
		return write(cmd.OutOrStdout(), r.Facts)
	},
}

func store(ctx context.Context, filename, host string, r *rules.Result, replace bool) error {
	if host == "" {
		return fmt.Errorf("--db requires --host")
	}
	s, err := bolt.NewStorage(filename)
	if err != nil {
		return err
	}
	if err = s.Open(ctx); err != nil {
		return err
	}
	defer s.Close(ctx)

	var previous core.Facts
	if replace {
		if previous, err = s.GetFacts(ctx, host); err != nil {
			return err
		}
	}
	return s.WriteFacts(ctx, host, storage.AsFacts(r.Facts, previous, replace))
}

func init() {
	f := parseCmd.Flags()
	f.StringVarP(&parseOpts.dir, "dir", "d", "", "directory of rule documents")
	f.StringVarP(&parseOpts.file, "file", "f", "", "rule document")
	f.StringVarP(&parseOpts.contents, "contents", "c", "", `file with the text to parse ("-" for stdin)`)
	f.StringVar(&parseOpts.text, "text", "", "text to parse")
	f.StringToStringVar(&parseOpts.vars, "var", nil, "additional variable (name=value)")
	f.BoolVar(&parseOpts.events, "events", false, "also print warnings and traces")
	f.BoolVarP(&parseOpts.quiet, "quiet", "q", false, "don't print warnings to stderr")
	f.StringVar(&parseOpts.db, "db", "", "bbolt file for storing facts")
	f.StringVar(&parseOpts.host, "host", "", "host name for stored facts")
	f.BoolVar(&parseOpts.replace, "replace", false, "remove stored facts that this run didn't produce")
	rootCmd.AddCommand(parseCmd)
}
