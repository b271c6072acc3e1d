package main

import (
	"context"

	"github.com/Comcast/netparse/storage/bolt"

	"github.com/spf13/cobra"
)

var (
	factsDB     string
	factsRemove bool
)

var factsCmd = &cobra.Command{
	Use:   "facts [HOST]",
	Short: "Show stored facts",
	Long: `Without a HOST, list the hosts with stored facts.  With a HOST,
print its facts (or remove them with --rm).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := bolt.NewStorage(factsDB)
		if err != nil {
			return err
		}
		if err = s.Open(ctx); err != nil {
			return err
		}
		defer s.Close(ctx)

		if len(args) == 0 {
			hosts, err := s.Hosts(ctx)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), hosts)
		}

		if factsRemove {
			return s.RemHost(ctx, args[0])
		}

		fs, err := s.GetFacts(ctx, args[0])
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), fs)
	},
}

func init() {
	factsCmd.Flags().StringVar(&factsDB, "db", "facts.db", "bbolt file")
	factsCmd.Flags().BoolVar(&factsRemove, "rm", false, "remove the host's facts")
	rootCmd.AddCommand(factsCmd)
}
