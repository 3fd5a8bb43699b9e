package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/roster/internal/output"
	"github.com/agenthands/roster/internal/seed"
)

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import organizations, contacts and attendance from YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), a.store, f)
			if err != nil {
				return err
			}
			return output.NewFormatter(a.format).Format(a.out, res)
		},
	}
}
