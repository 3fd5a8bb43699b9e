package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDismissCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id> <id>",
		Short: "Record that two records are not duplicates",
		Long: `dismiss stores the pair in the dismissal ledger. The pair is left out of
every later candidate list until dismissals are cleared.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.engine.Dismiss(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Dismissed %s\n", key)
			return nil
		},
	}
}

func newDismissalsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismissals",
		Short: "Inspect or clear the dismissal ledger",
	}

	check := &cobra.Command{
		Use:   "check <id> <id>",
		Short: "Report whether a pair has been dismissed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dismissed, err := a.engine.IsDismissed(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, dismissed)
			return nil
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every dismissal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear all dismissals without --yes")
			}
			if err := a.engine.ClearDismissals(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Cleared all dismissals")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the ledger")

	cmd.AddCommand(check, clearCmd)
	return cmd
}
