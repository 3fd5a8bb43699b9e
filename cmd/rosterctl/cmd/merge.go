package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/output"
)

func newMergeCommand(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "merge <keep-id> <discard-id>",
		Short: "Merge a duplicate into the record to keep",
		Long: `merge fills empty fields of the kept record from the discarded one, moves
the discarded record's dependents (contacts of an organization, attendance of
a contact) and deletes it. A partially applied merge can be retried with the
same ids.`,
		Example: `  rosterctl merge 3f1c... 9a2e...
  rosterctl merge --kind contact bill william`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}

			var summary *model.MergeSummary
			if k == model.KindContact {
				summary, err = a.engine.MergeContacts(cmd.Context(), args[0], args[1])
			} else {
				summary, err = a.engine.MergeOrganizations(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				if errors.IsPartialMerge(err) {
					return fmt.Errorf("%w; rerun the same merge to finish it", err)
				}
				return err
			}

			if a.format == output.FormatTable {
				fmt.Fprintln(a.out, summary.Message)
				return nil
			}
			return output.NewFormatter(a.format).Format(a.out, summary)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "organization", "record kind: organization or contact")
	return cmd
}
