package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/output"
)

func newCandidatesCommand(a *app) *cobra.Command {
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List ranked duplicate candidates",
		Example: `  rosterctl candidates
  rosterctl candidates --kind contact --limit 20 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if k == model.KindContact {
				cands, err := a.engine.ContactCandidates(ctx, true)
				if err != nil {
					return err
				}
				cands = head(cands, limit)
				return a.print(output.Candidates(cands), cands)
			}
			cands, err := a.engine.OrganizationCandidates(ctx, true)
			if err != nil {
				return err
			}
			cands = head(cands, limit)
			return a.print(output.Candidates(cands), cands)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "organization", "record kind: organization or contact")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n candidates (0 for all)")
	return cmd
}

func newClustersCommand(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group candidates into clusters of linked records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if k == model.KindContact {
				clusters, err := a.engine.ContactClusters(ctx, true)
				if err != nil {
					return err
				}
				return a.print(output.Clusters(clusters), clusters)
			}
			clusters, err := a.engine.OrganizationClusters(ctx, true)
			if err != nil {
				return err
			}
			return a.print(output.Clusters(clusters), clusters)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "organization", "record kind: organization or contact")
	return cmd
}

func newDependentsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dependents <kind> <id>",
		Short: "List records attached to an organization or contact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(args[0])
			if err != nil {
				return err
			}
			deps, err := a.engine.Dependents(cmd.Context(), k, args[1])
			if err != nil {
				return err
			}
			return a.print(output.Dependents(deps), deps)
		},
	}
}

func head[T any](list []T, n int) []T {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}
