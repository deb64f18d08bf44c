package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/revaudit/internal/output"
	"github.com/dshills/revaudit/internal/policy"
)

func newPoliciesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies [name-or-file]",
		Short: "List built-in policies or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				p, err := policy.Resolve(args[0])
				if err != nil {
					return exitError(3, "failed to load policy: %v", err)
				}
				fmt.Fprint(a.ui.Out, policy.Describe(p))
				return nil
			}
			return listPolicies(a)
		},
	}
	return cmd
}

func listPolicies(a *app) error {
	names, err := policy.List()
	if err != nil {
		return fmt.Errorf("failed to list policies: %w", err)
	}

	table := a.ui.Table([]string{"Policy", "Min Trust", "Git Revs", "Exclusions"})
	for _, name := range names {
		p, err := policy.LoadBuiltin(name)
		if err != nil {
			return exitError(3, "%v", err)
		}
		if name == a.cfg.Policy {
			name += " *"
		}
		row := []string{
			name,
			output.TrustColor(p.MinTrust),
			fmt.Sprintf("%t", p.IncludeGitRevs),
			strings.Join(p.ViolationExclusions, ", "),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
