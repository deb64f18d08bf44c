package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/revaudit/internal/vet"
)

func newCriteriaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "criteria",
		Short: "List the audit criteria declared in exported documents",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.ui.Criteria(&vet.AuditsFile{Criteria: vet.StandardCriteria()})
		},
	}
}
