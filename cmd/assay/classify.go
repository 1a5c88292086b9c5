package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/assay/internal/workflow"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <material>...",
		Short: "Classify one or more materials in order and print the outcomes as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			return a.report(workflow.Batch(cmd.Context(), rt, args, 1))
		},
	}
}
