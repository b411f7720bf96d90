package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/SurveyIntake/internal/schema"
)

func newSchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List registered schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tKIND\tFILES\tLABEL")
			for _, def := range schema.All() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", def.Key, def.Kind, len(def.Document.Files), def.Label)
			}
			return tw.Flush()
		},
	}
}
