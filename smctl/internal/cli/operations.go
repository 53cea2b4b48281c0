package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/secretsmanager"
)

func newOperationsCmd() *cobra.Command {
	var wide bool
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the operations of an API generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := generationFlag(cmd)
			if err != nil {
				return err
			}
			specs := secretsmanager.Operations(gen)

			if format, _ := cmd.Flags().GetString("output"); format == "yaml" || format == "yml" {
				out := make([]map[string]any, 0, len(specs))
				for _, s := range specs {
					out = append(out, map[string]any{
						"id": s.ID, "method": s.Method, "path": s.Path, "required": s.Required(),
					})
				}
				return writeValue(cmd, out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMETHOD\tPATH\tREQUIRED")
			for _, s := range specs {
				path := s.Path
				if !wide {
					path = strings.TrimPrefix(path, "/api/v1")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Method, path, strings.Join(s.Required(), ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&wide, "wide", false, "Show full paths")
	return cmd
}
