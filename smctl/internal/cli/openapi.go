package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/secretsmanager"
)

func newOpenAPICmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of an API generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := generationFlag(cmd)
			if err != nil {
				return err
			}
			doc, err := secretsmanager.OpenAPIDocument(cmd.Context(), gen)
			if err != nil {
				return err
			}
			if out == "" {
				return writeValue(cmd, doc)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("output")
			if err := encode(f, format, doc); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write to a file instead of stdout")
	return cmd
}
