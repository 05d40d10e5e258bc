package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/gatewayserver"
)

func newValidateCmd() *cobra.Command {
	var opts sourceOptions
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check link configurations against the OpenAPI document",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			e, cfg, err := opts.engine(cmd.Context(), out)
			if err != nil {
				return err
			}
			warnings := e.Warnings()
			if strict && len(warnings) > 0 {
				return fmt.Errorf("%d warning(s) in strict mode", len(warnings))
			}
			fmt.Fprintf(out, "openapi: %s (%s)\n", gatewayserver.DocumentSource(cfg), e.Routes().Title())
			fmt.Fprintf(out, "configurations: %d\n", len(e.Registry().ListSchemaNames()))
			fmt.Fprintln(out, "validate: OK")
			return nil
		},
	}
	addSourceFlags(cmd, &opts)
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}
