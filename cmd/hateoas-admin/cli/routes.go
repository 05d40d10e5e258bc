package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/openapi"
)

func newRoutesCmd() *cobra.Command {
	var opts sourceOptions
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List operations with their response schema and configured links",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			e, _, err := opts.engine(cmd.Context(), out)
			if err != nil {
				return err
			}
			lister, ok := e.Routes().(interface{ Routes() []openapi.Route })
			if !ok {
				return fmt.Errorf("route table cannot be listed")
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tPATH\tOPERATION\tSCHEMA\tLINKS")
			for _, r := range lister.Routes() {
				schema, links := "-", "-"
				if ref, err := e.Routes().SchemaForRoute(r.Path, r.Method); err == nil {
					if id := ref.Identity(); id != "" {
						schema = id
						links = linkSummary(e.Registry(), id)
					} else {
						schema = "(inline)"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Method, r.Path, orDash(r.OperationID), schema, links)
			}
			return tw.Flush()
		},
	}
	addSourceFlags(cmd, &opts)
	return cmd
}

func linkSummary(reg *hateoas.Registry, schema string) string {
	c, err := reg.Resolve(schema)
	if err != nil {
		return "-"
	}
	parts := make([]string, 0, len(c.Links))
	for op, name := range c.Links {
		s := name + "=" + op
		if _, ok := c.Conditions[name]; ok {
			s += "?"
		}
		parts = append(parts, s)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
