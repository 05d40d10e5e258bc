package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newTransformCmd() *cobra.Command {
	var opts sourceOptions
	var path, method, in string
	var stats bool
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Decorate a JSON response body offline",
		Example: "  hateoas-admin transform --openapi ./openapi.json --path /thoughts --in body.json\n" +
			"  curl -s localhost:5000/thoughts | hateoas-admin transform -c gw.yaml --path /thoughts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("--path is required")
			}
			e, _, err := opts.engine(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			body, err := readInput(cmd.InOrStdin(), in)
			if err != nil {
				return err
			}
			out, st, err := e.Decorate(cmd.Context(), body, path, method)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if _, err := w.Write(out); err != nil {
				return err
			}
			fmt.Fprintln(w)
			if stats {
				fmt.Fprintf(cmd.ErrOrStderr(), "objects=%d decorated=%d links=%d suppressed=%d unconfigured=%d\n",
					st.ObjectsVisited, st.ObjectsDecorated, st.LinksEmitted, st.LinksSuppressed, st.Unconfigured)
			}
			return nil
		},
	}
	addSourceFlags(cmd, &opts)
	fs := cmd.Flags()
	fs.StringVar(&path, "path", "", "OpenAPI path template of the operation, e.g. /thoughts/{thoughtId}")
	fs.StringVar(&method, "method", "GET", "HTTP method of the operation (GET or POST)")
	fs.StringVar(&in, "in", "-", "input file, - for stdin")
	fs.BoolVar(&stats, "stats", false, "print transform counters to stderr")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	p := strings.TrimSpace(path)
	if p == "" || p == "-" {
		return io.ReadAll(stdin)
	}
	// #nosec G304 -- input path comes from the command line.
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read input %q: %w", p, err)
	}
	return b, nil
}
