// Package cli implements hateoas-admin, the offline companion of the
// gateway: it checks link configurations against an OpenAPI document and
// previews decorated responses.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/config"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/gatewayserver"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
)

func Run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hateoas-admin",
		Short:         "HATEOAS gateway admin CLI",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newValidateCmd(),
		newRoutesCmd(),
		newTransformCmd(),
	)
	return cmd
}

// sourceOptions selects the OpenAPI document and link file. Flags override
// the gateway config; without --openapi the config file is required.
type sourceOptions struct {
	cfgPath string
	openapi string
	links   string
}

func addSourceFlags(cmd *cobra.Command, opts *sourceOptions) {
	fs := cmd.Flags()
	fs.StringVarP(&opts.cfgPath, "config", "c", "hateoas-gateway.yaml", "gateway config yaml path")
	fs.StringVar(&opts.openapi, "openapi", "", "OpenAPI document file or URL (overrides config)")
	fs.StringVar(&opts.links, "links", "", "link configuration file (overrides config links.file)")
}

func (o sourceOptions) config() (*config.Config, error) {
	openapiSrc := strings.TrimSpace(o.openapi)
	var cfg *config.Config
	if openapiSrc == "" {
		c, err := config.Load(strings.TrimSpace(o.cfgPath))
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		cfg = &config.Config{}
		cfg.OpenAPI.TimeoutMs = 10000
		cfg.OpenAPI.File = openapiSrc
	}
	if l := strings.TrimSpace(o.links); l != "" {
		cfg.Links.File = l
	}
	return cfg, nil
}

// engine builds the engine the gateway would run with. Load warnings are
// written to w.
func (o sourceOptions) engine(ctx context.Context, w io.Writer) (*hateoas.Engine, *config.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	prev := log.Writer()
	prevFlags := log.Flags()
	log.SetOutput(w)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prev)
		log.SetFlags(prevFlags)
	}()
	e, err := gatewayserver.LoadEngine(ctx, cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}
