package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/config"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/gatewayserver"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
)

func main() {
	var cfgPath string
	var signalCmd string
	var testConfig bool
	var showVersion bool
	flag.StringVar(&cfgPath, "config", "hateoas-gateway.yaml", "path to config yaml")
	flag.StringVar(&cfgPath, "c", "hateoas-gateway.yaml", "path to config yaml (alias of --config)")
	flag.StringVar(&signalCmd, "s", "", "send signal to a running gateway (supported: reload)")
	flag.BoolVar(&testConfig, "t", false, "test config, load the OpenAPI document and link configurations, then exit")
	flag.BoolVar(&showVersion, "V", false, "show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Get().Banner(version.Product))
		return
	}

	if strings.TrimSpace(signalCmd) != "" {
		switch strings.ToLower(strings.TrimSpace(signalCmd)) {
		case "reload":
			if err := sendReloadSignal(cfgPath); err != nil {
				_, _ = fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			return
		default:
			_, _ = fmt.Fprintln(os.Stderr, "unsupported -s value: "+strings.TrimSpace(signalCmd)+" (supported: reload)")
			os.Exit(2)
		}
	}

	if testConfig {
		// nginx-like: `hateoas-gateway -t ./hateoas-gateway.yaml`
		if flag.NArg() == 1 && strings.TrimSpace(flag.Arg(0)) != "" {
			cfgPath = strings.TrimSpace(flag.Arg(0))
		}
		if err := runConfigTest(cfgPath); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "error: "+err.Error())
			os.Exit(1)
		}
		fmt.Println("configuration ok")
		return
	}

	if err := gatewayserver.Run(cfgPath); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func runConfigTest(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fmt.Println("ok: config")

	e, err := gatewayserver.LoadEngine(context.Background(), cfg, nil)
	if err != nil {
		return err
	}
	fmt.Printf("ok: openapi %s (%s)\n", gatewayserver.DocumentSource(cfg), e.Routes().Title())
	fmt.Printf("ok: link configurations=%d warnings=%d\n", len(e.Registry().ListSchemaNames()), len(e.Warnings()))
	return nil
}

func sendReloadSignal(cfgPath string) error {
	pidFile, err := pidFileFromConfig(cfgPath)
	if err != nil {
		return err
	}
	// #nosec G304 -- pid file path comes from trusted config/env.
	b, err := os.ReadFile(pidFile)
	if err != nil {
		return fmt.Errorf("read pid file %q: %w", pidFile, err)
	}
	pidStr := strings.TrimSpace(string(b))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return fmt.Errorf("invalid pid in %q: %q", pidFile, pidStr)
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process pid=%d: %w", pid, err)
	}
	if err := p.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("send SIGHUP pid=%d: %w", pid, err)
	}
	return nil
}

// pidFileFromConfig reads only server.pid_file so a signal can be sent even
// when the rest of the config would not validate.
func pidFileFromConfig(cfgPath string) (string, error) {
	if v := strings.TrimSpace(os.Getenv("HGW_PID_FILE")); v != "" {
		return v, nil
	}
	path := strings.TrimSpace(cfgPath)
	if path == "" {
		return "", fmt.Errorf("no config path given")
	}
	// #nosec G304 -- config path comes from trusted flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config %q: %w", path, err)
	}
	var partial struct {
		Server struct {
			PidFile string `yaml:"pid_file"`
		} `yaml:"server"`
	}
	if err := yaml.Unmarshal(b, &partial); err != nil {
		return "", fmt.Errorf("parse config %q: %w", path, err)
	}
	if v := strings.TrimSpace(partial.Server.PidFile); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("config %q has no server.pid_file", path)
}
