// Package version carries build metadata for the gateway binaries.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Product names the gateway in banners and the Via header it adds.
const Product = "hateoas-gateway"

var (
	// Version is set via ldflags:
	// go build -ldflags "-X github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version.Version=v0.3.0"
	Version = "dev"

	Commit = "unknown"

	// BuildDate is RFC3339.
	BuildDate = "unknown"
)

type Info struct {
	Product   string `json:"product"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Product:   Product,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Banner renders the -V output of one binary of the product.
func (i Info) Banner(binary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", binary, i.Version)
	if binary != i.Product {
		fmt.Fprintf(&b, " (%s)", i.Product)
	}
	fmt.Fprintf(&b, "\ncommit: %s\nbuilt at: %s\ngo: %s %s", i.Commit, i.BuildDate, i.GoVersion, i.Platform)
	return b.String()
}

func Short() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return fmt.Sprintf("%s (%s)", Version, Commit[:7])
	}
	return Version
}

// Via is the value the gateway appends to the Via header of requests it
// forwards downstream.
func Via() string {
	return "1.1 " + Product + "/" + Version
}
