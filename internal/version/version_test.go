package version

import (
	"strings"
	"testing"
)

func TestBanner(t *testing.T) {
	info := Info{Product: Product, Version: "v1.0.0", Commit: "abc", BuildDate: "2026-01-01T00:00:00Z", GoVersion: "go1.25.3", Platform: "linux/amd64"}

	got := info.Banner(Product)
	if !strings.HasPrefix(got, "hateoas-gateway v1.0.0\ncommit: abc\n") {
		t.Fatalf("banner=%q", got)
	}
	if !strings.HasSuffix(got, "go: go1.25.3 linux/amd64") {
		t.Fatalf("banner=%q", got)
	}

	got = info.Banner("thoughts-api")
	if !strings.HasPrefix(got, "thoughts-api v1.0.0 (hateoas-gateway)\n") {
		t.Fatalf("banner=%q", got)
	}
}

func TestShortAndVia(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "v0.3.0", "unknown"
	if Short() != "v0.3.0" {
		t.Fatalf("short=%q", Short())
	}
	Commit = "0123456789abcdef"
	if Short() != "v0.3.0 (0123456)" {
		t.Fatalf("short=%q", Short())
	}
	if Via() != "1.1 hateoas-gateway/v0.3.0" {
		t.Fatalf("via=%q", Via())
	}
}
