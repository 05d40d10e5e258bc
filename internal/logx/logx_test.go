package logx

import (
	"strings"
	"testing"
	"time"
)

func TestFormatRequestLine(t *testing.T) {
	ts := time.Date(2026, 10, 19, 17, 44, 22, 0, time.UTC)
	got := FormatRequestLine(ts, 200, 3*time.Millisecond, " 127.0.0.1 ", "GET", "/thoughts", map[string]any{
		"route":           "/thoughts",
		"upstream_status": 200,
		"links":           4,
		"suppressed":      0,
		"request_id":      "",
	}, false)
	want := `[HGW] 2026/10/19 - 17:44:22 | 200 | 3ms | 127.0.0.1 | GET "/thoughts" | links=4 route=/thoughts upstream_status=200`
	if got != want {
		t.Fatalf("got=%q\nwant=%q", got, want)
	}
}

func TestFormatRequestLine_NoFields(t *testing.T) {
	got := FormatRequestLine(time.Now(), 502, time.Second, "::1", "POST", "/thoughts", nil, false)
	if strings.Contains(got, " | | ") || strings.HasSuffix(got, "| ") {
		t.Fatalf("unexpected trailing separator: %q", got)
	}
}

func TestColorizeStatus(t *testing.T) {
	if got := ColorizeStatus(404, false); got != "404" {
		t.Fatalf("got=%q", got)
	}
	cases := map[int]string{200: "\x1b[32m", 302: "\x1b[36m", 404: "\x1b[33m", 500: "\x1b[31m"}
	for status, prefix := range cases {
		got := ColorizeStatus(status, true)
		if !strings.HasPrefix(got, prefix) || !strings.HasSuffix(got, "\x1b[0m") {
			t.Fatalf("status %d: got=%q", status, got)
		}
	}
}

func TestFormatFields_FloatNoScientificNotation(t *testing.T) {
	out := formatFields(map[string]any{"ratio": 1.2e-06})
	if strings.Contains(out, "e-") {
		t.Fatalf("unexpected scientific notation: %q", out)
	}
	if out != "ratio=0.0000012" {
		t.Fatalf("got=%q", out)
	}
}
