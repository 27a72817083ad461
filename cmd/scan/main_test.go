package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Kolgejt/internal/model"
)

func mockConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "data_source: {provider: mock}\n" +
		"universe: {market: custom, tickers: [AAA, BBB]}\n" +
		"cache: {sqlite_path: " + filepath.Join(dir, "bars.db") + "}\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_ScanPrintsReport(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", mockConfig(t), "-strategy", "sma", "-param", "50"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	var report model.ScanReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not a report: %v\n%s", err, stdout.String())
	}
	if report.Total != 2 || report.Processed != 2 || len(report.Signals) != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
	if !strings.Contains(stderr.String(), "scanned 2/2") {
		t.Errorf("expected progress on stderr, got %q", stderr.String())
	}
}

func TestRun_FailuresReturnExitCode(t *testing.T) {
	cfg := mockConfig(t)
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown mode", []string{"-config", cfg, "-mode", "chart"}, `unknown mode "chart"`},
		{"bad strategy", []string{"-config", cfg, "-strategy", "macd"}, "unknown strategy"},
		{"deeper than history", []string{"-config", cfg, "-strategy", "sma", "-param", "300"}, "scan:"},
		{"no fundamentals", []string{"-config", cfg, "-mode", "fundamentals"}, "not available"},
		{"bad flag", []string{"-workers", "3"}, "flag provided but not defined"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tc.args, &stdout, &stderr); code != 1 {
				t.Errorf("expected exit 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), tc.want) {
				t.Errorf("expected %q on stderr, got %q", tc.want, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("expected nothing on stdout, got %q", stdout.String())
			}
		})
	}
}
