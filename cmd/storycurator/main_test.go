package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCommandPrintsRedactedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("capture:\n  batchSize: 7\nservices:\n  events:\n    url: http://events.local\n    apiKey: secret\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config command: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "batchSize: 7") {
		t.Fatalf("file value missing:\n%s", got)
	}
	if strings.Contains(got, "secret") || !strings.Contains(got, "***") {
		t.Fatalf("api key not redacted:\n%s", got)
	}
}
