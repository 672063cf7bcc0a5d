package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediabin/internal/config"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Namespace = "clitest"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestStatusQueueDeleteFlow(t *testing.T) {
	configPath := writeTestConfig(t)

	source := filepath.Join(t.TempDir(), "clip.gif")
	if err := os.WriteFile(source, []byte("gif payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, err := runCommand(t, configPath, "ingest", source)
	if err != nil {
		t.Fatalf("ingest failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Stored clip.gif as ") {
		t.Fatalf("unexpected ingest output: %q", out)
	}
	identifier := strings.TrimSpace(out[strings.LastIndex(out, " ")+1:])
	if len(identifier) != 12 {
		t.Fatalf("identifier %q has unexpected length", identifier)
	}

	out, err = runCommand(t, configPath, "status", identifier)
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "processing") {
		t.Fatalf("expected processing before a worker runs, got %q", out)
	}

	out, err = runCommand(t, configPath, "queue")
	if err != nil {
		t.Fatalf("queue failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, identifier) {
		t.Fatalf("queue listing missing %s:\n%s", identifier, out)
	}

	out, err = runCommand(t, configPath, "show", identifier)
	if err != nil {
		t.Fatalf("show failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, identifier+".gif") {
		t.Fatalf("show output missing filename:\n%s", out)
	}

	out, err = runCommand(t, configPath, "delete", identifier)
	if err != nil {
		t.Fatalf("delete failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Deleted "+identifier) {
		t.Fatalf("unexpected delete output: %q", out)
	}

	if _, err = runCommand(t, configPath, "show", identifier); err == nil {
		t.Fatal("show must fail after deletion")
	}
}

func TestIngestDuplicateReported(t *testing.T) {
	configPath := writeTestConfig(t)

	source := filepath.Join(t.TempDir(), "dup.png")
	if err := os.WriteFile(source, []byte("same bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if out, err := runCommand(t, configPath, "ingest", source); err != nil {
		t.Fatalf("first ingest failed: %v\n%s", err, out)
	}
	out, err := runCommand(t, configPath, "ingest", source)
	if err != nil {
		t.Fatalf("second ingest failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Already stored as ") {
		t.Fatalf("expected duplicate notice, got %q", out)
	}
}

func TestIngestRejectsUnsupportedExtension(t *testing.T) {
	configPath := writeTestConfig(t)

	source := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(source, []byte("text"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if _, err := runCommand(t, configPath, "ingest", source); err == nil {
		t.Fatal("expected rejection for unsupported extension")
	}
}

func TestStatusUnknownIdentifierIsDone(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "status", "neverseen000")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "done") {
		t.Fatalf("unknown identifier must report done, got %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out.String())
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing [paths] section:\n%s", data)
	}
}

func TestQueueEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "queue")
	if err != nil {
		t.Fatalf("queue failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected queue output: %q", out)
	}
}
