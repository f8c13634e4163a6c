package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benedict-erwin/ajq"
)

func TestInitConfig_Create(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ajq.yaml")
	if err := initConfig(path); err != nil {
		t.Fatalf("initConfig: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("file permission = %o, want 644", perm)
	}

	// The template must load as a valid config.
	cfg, err := ajq.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if _, ok := cfg.Queue("default"); !ok {
		t.Error("template missing default queue")
	}
	if q, ok := cfg.Queue("keyed"); !ok || q.Workers != 4 {
		t.Errorf("keyed queue = %+v, %v", q, ok)
	}
	if cfg.Monitoring.Auth.Enabled {
		t.Error("template should ship with auth disabled")
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ajq.yaml")
	os.WriteFile(path, []byte("existing"), 0o644)

	err := initConfig(path)
	if err == nil {
		t.Fatal("expected error for existing file")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %q, want 'already exists'", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "existing" {
		t.Error("existing file was overwritten")
	}
}

func TestInitConfig_WriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "ajq.yaml")
	if err := initConfig(path); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestRunInit_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	var stdout, stderr bytes.Buffer
	if code := runInit([]string{"--config", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Config file created: "+path) {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not created: %v", err)
	}
}

func TestRunInit_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ajq.yaml")
	os.WriteFile(path, []byte("x"), 0o644)

	var stdout, stderr bytes.Buffer
	if code := runInit([]string{"--config", path}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "already exists") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
