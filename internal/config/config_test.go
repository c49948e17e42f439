package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != DefaultConfig().Port {
		t.Fatalf("Port = %d, want %d", cfg.Port, DefaultConfig().Port)
	}
	if cfg.MediaDir != filepath.Join(tmpDir, "media") {
		t.Fatalf("MediaDir = %q, want %q", cfg.MediaDir, filepath.Join(tmpDir, "media"))
	}
	if cfg.PackEncoding != EncodingUTF8 {
		t.Fatalf("PackEncoding = %q, want %q", cfg.PackEncoding, EncodingUTF8)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	data := []byte(`
port = 9090
pack_encoding = "windows-1252"
conversion_async = true
conversion_workers = 4
disabled_tools = ["finance_summary"]
`)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.PackEncoding != EncodingWindows1252 {
		t.Errorf("PackEncoding = %q, want %q", cfg.PackEncoding, EncodingWindows1252)
	}
	if !cfg.ConversionAsync || cfg.ConversionWorkers != 4 {
		t.Errorf("ConversionAsync=%v ConversionWorkers=%d, want true/4", cfg.ConversionAsync, cfg.ConversionWorkers)
	}
	if !reflect.DeepEqual(cfg.DisabledTools, []string{"finance_summary"}) {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
	// Untouched values keep defaults
	if cfg.DefaultCurrency != "EUR" {
		t.Errorf("DefaultCurrency = %q, want EUR", cfg.DefaultCurrency)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	if err := os.WriteFile(configPath, []byte(`port = = 1`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_InvalidEncoding(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	if err := os.WriteFile(configPath, []byte(`pack_encoding = "ebcdic"`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error for unsupported encoding")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte(`port = 9090`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("STUDIO_PORT", "7070")
	t.Setenv("STUDIO_MEDIA_DIR", "/srv/media")
	t.Setenv("STUDIO_DISABLED_TOOLS", "a, b")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.MediaDir != "/srv/media" {
		t.Errorf("MediaDir = %q, want /srv/media", cfg.MediaDir)
	}
	if !reflect.DeepEqual(cfg.DisabledTools, []string{"a", "b"}) {
		t.Errorf("DisabledTools = %v, want [a b]", cfg.DisabledTools)
	}
}

func TestFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("STUDIO_PORT", "not-a-number")
	t.Setenv("STUDIO_CONVERSION_ASYNC", "maybe")

	cfg := FromEnv()
	if cfg.Port != 0 {
		t.Errorf("Port = %d, want 0", cfg.Port)
	}
	if cfg.ConversionAsync {
		t.Error("ConversionAsync should be false")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		Port:           8080,
		LogLevel:       "info",
		RateLimitRPS:   20,
		DisabledTools:  []string{"a", "b"},
		MaxUploadBytes: 100,
	}
	overlay := &Config{
		LogLevel:      "debug",
		DisabledTools: []string{"b", " c "},
	}

	got := Merge(base, overlay)

	if got.Port != 8080 {
		t.Errorf("Port = %d, want 8080", got.Port)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", got.LogLevel)
	}
	if got.RateLimitRPS != 20 {
		t.Errorf("RateLimitRPS = %v, want 20", got.RateLimitRPS)
	}
	if got.MaxUploadBytes != 100 {
		t.Errorf("MaxUploadBytes = %d, want 100", got.MaxUploadBytes)
	}
	if !reflect.DeepEqual(got.DisabledTools, []string{"a", "b", "c"}) {
		t.Errorf("DisabledTools = %v, want [a b c]", got.DisabledTools)
	}
}

func TestMergeStringSlice_Empty(t *testing.T) {
	if got := mergeStringSlice(nil, []string{" ", ""}); got != nil {
		t.Errorf("mergeStringSlice() = %v, want nil", got)
	}
}
