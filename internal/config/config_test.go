package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "modelbench" {
		t.Errorf("expected Name=modelbench, got %s", cfg.Name)
	}
	if cfg.Generate.Seed != 42 {
		t.Errorf("expected Seed=42, got %d", cfg.Generate.Seed)
	}
	if cfg.Generate.PastDays != 90 || cfg.Generate.FutureDays != 90 {
		t.Errorf("expected +/-90 day window, got %d/%d", cfg.Generate.PastDays, cfg.Generate.FutureDays)
	}
	if !cfg.Storage.UseSSL {
		t.Error("expected UseSSL=true by default")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("MODELBENCH_HOST", "")
	t.Setenv("MODELBENCH_CLIENT_ID", "")
	t.Setenv("MODELBENCH_CLIENT_SECRET", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("MODELBENCH_BUCKET", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Platform.Host = "https://platform.test"
	cfg.Storage.Bucket = "demo-bucket"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Platform.Host != "https://platform.test" {
		t.Errorf("expected Host=https://platform.test, got %s", loaded.Platform.Host)
	}
	if loaded.Storage.Bucket != "demo-bucket" {
		t.Errorf("expected Bucket=demo-bucket, got %s", loaded.Storage.Bucket)
	}
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("MODELBENCH_HOST", "")
	t.Setenv("MODELBENCH_BUCKET", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "modelbench" {
		t.Errorf("expected defaults, got Name=%s", cfg.Name)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MODELBENCH_HOST", "https://env.platform.test")
	t.Setenv("MODELBENCH_CLIENT_ID", "env-client")
	t.Setenv("MODELBENCH_CLIENT_SECRET", "env-secret")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIAENV")
	t.Setenv("MODELBENCH_BUCKET", "env-bucket")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Platform.Host != "https://env.platform.test" {
		t.Errorf("expected env host, got %s", cfg.Platform.Host)
	}
	if !cfg.HasServiceAccount() {
		t.Error("expected HasServiceAccount after env overrides")
	}
	if cfg.Storage.AccessKeyID != "AKIAENV" {
		t.Errorf("expected env access key, got %s", cfg.Storage.AccessKeyID)
	}
	if cfg.Storage.Bucket != "env-bucket" {
		t.Errorf("expected env bucket, got %s", cfg.Storage.Bucket)
	}
}

func TestConfig_ValidateStorage(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("MODELBENCH_BUCKET", "")

	cfg := DefaultConfig()
	if err := cfg.ValidateStorage(); err == nil {
		t.Error("expected validation error for missing bucket")
	}

	cfg.Storage.Bucket = "b"
	if err := cfg.ValidateStorage(); err == nil {
		t.Error("expected validation error for missing credentials")
	}

	cfg.Storage.AccessKeyID = "k"
	cfg.Storage.SecretAccessKey = "s"
	if err := cfg.ValidateStorage(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
