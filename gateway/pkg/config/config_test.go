package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVICE_NAME", "GATEWAY_PORT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT", "HTTP_BODY_LIMIT", "SHUTDOWN_TIMEOUT", "SM_SERVICE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ServiceName != "sm-gateway" {
		t.Errorf("expected ServiceName=sm-gateway, got %s", cfg.ServiceName)
	}
	if cfg.Port != 9020 {
		t.Errorf("expected Port=9020, got %d", cfg.Port)
	}
	if cfg.HTTPWriteTimeout != 35*time.Second {
		t.Errorf("expected HTTPWriteTimeout=35s, got %v", cfg.HTTPWriteTimeout)
	}
	if cfg.HTTPBodyLimit != 1*1024*1024 {
		t.Errorf("expected HTTPBodyLimit=1048576, got %d", cfg.HTTPBodyLimit)
	}
	if cfg.Client == nil {
		t.Fatal("expected client config")
	}
	if cfg.Client.ServiceURL != "" {
		t.Errorf("expected empty ServiceURL, got %s", cfg.Client.ServiceURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "8088")
	t.Setenv("SM_SERVICE_URL", "https://sm.example")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()

	if cfg.Port != 8088 {
		t.Errorf("expected Port=8088, got %d", cfg.Port)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected ShutdownTimeout=3s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Client.ServiceURL != "https://sm.example" {
		t.Errorf("expected ServiceURL override, got %s", cfg.Client.ServiceURL)
	}
}
