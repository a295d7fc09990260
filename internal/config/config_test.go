package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_HOURS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "local" {
		t.Fatalf("expected local storage, got %q", cfg.Storage.Driver)
	}
	if cfg.Auth.AccessTTL() != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %s", cfg.Auth.AccessTTL())
	}
	if cfg.Auth.RefreshTTL() != 30*24*time.Hour {
		t.Fatalf("expected 30 day refresh ttl, got %s", cfg.Auth.RefreshTTL())
	}
	if cfg.App.Addr() != "0.0.0.0:5000" {
		t.Fatalf("unexpected addr %s", cfg.App.Addr())
	}
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "ftp")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadRequiresBucketForS3(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	got := getEnvAsList("KAFKA_BROKERS")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}
