package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Set required environment variable
	os.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/test")
	defer os.Unsetenv("MYSQL_DSN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.MySQL.DSN == "" {
		t.Error("MySQL DSN should not be empty")
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
}

func TestLoad_MissingMySQLDSN(t *testing.T) {
	// Ensure MYSQL_DSN is not set
	os.Unsetenv("MYSQL_DSN")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when MYSQL_DSN is missing")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("MYSQL_DSN", "custom:dsn@tcp(localhost:3306)/custom")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_PASS", "secret")
	os.Setenv("REDIS_DB", "5")
	os.Setenv("HTTP_ADDR", ":9090")

	defer func() {
		os.Unsetenv("MYSQL_DSN")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("REDIS_PASS")
		os.Unsetenv("REDIS_DB")
		os.Unsetenv("HTTP_ADDR")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.MySQL.DSN != "custom:dsn@tcp(localhost:3306)/custom" {
		t.Errorf("Expected custom MySQL DSN, got %s", cfg.MySQL.DSN)
	}

	if cfg.Redis.Addr != "redis.example.com:6379" {
		t.Errorf("Expected custom Redis addr, got %s", cfg.Redis.Addr)
	}

	if cfg.Redis.Password != "secret" {
		t.Errorf("Expected Redis password 'secret', got %s", cfg.Redis.Password)
	}

	if cfg.Redis.DB != 5 {
		t.Errorf("Expected Redis DB 5, got %d", cfg.Redis.DB)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTPAddr :9090, got %s", cfg.HTTPAddr)
	}
}

func TestLoad_PollDefaults(t *testing.T) {
	os.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/test")
	defer os.Unsetenv("MYSQL_DSN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Poll.BackoffBaseSec != 10 {
		t.Errorf("Expected backoff base 10s, got %d", cfg.Poll.BackoffBaseSec)
	}
	if cfg.Poll.BackoffCapSec != 1800 {
		t.Errorf("Expected backoff cap 1800s, got %d", cfg.Poll.BackoffCapSec)
	}
	if cfg.Poll.MaxRetries != 8 {
		t.Errorf("Expected max retries 8, got %d", cfg.Poll.MaxRetries)
	}
	if !cfg.Worker.Enabled {
		t.Error("Expected worker enabled by default")
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("Expected worker concurrency 4, got %d", cfg.Worker.Concurrency)
	}
}

func TestLoadFromINI(t *testing.T) {
	iniContent := `[mysql]
dsn = ini:dsn@tcp(localhost:3306)/ini

[redis]
addr = ini-redis:6379

[poll]
max_retries = 3

[mail]
enabled = true
host = smtp.example.com
port = 587
`
	path := t.TempDir() + "/dcd.ini"
	if err := os.WriteFile(path, []byte(iniContent), 0o644); err != nil {
		t.Fatalf("Failed to write INI file: %v", err)
	}

	os.Unsetenv("MYSQL_DSN")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}

	if cfg.MySQL.DSN != "ini:dsn@tcp(localhost:3306)/ini" {
		t.Errorf("Expected INI MySQL DSN, got %s", cfg.MySQL.DSN)
	}
	if cfg.Redis.Addr != "ini-redis:6379" {
		t.Errorf("Expected INI Redis addr, got %s", cfg.Redis.Addr)
	}
	if cfg.Poll.MaxRetries != 3 {
		t.Errorf("Expected INI max retries 3, got %d", cfg.Poll.MaxRetries)
	}
	if !cfg.Mail.Enabled {
		t.Error("Expected mail enabled from INI")
	}
	if cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("Expected INI mail host, got %s", cfg.Mail.Host)
	}
	if cfg.Mail.Port != 587 {
		t.Errorf("Expected INI mail port 587, got %d", cfg.Mail.Port)
	}

	// ENV overrides INI
	os.Setenv("REDIS_ADDR", "env-redis:6379")
	defer os.Unsetenv("REDIS_ADDR")

	cfg, err = LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}
	if cfg.Redis.Addr != "env-redis:6379" {
		t.Errorf("Expected ENV to override INI, got %s", cfg.Redis.Addr)
	}
}
