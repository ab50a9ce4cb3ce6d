package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL    MySQLConfig
	Redis    RedisConfig
	Mail     MailConfig
	Worker   WorkerConfig
	Poll     PollConfig
	Migrate  bool
	HTTPAddr string
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MailConfig holds SMTP configuration for result notifications
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// WorkerConfig holds the deployment worker pool configuration
type WorkerConfig struct {
	Enabled      bool
	Concurrency  int
	QueueName    string
	InstanceName string
}

// PollConfig holds the status poll backoff configuration
type PollConfig struct {
	BackoffBaseSec int
	BackoffCapSec  int
	MaxRetries     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Mail: MailConfig{
			Enabled:  getEnv("MAIL_ENABLED", "0") == "1",
			Host:     getEnv("MAIL_HOST", "localhost"),
			Port:     getEnvInt("MAIL_PORT", 25),
			Username: getEnv("MAIL_USER", ""),
			Password: getEnv("MAIL_PASS", ""),
			From:     getEnv("MAIL_FROM", "dcd@localhost"),
		},
		Worker: WorkerConfig{
			Enabled:      getEnv("WORKER_ENABLED", "1") == "1",
			Concurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
			QueueName:    getEnv("WORKER_QUEUE", "dcd:deployments"),
			InstanceName: getEnv("INSTANCE_NAME", "dcd-instance"),
		},
		Poll: PollConfig{
			BackoffBaseSec: getEnvInt("POLL_BACKOFF_BASE_SEC", 10),
			BackoffCapSec:  getEnvInt("POLL_BACKOFF_CAP_SEC", 1800),
			MaxRetries:     getEnvInt("POLL_MAX_RETRIES", 8),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	// Load INI file
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "password", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		Mail: MailConfig{
			Enabled:  getValueBool("MAIL_ENABLED", "mail", "enabled", false),
			Host:     getValue("MAIL_HOST", "mail", "host", "localhost"),
			Port:     getValueInt("MAIL_PORT", "mail", "port", 25),
			Username: getValue("MAIL_USER", "mail", "username", ""),
			Password: getValue("MAIL_PASS", "mail", "password", ""),
			From:     getValue("MAIL_FROM", "mail", "from", "dcd@localhost"),
		},
		Worker: WorkerConfig{
			Enabled:      getValueBool("WORKER_ENABLED", "worker", "enabled", true),
			Concurrency:  getValueInt("WORKER_CONCURRENCY", "worker", "concurrency", 4),
			QueueName:    getValue("WORKER_QUEUE", "worker", "queue", "dcd:deployments"),
			InstanceName: getValue("INSTANCE_NAME", "worker", "instance_name", "dcd-instance"),
		},
		Poll: PollConfig{
			BackoffBaseSec: getValueInt("POLL_BACKOFF_BASE_SEC", "poll", "backoff_base_sec", 10),
			BackoffCapSec:  getValueInt("POLL_BACKOFF_CAP_SEC", "poll", "backoff_cap_sec", 1800),
			MaxRetries:     getValueInt("POLL_MAX_RETRIES", "poll", "max_retries", 8),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "app", "http_addr", ":8080"),
	}

	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("mysql dsn is required (MYSQL_DSN or [mysql] dsn)")
	}

	return cfg, nil
}
