package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	QR       QRConfig
	Notify   NotifyConfig
	Report   ReportConfig
	Log      LogConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL             string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type QRConfig struct {
	// BaseURL is the QR image rendering endpoint; the pickup code is passed
	// as the "data" query parameter.
	BaseURL      string
	OutputDir    string
	ImageSize    string
	FetchTimeout time.Duration
}

// NotifyConfig selects the notification channel used when a pharmacist marks
// a prescription ready. Valid kinds: "qr", "email", "sms".
type NotifyConfig struct {
	Kind string
}

type ReportConfig struct {
	ExportPath string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	OTLPURL     string
	SampleRate  float64
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "healthpass"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("HP_DB_DSN", ""),
			Host:            getEnv("HP_DB_HOST", "localhost"),
			Port:            getEnvInt("HP_DB_PORT", 5432),
			Name:            getEnv("HP_DB_NAME", "healthpass"),
			User:            getEnv("HP_DB_USER", "healthpass"),
			Password:        getEnv("HP_DB_PASSWORD", ""),
			SSLMode:         getEnv("HP_DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("HP_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("HP_DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("HP_DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("HP_DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		QR: QRConfig{
			BaseURL:      getEnv("HP_QR_BASE_URL", "https://api.qrserver.com/v1/create-qr-code/"),
			OutputDir:    getEnv("HP_QR_OUTPUT_DIR", "qr_codes"),
			ImageSize:    getEnv("HP_QR_IMAGE_SIZE", "200x200"),
			FetchTimeout: getEnvDuration("HP_QR_FETCH_TIMEOUT", 10*time.Second),
		},
		Notify: NotifyConfig{
			Kind: strings.ToLower(getEnv("HP_NOTIFY_TYPE", "qr")),
		},
		Report: ReportConfig{
			ExportPath: getEnv("HP_REPORT_EXPORT_PATH", "dispensed_report.csv"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "healthpass"),
			OTLPURL:     getEnv("OTLP_ENDPOINT", "localhost:4318"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	switch cfg.Notify.Kind {
	case "qr", "email", "sms":
	default:
		errs = append(errs, fmt.Sprintf("HP_NOTIFY_TYPE %q is not one of qr, email, sms", cfg.Notify.Kind))
	}

	if cfg.QR.BaseURL == "" {
		errs = append(errs, "HP_QR_BASE_URL is required")
	}
	if cfg.QR.OutputDir == "" {
		errs = append(errs, "HP_QR_OUTPUT_DIR is required")
	}

	if cfg.Database.Password == "" && cfg.Database.URL == "" && cfg.App.Environment != "development" {
		errs = append(errs, "HP_DB_PASSWORD is required in non-development environments")
	}
	if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
		errs = append(errs, "HP_DB_SSLMODE=disable is not allowed in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
