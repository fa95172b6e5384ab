// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MercadoPago holds the payment provider credentials and checkout URLs.
// All fields except BaseURL and Timeout are mandatory: the service refuses
// to start without working payment configuration rather than degrading
// silently.
type MercadoPago struct {
	AccessToken     string
	BaseURL         string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
	Timeout         time.Duration
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type Config struct {
	Environment    string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	DatabaseURL    string
	SeedDevData    bool

	MercadoPago MercadoPago
	Tracing     Tracing
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads configuration from the environment. A .env file is honored
// when present so local development matches deployed behavior.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:    getEnv("PEDRAUM_ENV", "development"),
		ServiceName:    getEnv("SERVICE_NAME", "pedraum-payments"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SeedDevData:    getEnvBool("SEED_DEV_DATA", false),
		MercadoPago: MercadoPago{
			AccessToken:     getEnv("MP_ACCESS_TOKEN", ""),
			BaseURL:         getEnv("MP_BASE_URL", "https://api.mercadopago.com"),
			SuccessURL:      getEnv("MP_SUCCESS_URL", ""),
			FailureURL:      getEnv("MP_FAILURE_URL", ""),
			PendingURL:      getEnv("MP_PENDING_URL", ""),
			NotificationURL: getEnv("MP_NOTIFICATION_URL", ""),
			Timeout:         getEnvDuration("MP_TIMEOUT", 10*time.Second),
		},
		Tracing: Tracing{
			Enabled:          getEnvBool("OTEL_ENABLED", false),
			ExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", ""),
			ExporterProtocol: getEnv("OTEL_EXPORTER_PROTOCOL", "grpc"),
			SamplingRatio:    getEnvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on missing payment or persistence configuration.
func (c Config) Validate() error {
	missing := make([]string, 0, 6)
	if strings.TrimSpace(c.DatabaseURL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if strings.TrimSpace(c.MercadoPago.AccessToken) == "" {
		missing = append(missing, "MP_ACCESS_TOKEN")
	}
	if strings.TrimSpace(c.MercadoPago.SuccessURL) == "" {
		missing = append(missing, "MP_SUCCESS_URL")
	}
	if strings.TrimSpace(c.MercadoPago.FailureURL) == "" {
		missing = append(missing, "MP_FAILURE_URL")
	}
	if strings.TrimSpace(c.MercadoPago.PendingURL) == "" {
		missing = append(missing, "MP_PENDING_URL")
	}
	if strings.TrimSpace(c.MercadoPago.NotificationURL) == "" {
		missing = append(missing, "MP_NOTIFICATION_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
