package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	"github.com/LeonardoBeccarini/farmfuture/pkg/rabbitmq"
)

type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	HTTPTimeout time.Duration

	LogLevel  string
	LogFormat string // json | console

	// Snapshot source: SEED_PATH, else the embedded demo data. When
	// UPSTREAM_URL is set the snapshot is refreshed from it.
	SeedPath        string
	Upstream        catalog.UpstreamConfig
	UpstreamRefresh time.Duration

	// Telemetry is off unless RABBITMQ_HOST is set.
	Rabbit      rabbitmq.RabbitMQConfig
	StatusTopic string
	DedupTTL    time.Duration
	DedupMax    int

	// History and point writes are off unless INFLUX_URL is set.
	InfluxURL       string
	InfluxToken     string
	InfluxOrg       string
	InfluxBucket    string
	InfluxBatchSize int
	InfluxFlush     time.Duration
}

func (c Config) TelemetryEnabled() bool { return c.Rabbit.Host != "" }

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// getenvDuration accepts Go durations ("1500ms", "2m") or plain
// milliseconds.
func getenvDuration(k string, d time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return d
}

// loadConfig reads .env files (if present) and then the environment.
// Variables already set win over .env.
func loadConfig(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	hostname, _ := os.Hostname()
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":5009"),
		GRPCAddr:    getenv("GRPC_ADDR", ":50051"),
		HTTPTimeout: getenvDuration("TIMEOUT_MS", 3*time.Second),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		SeedPath: getenv("SEED_PATH", ""),
		Upstream: catalog.UpstreamConfig{
			BaseURL:         getenv("UPSTREAM_URL", ""),
			Path:            getenv("UPSTREAM_PATH", "/api/v1/snapshot"),
			Timeout:         getenvDuration("UPSTREAM_TIMEOUT_MS", 3*time.Second),
			MaxRetries:      uint64(getenvInt("UPSTREAM_RETRIES", 2)),
			RetryInterval:   getenvDuration("UPSTREAM_RETRY_MS", 200*time.Millisecond),
			BreakerFailures: uint32(getenvInt("CB_FAILS", 3)),
			BreakerOpenFor:  getenvDuration("CB_OPEN_MS", 30*time.Second),
			BreakerInterval: getenvDuration("CB_INTERVAL_MS", time.Minute),
		},
		UpstreamRefresh: getenvDuration("UPSTREAM_REFRESH", time.Minute),

		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     getenv("RABBITMQ_HOST", ""),
			Port:     getenvInt("RABBITMQ_PORT", 1883),
			User:     getenv("RABBITMQ_USER", "guest"),
			Password: getenv("RABBITMQ_PASSWORD", "guest"),
			ClientID: getenv("MQTT_CLIENT_ID", "farmfuture-"+hostname),
		},
		StatusTopic: getenv("STATUS_TOPIC", "device/status/#"),
		DedupTTL:    getenvDuration("DEDUP_TTL", 10*time.Minute),
		DedupMax:    getenvInt("DEDUP_MAX", 20000),

		InfluxURL:       getenv("INFLUX_URL", ""),
		InfluxToken:     getenv("INFLUX_TOKEN", ""),
		InfluxOrg:       getenv("INFLUX_ORG", "farmfuture"),
		InfluxBucket:    getenv("INFLUX_BUCKET", "device-status"),
		InfluxBatchSize: getenvInt("WRITE_BATCH_SIZE", 50),
		InfluxFlush:     getenvDuration("WRITE_FLUSH_INTERVAL_MS", time.Second),
	}
}
