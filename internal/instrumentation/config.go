package instrumentation

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds the instrumentation configuration.
type Config struct {
	// ServiceName identifies this tool in exported telemetry.
	ServiceName string

	// ServiceVersion is the build version.
	ServiceVersion string

	// Enabled turns metric export on. Default false for zero overhead.
	Enabled bool

	// Writer receives the exported metrics; defaults to stderr so
	// telemetry never mixes with command output on stdout.
	Writer io.Writer
}

// DefaultConfig returns a Config with defaults taken from the
// environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:    getEnvOrDefault("OTEL_SERVICE_NAME", "k8sforensics"),
		ServiceVersion: "unknown",
		Enabled:        getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", false),
		Writer:         os.Stderr,
	}
}

// Setup installs a global meter provider exporting to the configured
// writer and returns a shutdown function that flushes pending metrics.
// When disabled it installs nothing and the returned shutdown is a no-op.
func Setup(config Config) (func(context.Context) error, error) {
	if !config.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(writer))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// getEnvOrDefault returns the value of an environment variable or a
// default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the boolean value of an environment
// variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
