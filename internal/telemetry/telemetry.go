// Package telemetry traces and meters issue parsing with OpenTelemetry.
// Nothing is recorded unless TRIAGE_OTEL_ENABLED=true.
//
//	TRIAGE_OTEL_ENABLED=true         turn telemetry on
//	TRIAGE_OTEL_STDOUT=true          dump parse spans and metrics to stderr
//	OTEL_EXPORTER_OTLP_ENDPOINT=...  push parse metrics over OTLP/HTTP
//	OTEL_SERVICE_NAME=...            rename the reporting service
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultService names the process in exported resources.
const DefaultService = "triage"

// Settings selects where parse telemetry goes.
type Settings struct {
	Enabled  bool
	Stdout   bool
	Endpoint string // OTLP/HTTP metrics endpoint, host:port or URL
	Service  string
	Version  string

	// Dump receives the stdout exporters' output. Stdout carries command
	// results, so it defaults to stderr.
	Dump io.Writer
	// Interval between metric exports. Zero means 30s.
	Interval time.Duration
}

// SettingsFromEnv reads Settings from the variables listed in the package
// doc.
func SettingsFromEnv(version string) Settings {
	s := Settings{
		Enabled:  Enabled(),
		Stdout:   os.Getenv("TRIAGE_OTEL_STDOUT") == "true",
		Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		Service:  os.Getenv("OTEL_SERVICE_NAME"),
		Version:  version,
	}
	if s.Endpoint == "" {
		s.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return s
}

// Enabled reports whether TRIAGE_OTEL_ENABLED is "true". StartParse checks
// it on every call.
func Enabled() bool {
	return os.Getenv("TRIAGE_OTEL_ENABLED") == "true"
}

var installed struct {
	sync.Mutex
	stops []func(context.Context) error
}

// Init installs the global tracer and meter providers described by s.
// Disabled settings install no-op providers.
func Init(ctx context.Context, s Settings) error {
	if !s.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}
	if s.Service == "" {
		s.Service = DefaultService
	}
	if s.Dump == nil {
		s.Dump = os.Stderr
	}
	if s.Interval <= 0 {
		s.Interval = 30 * time.Second
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(s.Service),
			semconv.ServiceVersionKey.String(s.Version),
		),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	spanOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	// Parse spans only leave the process in dump mode.
	if s.Stdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(s.Dump), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("telemetry: span dump: %w", err)
		}
		spanOpts = append(spanOpts, sdktrace.WithSyncer(exp))
	}

	readers, err := metricReaders(ctx, s)
	if err != nil {
		return err
	}
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		meterOpts = append(meterOpts, sdkmetric.WithReader(r))
	}

	tp := sdktrace.NewTracerProvider(spanOpts...)
	mp := sdkmetric.NewMeterProvider(meterOpts...)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	installed.Lock()
	installed.stops = append(installed.stops, tp.Shutdown, mp.Shutdown)
	installed.Unlock()
	return nil
}

func metricReaders(ctx context.Context, s Settings) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	if s.Stdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(s.Dump))
		if err != nil {
			return nil, fmt.Errorf("telemetry: metric dump: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(s.Interval)))
	}
	if s.Endpoint != "" {
		exp, err := buildOTLPMetricExporter(ctx, s.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp metrics %s: %w", s.Endpoint, err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(s.Interval)))
	}
	return readers, nil
}

// Shutdown flushes pending parse spans and metrics and stops the providers
// Init installed.
func Shutdown(ctx context.Context) error {
	installed.Lock()
	stops := installed.stops
	installed.stops = nil
	installed.Unlock()

	var errs []error
	for _, stop := range stops {
		errs = append(errs, stop(ctx))
	}
	return errors.Join(errs...)
}
