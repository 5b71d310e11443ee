package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartParseDisabled(t *testing.T) {
	t.Setenv("TRIAGE_OTEL_ENABLED", "")
	ctx := context.Background()
	got, span := StartParse(ctx, 10)
	assert.Nil(t, span)
	assert.Equal(t, ctx, got)

	// nil spans are safe to use
	span.Event("recovery")
	span.End(ctx, true, 1, errors.New("x"))
}

func TestInitDisabledInstallsNoop(t *testing.T) {
	t.Setenv("TRIAGE_OTEL_ENABLED", "false")
	require.NoError(t, Init(context.Background(), SettingsFromEnv("test")))
	assert.Empty(t, installed.stops)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("TRIAGE_OTEL_ENABLED", "true")
	t.Setenv("TRIAGE_OTEL_STDOUT", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	t.Setenv("OTEL_SERVICE_NAME", "triage-ci")

	s := SettingsFromEnv("1.2.3")
	assert.True(t, s.Enabled)
	assert.True(t, s.Stdout)
	assert.Equal(t, "localhost:4318", s.Endpoint)
	assert.Equal(t, "triage-ci", s.Service)
	assert.Equal(t, "1.2.3", s.Version)

	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "http://collector:4318/v1/metrics")
	assert.Equal(t, "http://collector:4318/v1/metrics", SettingsFromEnv("").Endpoint)
}

func TestInitDumpsParseSpans(t *testing.T) {
	var dump bytes.Buffer
	require.NoError(t, Init(context.Background(), Settings{
		Enabled: true,
		Stdout:  true,
		Version: "test",
		Dump:    &dump,
	}))

	// The once-built instruments may hold an earlier provider, so trace
	// through the freshly installed one directly.
	_, span := otel.Tracer(parseScopeName).Start(context.Background(), "triage.parse")
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, dump.String(), `"Name": "triage.parse"`)
	assert.Empty(t, installed.stops)
}

func TestStartParseRecordsSpan(t *testing.T) {
	t.Setenv("TRIAGE_OTEL_ENABLED", "true")
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	ctx, span := StartParse(context.Background(), 42)
	require.NotNil(t, span)
	span.Event("recovery.keyword-inference")
	span.End(ctx, true, 2, errors.New("MISSING_SECTION: no description"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "triage.parse", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Contains(t, s.Attributes(), attribute.Bool("triage.used_fallback", true))
	assert.Contains(t, s.Attributes(), attribute.Int("triage.recovery.attempts", 2))
	assert.Contains(t, s.Attributes(), attribute.Int("triage.body.bytes", 42))
	require.NotEmpty(t, s.Events())
	assert.Equal(t, "recovery.keyword-inference", s.Events()[0].Name)
}
