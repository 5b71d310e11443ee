package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const parseScopeName = "github.com/steveyegge/triage/parser"

// parseInstruments are created once, against whatever global providers are
// installed at first use.
type parseInstruments struct {
	tracer    trace.Tracer
	calls     metric.Int64Counter
	fallbacks metric.Int64Counter
	errs      metric.Int64Counter
	dur       metric.Float64Histogram
}

var (
	parseOnce sync.Once
	parseInst *parseInstruments
)

func instruments() *parseInstruments {
	parseOnce.Do(func() {
		m := otel.Meter(parseScopeName)
		calls, _ := m.Int64Counter("triage.parse.calls",
			metric.WithDescription("Issue bodies parsed"),
		)
		fallbacks, _ := m.Int64Counter("triage.parse.fallbacks",
			metric.WithDescription("Parses that returned a recovered issue"),
		)
		errs, _ := m.Int64Counter("triage.parse.errors",
			metric.WithDescription("Parses that returned an error"),
		)
		dur, _ := m.Float64Histogram("triage.parse.duration",
			metric.WithDescription("Parse duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		parseInst = &parseInstruments{
			tracer:    otel.Tracer(parseScopeName),
			calls:     calls,
			fallbacks: fallbacks,
			errs:      errs,
			dur:       dur,
		}
	})
	return parseInst
}

// ParseSpan tracks one parse call. A nil *ParseSpan is valid and does
// nothing, which is what StartParse returns when telemetry is off.
type ParseSpan struct {
	inst  *parseInstruments
	span  trace.Span
	start time.Time
}

// StartParse opens the triage.parse span for a body of bodyBytes bytes.
func StartParse(ctx context.Context, bodyBytes int) (context.Context, *ParseSpan) {
	if !Enabled() {
		return ctx, nil
	}
	inst := instruments()
	ctx, span := inst.tracer.Start(ctx, "triage.parse",
		trace.WithAttributes(attribute.Int("triage.body.bytes", bodyBytes)),
	)
	inst.calls.Add(ctx, 1)
	return ctx, &ParseSpan{inst: inst, span: span, start: time.Now()}
}

// Event adds a named event to the span, e.g. a recovery step.
func (p *ParseSpan) Event(name string, attrs ...attribute.KeyValue) {
	if p == nil {
		return
	}
	p.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End closes the span and records the outcome.
func (p *ParseSpan) End(ctx context.Context, usedFallback bool, attempts int, err error) {
	if p == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Bool("triage.used_fallback", usedFallback),
		attribute.Int("triage.recovery.attempts", attempts),
	}
	p.span.SetAttributes(attrs...)
	p.inst.dur.Record(ctx, float64(time.Since(p.start).Microseconds())/1000,
		metric.WithAttributes(attribute.Bool("triage.used_fallback", usedFallback)))
	if usedFallback {
		p.inst.fallbacks.Add(ctx, 1)
	}
	if err != nil {
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
		p.inst.errs.Add(ctx, 1)
	}
	p.span.End()
}
