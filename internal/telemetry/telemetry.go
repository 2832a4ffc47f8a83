package telemetry

import (
	"context"
	"net/http"
	"taskManagement/internal/logger"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const serviceName = "task-management"

// NewProvider собирает провайдер трассировки с синхронной отправкой спанов в exporter
func NewProvider(exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
}

// Setup включает трассировку HTTP запросов со спанами в лог.
// При выключенной трассировке возвращает noop провайдер.
func Setup(enabled bool) (trace.TracerProvider, func(context.Context) error) {
	if !enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }
	}

	tp := NewProvider(LogExporter{})
	otel.SetTracerProvider(tp)
	logger.Info("Трассировка HTTP запросов включена")
	return tp, tp.Shutdown
}

// Handler оборачивает роутер в otelhttp, спан называется "METHOD /path"
func Handler(next http.Handler, tp trace.TracerProvider) http.Handler {
	return otelhttp.NewHandler(next, serviceName,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// LogExporter пишет завершённые спаны в общий zap логгер
type LogExporter struct{}

func (LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		logger.Info("Trace: Спан завершён",
			zap.String("span", span.Name()),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
			zap.String("status", span.Status().Code.String()),
			zap.Duration("ms", span.EndTime().Sub(span.StartTime())))
	}
	return nil
}

func (LogExporter) Shutdown(ctx context.Context) error {
	return nil
}
