// Package telemetry installs the global OpenTelemetry trace and metric
// providers. Spans and metrics are written as JSON to rotating files so a
// CLI session never prints telemetry to the terminal.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/zhyuuka/xingling-chat/pkg/logger"
)

const (
	ServiceName = "xingling"

	TracesFile  = "traces.log"
	MetricsFile = "metrics.log"

	metricInterval  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Options configures Init.
type Options struct {
	// Dir receives the trace and metric files. Required.
	Dir string

	Version string
	Logger  *slog.Logger
}

// Init sets the global tracer and meter providers and returns a shutdown
// function that flushes and closes them.
func Init(ctx context.Context, opts Options) (func(), error) {
	if opts.Dir == "" {
		return nil, errors.New("telemetry requires an output directory")
	}
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(opts.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	traceFile := rotatingFile(filepath.Join(opts.Dir, TracesFile))
	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(traceFile),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricsFile := rotatingFile(filepath.Join(opts.Dir, MetricsFile))
	metricExporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(metricsFile),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				metricExporter,
				sdkmetric.WithInterval(metricInterval),
			),
		),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	l.Debug("telemetry enabled", "dir", opts.Dir)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			l.Error("shutting down tracer provider", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			l.Error("shutting down meter provider", "error", err)
		}
		if err := traceFile.Close(); err != nil {
			l.Error("closing trace file", "error", err)
		}
		if err := metricsFile.Close(); err != nil {
			l.Error("closing metrics file", "error", err)
		}
	}

	return shutdown, nil
}

func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}
