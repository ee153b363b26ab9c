package app

import (
	"errors"
	"fmt"
	"lightorm/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var ErrUnknownExporter = errors.New("app: unknown tracing exporter")

// newTracerProvider none 的时候不导出，只在进程内生成 span
func newTracerProvider(c config.Tracing) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", c.ServiceName))),
	}
	switch c.Exporter {
	case config.TracingNone, "":
	case config.TracingJaeger:
		var eopts []jaeger.CollectorEndpointOption
		if c.Endpoint != "" {
			eopts = append(eopts, jaeger.WithEndpoint(c.Endpoint))
		}
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(eopts...))
		if err != nil {
			return nil, fmt.Errorf("app: jaeger exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case config.TracingZipkin:
		exp, err := zipkin.New(c.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("app: zipkin exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, c.Exporter)
	}
	return sdktrace.NewTracerProvider(opts...), nil
}
