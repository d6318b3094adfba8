package tracing

import (
	"context"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

var NewTracerFunc = newJaegerTracer

// InitGlobalTracer installs a jaeger tracer configured from JAEGER_* environment variables.
func InitGlobalTracer(serviceName string) (io.Closer, error) {
	tracer, closer, err := NewTracerFunc(serviceName)
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	logrus.WithField("serviceName", serviceName).Info("global tracer installed")
	return closer, nil
}

func newJaegerTracer(serviceName string) (opentracing.Tracer, io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	return cfg.NewTracer(jaegercfg.Metrics(metrics.NullFactory))
}

// StartSpan starts a child span of the span in ctx, or a root span.
func StartSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operationName)
}
