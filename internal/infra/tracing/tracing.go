// Package tracing wraps the bare OpenTelemetry SDK core the controller uses
// to span each CALL dispatch; car registrations and withdrawals are not
// spanned. Unlike the teacher's multi-backend
// observability client (DataDog/Elastic/OTLP exporters), this system only
// needs the tracer API itself; see DESIGN.md for why the exporter clients
// were dropped.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mukuyev/elevator-control/controller"

// Tracer returns the process-wide tracer used to span controller
// operations. With no SDK TracerProvider registered, otel's default no-op
// provider makes every span a cheap no-op, so tracing can be wired
// unconditionally and only costs anything once an operator registers a real
// provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span named name under ctx and returns the derived
// context and the span.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name)
}
