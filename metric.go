package odata

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/rbaliyan/odata")

	payloadsRead    metric.Int64Counter
	payloadsWritten metric.Int64Counter
	contextsClosed  metric.Int64Counter
)

func init() {
	payloadsRead, _ = meter.Int64Counter("odata.payloads.read",
		metric.WithDescription("Total top-level payload readers created"))
	payloadsWritten, _ = meter.Int64Counter("odata.payloads.written",
		metric.WithDescription("Total top-level payload writers created"))
	contextsClosed, _ = meter.Int64Counter("odata.contexts.closed",
		metric.WithDescription("Total contexts closed"))
}

func recordRead(f Format, k Kind) {
	payloadsRead.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("format", f.Name()),
		attribute.String("kind", k.String()),
	))
}

func recordWrite(f Format, k Kind) {
	payloadsWritten.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("format", f.Name()),
		attribute.String("kind", k.String()),
	))
}

func recordClose(f Format, direction string) {
	contextsClosed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("format", f.Name()),
		attribute.String("direction", direction),
	))
}
