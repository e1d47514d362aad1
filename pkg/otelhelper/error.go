package otelhelper

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError records err on span. Cancelled work is marked with a
// "cancelled" event and keeps an unset status.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if errors.Is(err, context.Canceled) {
		span.AddEvent("cancelled", trace.WithAttributes(attrs...))

		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(attrs...))
}
