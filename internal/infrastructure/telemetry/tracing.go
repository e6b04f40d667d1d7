package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service-level spans.
const TracerName = "shopfront-backend"

// Span attribute keys used by the storefront services.
const (
	SpanAttrTenantID    = "tenant_id"
	SpanAttrSessionID   = "cart_session_id"
	SpanAttrOrderID     = "order_id"
	SpanAttrOrderNumber = "order_number"
	SpanAttrItemCount   = "item_count"
	SpanAttrAmount      = "amount"
	SpanAttrProductID   = "product_id"
)

// StartSpan starts an internal span on the global provider. With tracing
// disabled the provider is a no-op and so is the span. Callers end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartServiceSpan starts a span named "<service>.<operation>".
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+operation, attrs...)
}

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordTransition adds a "<machine>.<to>" event to span for a state change.
func RecordTransition(span trace.Span, machine, from, to string) {
	if span == nil {
		return
	}
	span.AddEvent(machine+"."+to, trace.WithAttributes(attribute.String("state.from", from)))
}

// Annotate adds attrs to the span carried by ctx, if any.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attrs...)
}

// TenantAttr tags a span with the tenant.
func TenantAttr(tenantID uuid.UUID) attribute.KeyValue {
	return attribute.String(SpanAttrTenantID, tenantID.String())
}

// SessionAttr tags a span with the cart session.
func SessionAttr(sessionID string) attribute.KeyValue {
	return attribute.String(SpanAttrSessionID, sessionID)
}

// ProductAttr tags a span with a product.
func ProductAttr(productID uuid.UUID) attribute.KeyValue {
	return attribute.String(SpanAttrProductID, productID.String())
}

// OrderAttrs describes a stored order. The amount is kept as its decimal
// string so no precision is lost.
func OrderAttrs(orderID uuid.UUID, orderNumber string, itemCount int, amount decimal.Decimal) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SpanAttrOrderID, orderID.String()),
		attribute.String(SpanAttrOrderNumber, orderNumber),
		attribute.Int(SpanAttrItemCount, itemCount),
		attribute.String(SpanAttrAmount, amount.StringFixed(2)),
	}
}
