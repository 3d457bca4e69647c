package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v body=%s", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id mismatch: %v", rec["trace_id"])
	}
	if rec["span_id"] == nil {
		t.Fatalf("expected span_id in log record")
	}
}

func TestLogger_NoSpanNoTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("unexpected trace_id without span")
	}
}

func TestObserveDB_ClassifiesErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("users.create", func() error { return errors.New("dial tcp: connection refused") })
	_ = p.ObserveDB("users.create", func() error { return nil })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count: got %v", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "connection")); got != 1 {
		t.Fatalf("connection count: got %v", got)
	}
}

func TestNilPromHelpersAreSafe(t *testing.T) {
	var p *Prom
	p.AuthEvent("signin", "ok")
	p.ObserveHash("hash", 0)
	p.RateLimited("/auth/signin")
}

func TestAuthEvent(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	p.AuthEvent("signin", "invalid_credentials")
	p.AuthEvent("signin", "invalid_credentials")

	if got := testutil.ToFloat64(p.AuthEvents.WithLabelValues("signin", "invalid_credentials")); got != 2 {
		t.Fatalf("got %v want 2", got)
	}
}
