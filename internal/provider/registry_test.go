package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/praxislabs/praxis/internal/metrics"
)

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewRegistry(nil)
	cfg := &Config{ID: "p-1", Name: "mock", Type: "mock", Model: "test"}
	if err := r.Register(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(cfg); err == nil {
		t.Error("expected error for duplicate provider ID")
	}
}

func TestGenerateTextCountsRequests(t *testing.T) {
	m := metrics.New()
	r := NewRegistry(m)
	if err := r.Register(&Config{ID: "count-ok", Name: "mock", Type: "mock", Model: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := r.Get("count-ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Protocol.(*MockProvider).QueueReply("hello")

	requestsBefore := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("count-ok"))
	errorsBefore := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("count-ok"))

	got, err := p.GenerateText(context.Background(), "", "hi", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("got reply %q", got)
	}

	if d := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("count-ok")) - requestsBefore; d != 1 {
		t.Errorf("got %v new requests, want 1", d)
	}
	if d := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("count-ok")) - errorsBefore; d != 0 {
		t.Errorf("got %v new errors, want 0", d)
	}
}

func TestGenerateTextCountsErrors(t *testing.T) {
	m := metrics.New()
	r := NewRegistry(m)
	if err := r.Register(&Config{ID: "count-err", Name: "mock", Type: "mock", Model: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := r.Get("count-err")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Protocol.(*MockProvider).Err = errors.New("upstream down")

	requestsBefore := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("count-err"))
	errorsBefore := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("count-err"))

	if _, err := p.GenerateText(context.Background(), "", "hi", 0.5); err == nil {
		t.Fatal("expected error from failing provider")
	}

	if d := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("count-err")) - requestsBefore; d != 1 {
		t.Errorf("got %v new requests, want 1", d)
	}
	if d := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("count-err")) - errorsBefore; d != 1 {
		t.Errorf("got %v new errors, want 1", d)
	}
}

func TestGenerateTextWithoutMetrics(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(&Config{ID: "bare", Name: "mock", Type: "mock", Model: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := r.Get("bare")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Protocol.(*MockProvider).QueueReply("ok")

	got, err := p.GenerateText(context.Background(), "sys", "hi", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got reply %q", got)
	}
}
