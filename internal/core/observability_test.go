package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type captureAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAudit) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAudit) find(op string, status AuditStatus) (AuditEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Operation == op && e.Status == status {
			return e, true
		}
	}
	return AuditEntry{}, false
}

type captureMetrics struct {
	mu    sync.Mutex
	calls map[string][]bool
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string][]bool{}
	}
	c.calls[op] = append(c.calls[op], success)
}

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	audit := &captureAudit{}
	metrics := &captureMetrics{}
	tracer := NewJSONTracer(nil)
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	svc, _ := newTestService(t, WithAuditRecorder(audit), WithMetricsRecorder(metrics), WithTracer(tracer), WithLogger(logger))
	pet, err := svc.MintPet(ctx, "alice", "Nova")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := svc.BreedPets(ctx, "alice", pet.ID, "missing"); err == nil {
		t.Fatalf("expected breed failure")
	}

	entry, ok := audit.find("mint_pet", AuditStatusSuccess)
	if !ok || entry.EntityID != pet.ID || entry.Entity != EntityPet || entry.OwnerID != "alice" || !entry.At.Equal(testEpoch) {
		t.Fatalf("missing mint audit entry: %+v", audit.entries)
	}
	if failed, ok := audit.find("breed_pets", AuditStatusError); !ok || !strings.Contains(failed.Error, "missing") {
		t.Fatalf("missing breed failure audit entry: %+v", audit.entries)
	}
	if got := metrics.calls["mint_pet"]; len(got) != 1 || !got[0] {
		t.Fatalf("unexpected mint metrics %v", got)
	}
	if got := metrics.calls["breed_pets"]; len(got) != 1 || got[0] {
		t.Fatalf("unexpected breed metrics %v", got)
	}
	spans := tracer.Entries()
	if len(spans) != 2 || spans[0].Operation != "mint_pet" || spans[1].Status != "error" || spans[1].Error == "" {
		t.Fatalf("unexpected spans %+v", spans)
	}
	out := logs.String()
	if !strings.Contains(out, `"msg":"operation committed"`) || !strings.Contains(out, `"msg":"operation rejected"`) {
		t.Fatalf("unexpected logs %s", out)
	}
}

func TestServiceLogsRuleWarnings(t *testing.T) {
	var logs bytes.Buffer
	svc, _ := newTestService(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	_, err := svc.run(context.Background(), "import_pet", &opMeta{entity: EntityPet}, func(tx Transaction) error {
		_, err := tx.CreatePet(Pet{OwnerID: "alice", Name: "Glitch", DNA: "xyz"})
		return err
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(logs.String(), "rule violation") || !strings.Contains(logs.String(), "genome_format") {
		t.Fatalf("expected warning log, got %s", logs.String())
	}
}

func TestServiceLogsInfrastructureErrorsAtErrorLevel(t *testing.T) {
	var logs bytes.Buffer
	svc, _ := newTestService(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	boom := errors.New("disk full")
	_, err := svc.run(context.Background(), "explode", &opMeta{}, func(Transaction) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(logs.String(), "level=ERROR") {
		t.Fatalf("expected error level log, got %s", logs.String())
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if expvar.Get(rec.Name()) == nil {
		t.Fatalf("recorder not published")
	}
	ctx := context.Background()
	rec.Observe(ctx, "breed_pets", true, 2*time.Millisecond)
	rec.Observe(ctx, "breed_pets", false, 3*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)
	snap := rec.Snapshot()
	if snap.DurationsMS["breed_pets"] != 5 {
		t.Fatalf("unexpected durations %+v", snap.DurationsMS)
	}
	if snap.Results["breed_pets"]["success"] != 1 || snap.Results["breed_pets"]["error"] != 1 || len(snap.Results) != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	var decoded ExpvarMetricsSnapshot
	if err := json.Unmarshal([]byte(expvar.Get(rec.Name()).String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Results["breed_pets"]["success"] != 1 {
		t.Fatalf("expvar output out of date: %+v", decoded)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "mint_pet", true, 10*time.Millisecond)
	rec.Observe(ctx, "mint_pet", true, 20*time.Millisecond)
	rec.Observe(ctx, "mint_pet", false, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	var samples uint64
	for _, mf := range families {
		switch mf.GetName() {
		case "shobergarden_service_operations_total":
			for _, m := range mf.GetMetric() {
				for _, label := range m.GetLabel() {
					if label.GetName() == "status" {
						counts[label.GetValue()] = m.GetCounter().GetValue()
					}
				}
			}
		case "shobergarden_service_operation_duration_seconds":
			samples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	if counts["success"] != 2 || counts["error"] != 1 || samples != 3 {
		t.Fatalf("unexpected metrics counts=%v samples=%d", counts, samples)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestJSONTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "buy_listing")
	span.End(errors.New("sold out"))
	var entry JSONTraceEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode span: %v", err)
	}
	if entry.Operation != "buy_listing" || entry.Status != "error" || entry.Error != "sold out" {
		t.Fatalf("unexpected span %+v", entry)
	}
}
