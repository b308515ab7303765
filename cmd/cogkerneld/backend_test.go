package main

import (
	"context"
	"testing"
)

func TestKernelBackendIngestAndStatusRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	backend := newKernelBackend(srv.loop, srv.store, srv.enc)
	ctx := context.Background()

	result, err := backend.Ingest(ctx, "log", "req-1", "hello world payload", 64)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("expected successful ingest, got %v", result)
	}

	status, err := backend.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status["processed_inputs"].(uint64) != 1 {
		t.Fatalf("processed_inputs = %v, want 1", status["processed_inputs"])
	}
}

func TestKernelBackendHFSWriteAndSearchRoundTrip(t *testing.T) {
	srv, cfg := newTestServer(t)
	backend := newKernelBackend(srv.loop, srv.store, srv.enc)
	ctx := context.Background()

	if _, err := backend.HFSWrite(ctx, "greeting", "hello there", cfg.HFS.DefaultDim); err != nil {
		t.Fatalf("HFSWrite: %v", err)
	}

	results, err := backend.HFSSearch(ctx, "hello there", cfg.HFS.DefaultDim, 5)
	if err != nil {
		t.Fatalf("HFSSearch: %v", err)
	}
	rows := results["results"].([]map[string]any)
	if len(rows) == 0 {
		t.Fatalf("expected at least one search result")
	}
}

func TestKernelBackendSleepRechargesEnergy(t *testing.T) {
	srv, _ := newTestServer(t)
	backend := newKernelBackend(srv.loop, srv.store, srv.enc)

	srv.loop.Metabolism.Consume(90)
	if _, err := backend.Sleep(context.Background(), "manual"); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if srv.loop.Metabolism.CurrentEnergyBudget != srv.loop.Metabolism.MaxCapacity {
		t.Fatalf("expected full recharge after sleep, got %v", srv.loop.Metabolism.CurrentEnergyBudget)
	}
}
