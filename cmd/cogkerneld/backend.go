package main

import (
	"context"
	"time"

	"github.com/denizumutdereli/cogkernel/pkg/hfs"
	"github.com/denizumutdereli/cogkernel/pkg/kernel"
)

// kernelBackend adapts a live KernelLoop/HFS Store pair to mcpserver.Backend,
// letting the MCP tool surface and the plain HTTP surface in server.go share
// a single code path instead of duplicating ingest/status/sleep/hfs logic.
type kernelBackend struct {
	loop  *kernel.KernelLoop
	store *hfs.Store
	enc   hfs.Encoder
}

func newKernelBackend(loop *kernel.KernelLoop, store *hfs.Store, enc hfs.Encoder) *kernelBackend {
	return &kernelBackend{loop: loop, store: store, enc: enc}
}

func (b *kernelBackend) Ingest(ctx context.Context, datasetType, datasetID, payload string, dimHint int) (map[string]any, error) {
	result := b.loop.Ingest(time.Now(), kernel.NewDataStream(datasetType, datasetID, payload, dimHint))
	return map[string]any{
		"success":          result.Success,
		"outcome":          result.Outcome,
		"reflex_hit":       result.ReflexHit,
		"deep_think_path":  result.DeepThinkPath,
		"cache_key":        result.CacheKey,
		"similarity":       result.Similarity,
		"energy_remaining": result.EnergyRemaining,
		"sleep_triggered":  result.SleepTriggered,
		"sleep_reason":     result.SleepReason,
		"error":            result.Error,
	}, nil
}

func (b *kernelBackend) Status(ctx context.Context) (map[string]any, error) {
	snap := b.loop.Status()
	return map[string]any{
		"processed_inputs": snap.ProcessedInputs,
		"cache_entries":     snap.CacheEntries,
		"energy_remaining":  snap.EnergyRemaining,
		"substrate_known":   snap.SubstrateKnown,
	}, nil
}

func (b *kernelBackend) Sleep(ctx context.Context, reason string) (map[string]any, error) {
	b.loop.TriggerManualSleep(time.Now())
	return map[string]any{"reason": reason, "status": b.loop.Status()}, nil
}

func (b *kernelBackend) HFSWrite(ctx context.Context, intent, content string, dim int) (map[string]any, error) {
	entry, err := b.store.Write(b.enc, intent, content, dim, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": entry.ID, "intent": entry.Intent}, nil
}

func (b *kernelBackend) HFSSearch(ctx context.Context, query string, dim, limit int) (map[string]any, error) {
	results, err := b.store.Search(b.enc, query, dim, limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"id":         r.Entry.ID,
			"intent":     r.Entry.Intent,
			"similarity": r.Similarity,
		})
	}
	return map[string]any{"results": out}, nil
}
