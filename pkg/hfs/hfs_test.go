package hfs

import (
	"path/filepath"
	"testing"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

type encAdapter struct{ se *hdc.SequenceEncoder }

func (e encAdapter) Encode(text string, dim int) (tensor.Tensor, error) {
	toks := hdc.Tokenize(text, 3, 1, 32, dim)
	texts := make([]string, len(toks))
	positions := make([]int, len(toks))
	for i, t := range toks {
		texts[i] = t.Text
		positions[i] = t.Position
	}
	return e.se.EncodeTokens(texts, positions, dim)
}

func newEncoder() Encoder {
	symbols := hdc.NewSymbolSpace()
	return encAdapter{se: hdc.NewSequenceEncoder(symbols)}
}

func TestWriteThenReadBestRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	enc := newEncoder()
	entry, err := store.Write(enc, "hello", "world", 64, 1000)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Reopen a fresh instance at the same root.
	store2 := New(root)
	if err := store2.Initialize(); err != nil {
		t.Fatalf("Initialize (reopen): %v", err)
	}
	if store2.Count() != 1 {
		t.Fatalf("count after reopen = %d, want 1", store2.Count())
	}

	result, err := store2.ReadBest(enc, "hello", 64)
	if err != nil {
		t.Fatalf("ReadBest: %v", err)
	}
	if result.Entry.ID != entry.ID {
		t.Fatalf("ReadBest id = %q, want %q", result.Entry.ID, entry.ID)
	}
	// An exact intent match dominates the blended score (weight 0.75), so the
	// result should rank well above an unrelated entry even though the
	// payload term (weight 0.25, derived from Bind) is only weakly
	// correlated with either input by HDC design.
	if result.Similarity <= 0.5 {
		t.Fatalf("similarity = %v, want > 0.5 for an exact intent match", result.Similarity)
	}
}

func TestSearchSortedDescending(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	enc := newEncoder()

	if _, err := store.Write(enc, "apple fruit", "red apple on a tree", 64, 1); err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	if _, err := store.Write(enc, "rocket ship", "launch into orbit fast", 64, 2); err != nil {
		t.Fatalf("Write 2: %v", err)
	}

	results, err := store.Search(enc, "apple fruit", 64, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Fatalf("results not sorted descending: %+v", results)
		}
	}
	if results[0].Entry.Intent != "apple fruit" {
		t.Fatalf("expected closest match first, got %+v", results[0])
	}
}

func TestWriteRejectsNotInitialized(t *testing.T) {
	store := New(t.TempDir())
	enc := newEncoder()
	if _, err := store.Write(enc, "x", "y", 32, 1); err != errs.ErrHFSNotInitialized {
		t.Fatalf("expected hfs_not_initialized, got %v", err)
	}
}

func TestEntryFileRoundTripBytes(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	enc := newEncoder()
	entry, err := store.Write(enc, "intent-text", "content-text", 32, 42)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	readBack, err := readEntryFile(filepath.Join(root, entry.ID+".hfs"))
	if err != nil {
		t.Fatalf("readEntryFile: %v", err)
	}
	if readBack.ID != entry.ID || readBack.Intent != entry.Intent || readBack.Content != entry.Content {
		t.Fatalf("round trip mismatch: got %+v, want %+v", readBack, entry)
	}
	if readBack.IntentVector.Len() != entry.IntentVector.Len() {
		t.Fatalf("vector dim mismatch after round trip")
	}
	for i := range entry.IntentVector.Data {
		diff := readBack.IntentVector.Data[i] - entry.IntentVector.Data[i]
		if diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("intent vector[%d] drifted beyond float32 round trip: got %v want %v", i, readBack.IntentVector.Data[i], entry.IntentVector.Data[i])
		}
	}
}

func TestSearchEmptyStoreReturnsNoResults(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	enc := newEncoder()
	results, err := store.Search(enc, "anything", 32, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
