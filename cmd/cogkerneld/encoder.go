package main

import (
	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/kernel"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

// hfsEncoder adapts hdc.SequenceEncoder's token-sequence API to the single
// Encode(text, dim) call pkg/hfs.Encoder expects, using the same k-mer
// tokenizer parameters the kernel loop encodes ingested payloads with.
type hfsEncoder struct {
	seq                  *hdc.SequenceEncoder
	k, stride, maxKmers int
}

func newHFSEncoder(symbols *hdc.SymbolSpace, cfg kernel.EncodingConfig) *hfsEncoder {
	return &hfsEncoder{
		seq:      hdc.NewSequenceEncoder(symbols),
		k:        cfg.K,
		stride:   cfg.Stride,
		maxKmers: cfg.MaxKmers,
	}
}

func (e *hfsEncoder) Encode(text string, dim int) (tensor.Tensor, error) {
	tokens := hdc.Tokenize(text, e.k, e.stride, e.maxKmers, dim)
	texts := make([]string, len(tokens))
	positions := make([]int, len(tokens))
	for i, t := range tokens {
		texts[i] = t.Text
		positions[i] = t.Position
	}
	return e.seq.EncodeTokens(texts, positions, dim)
}
