package hdc

import (
	"fmt"
	"strings"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

const maxMutateSearchCandidates = 20000

// Token is a single position-tagged token emitted by Tokenize.
type Token struct {
	Text     string
	Position int
}

// SequenceEncoder tokenizes text into k-mers and encodes token sequences
// into a single superposed, position-permuted vector via a SymbolSpace.
type SequenceEncoder struct {
	symbols *SymbolSpace
}

// NewSequenceEncoder builds an encoder bound to the given symbol space.
func NewSequenceEncoder(symbols *SymbolSpace) *SequenceEncoder {
	return &SequenceEncoder{symbols: symbols}
}

// Normalize strips surrounding whitespace and uppercases raw input.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Tokenize emits up to maxKmers tokens "k{k}:{lowercase kmer}" with position
// = startIndex mod max(1,dim). Short inputs (< k runes) emit a single
// "seq:{lower}" token at position 0. Clamps: k>=2, stride>=1, maxKmers>=16.
func Tokenize(raw string, k, stride, maxKmers, dim int) []Token {
	if k < 2 {
		k = 2
	}
	if stride < 1 {
		stride = 1
	}
	if maxKmers < 16 {
		maxKmers = 16
	}
	mod := dim
	if mod < 1 {
		mod = 1
	}

	norm := Normalize(raw)
	runes := []rune(strings.ToLower(norm))

	if len(runes) < k {
		return []Token{{Text: "seq:" + string(runes), Position: 0}}
	}

	out := make([]Token, 0, maxKmers)
	for start := 0; start+k <= len(runes) && len(out) < maxKmers; start += stride {
		kmer := string(runes[start : start+k])
		out = append(out, Token{
			Text:     fmt.Sprintf("k%d:%s", k, kmer),
			Position: start % mod,
		})
	}
	return out
}

// EncodeTokens computes acc = sum_i Permute(symbols[tokens[i]], positions[i])
// and returns NormalizeL2(acc). positions may be empty (treated as all-zero
// shift) or must match len(tokens), else errs.ErrPositionsSizeMismatch.
// An empty tokens slice fails with errs.ErrMissingTokens.
func (e *SequenceEncoder) EncodeTokens(tokens []string, positions []int, requestedDim int) (tensor.Tensor, error) {
	if len(tokens) == 0 {
		return tensor.Tensor{}, errs.ErrMissingTokens
	}
	if len(positions) != 0 && len(positions) != len(tokens) {
		return tensor.Tensor{}, errs.ErrPositionsSizeMismatch
	}

	symbolVecs, err := e.symbols.ResolveTokens(tokens, requestedDim)
	if err != nil {
		return tensor.Tensor{}, err
	}

	dim := requestedDim
	if dim == 0 {
		dim = symbolVecs[0].Len()
	}
	acc := tensor.New(make([]float64, dim))
	for i, vec := range symbolVecs {
		pos := 0
		if len(positions) != 0 {
			pos = positions[i]
		}
		shifted := tensor.Permute(vec, pos)
		summed := make([]float64, dim)
		for j := range summed {
			summed[j] = acc.Data[j] + shifted.Data[j]
		}
		acc = tensor.New(summed)
	}
	return tensor.NormalizeL2(acc), nil
}

// EncodeMany encodes a batch of token/position pairs, short-circuiting on the
// first failure and reporting its index.
func (e *SequenceEncoder) EncodeMany(tokenSets [][]string, positionSets [][]int, requestedDim int) ([]tensor.Tensor, int, error) {
	out := make([]tensor.Tensor, 0, len(tokenSets))
	for i, tokens := range tokenSets {
		var positions []int
		if i < len(positionSets) {
			positions = positionSets[i]
		}
		vec, err := e.EncodeTokens(tokens, positions, requestedDim)
		if err != nil {
			return nil, i, err
		}
		out = append(out, vec)
	}
	return out, -1, nil
}

// EncodeStringSequences tokenizes and encodes raw strings in one step,
// short-circuiting on the first failure and reporting its index.
func (e *SequenceEncoder) EncodeStringSequences(raws []string, k, stride, maxKmers, requestedDim int) ([]tensor.Tensor, int, error) {
	out := make([]tensor.Tensor, 0, len(raws))
	for i, raw := range raws {
		toks := Tokenize(raw, k, stride, maxKmers, requestedDim)
		texts := make([]string, len(toks))
		positions := make([]int, len(toks))
		for j, t := range toks {
			texts[j] = t.Text
			positions[j] = t.Position
		}
		vec, err := e.EncodeTokens(texts, positions, requestedDim)
		if err != nil {
			return nil, i, err
		}
		out = append(out, vec)
	}
	return out, -1, nil
}

// MutateSearchResult is the argmax winner from MutateSearch.
type MutateSearchResult struct {
	Index      int
	Candidate  string
	Score      float64
	Encoded    tensor.Tensor
}

// MutateSearch tokenizes+encodes each candidate string and scores it against
// a target prototype vector and/or an explicit target vector:
//
//	score = (1-w)*sim(enc,targetVec) + w*sim(enc,targetProto) (+0.05 if targetLabel != "")
//
// Returns the argmax, ties broken by first occurrence. Rejects more than
// 20,000 candidates and any dimensional mismatch.
//
// The +0.05 targetLabel bonus is an open question in the spec (section 9):
// it is unclear whether it is an intentional prior or a bug compensating for
// unlabeled candidates. It is preserved verbatim here, applied as a flat
// additive term after the weighted blend, exactly as named.
func (e *SequenceEncoder) MutateSearch(
	candidates []string,
	w float64,
	targetProto string,
	targetVec *tensor.Tensor,
	targetLabel string,
	k, stride, maxKmers, requestedDim int,
) (MutateSearchResult, error) {
	if len(candidates) == 0 {
		return MutateSearchResult{}, errs.ErrMissingCandidates
	}
	if len(candidates) > maxMutateSearchCandidates {
		return MutateSearchResult{}, errs.ErrTooManyCandidates
	}
	if strings.TrimSpace(targetProto) == "" && targetVec == nil {
		return MutateSearchResult{}, errs.ErrEmptyTargetProto
	}

	var protoVec tensor.Tensor
	if strings.TrimSpace(targetProto) != "" {
		toks := Tokenize(targetProto, k, stride, maxKmers, requestedDim)
		texts := make([]string, len(toks))
		positions := make([]int, len(toks))
		for i, t := range toks {
			texts[i] = t.Text
			positions[i] = t.Position
		}
		var err error
		protoVec, err = e.EncodeTokens(texts, positions, requestedDim)
		if err != nil {
			return MutateSearchResult{}, err
		}
	}
	if targetVec != nil && protoVec.Len() != 0 && targetVec.Len() != protoVec.Len() {
		return MutateSearchResult{}, errs.ErrTargetVectorDimMismatch
	}

	best := MutateSearchResult{Index: -1, Score: -2}
	for i, cand := range candidates {
		toks := Tokenize(cand, k, stride, maxKmers, requestedDim)
		texts := make([]string, len(toks))
		positions := make([]int, len(toks))
		for j, t := range toks {
			texts[j] = t.Text
			positions[j] = t.Position
		}
		enc, err := e.EncodeTokens(texts, positions, requestedDim)
		if err != nil {
			return MutateSearchResult{}, err
		}

		if targetVec != nil && enc.Len() != targetVec.Len() {
			return MutateSearchResult{}, errs.ErrTargetVectorDimMismatch
		}
		if protoVec.Len() != 0 && enc.Len() != protoVec.Len() {
			return MutateSearchResult{}, errs.ErrTargetProtoDimMismatch
		}

		var simVec, simProto float64
		if targetVec != nil {
			simVec = tensor.CosineSimilarity(enc, *targetVec)
		}
		if protoVec.Len() != 0 {
			simProto = tensor.CosineSimilarity(enc, protoVec)
		}
		score := (1-w)*simVec + w*simProto
		if targetLabel != "" {
			score += 0.05
		}

		if score > best.Score {
			best = MutateSearchResult{Index: i, Candidate: cand, Score: score, Encoded: enc}
		}
	}
	return best, nil
}
