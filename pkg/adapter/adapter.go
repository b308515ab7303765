package adapter

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/memory"
	"github.com/denizumutdereli/cogkernel/pkg/metabolism"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

// NormalizeType lowercases and trims a raw dataset type tag so routing rules
// and ruleset symbol lookups aren't sensitive to caller casing.
func NormalizeType(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// AnalyzeHeuristics builds the SignalProfile for a DataStream: word-level
// statistics over the payload (via gonum/stat) plus derived routing knobs.
// An empty payload yields a zero-valued profile with Label set.
func AnalyzeHeuristics(input DataStream) SignalProfile {
	tokens := strings.Fields(input.Payload)
	profile := SignalProfile{Label: NormalizeType(input.DatasetType)}

	n := len(tokens)
	profile.Length = n
	if n == 0 {
		profile.Sparsity = 1
		profile.System1SimilarityThreshold = 0.85
		profile.CriticAcceptanceThreshold = 0.50
		return profile
	}

	lengths := make([]float64, n)
	seen := make(map[string]struct{}, n)
	freq := make(map[string]int, n)
	minL, maxL := math.Inf(1), math.Inf(-1)
	for i, tok := range tokens {
		l := float64(len([]rune(tok)))
		lengths[i] = l
		if l < minL {
			minL = l
		}
		if l > maxL {
			maxL = l
		}
		key := strings.ToLower(tok)
		seen[key] = struct{}{}
		freq[key]++
	}

	profile.Mean = stat.Mean(lengths, nil)
	if n > 1 {
		profile.StdDev = stat.StdDev(lengths, nil)
		if profile.StdDev > 0 {
			skew := stat.Skew(lengths, nil)
			if !math.IsNaN(skew) {
				profile.Skewness = skew
			}
		}
	}
	profile.Range = maxL - minL
	profile.UniqueRatio = float64(len(seen)) / float64(n)
	profile.Sparsity = 1 - profile.UniqueRatio

	var entropy float64
	for _, c := range freq {
		p := float64(c) / float64(n)
		entropy -= p * math.Log2(p)
	}
	if n > 1 {
		entropy /= math.Log2(float64(n))
	} else {
		entropy = 0
	}
	profile.Entropy = clamp01(entropy)

	profile.System1SimilarityThreshold = clamp01(0.85 + profile.Entropy*0.10)
	profile.CriticAcceptanceThreshold = clamp01(0.50 + profile.Sparsity*0.10)
	profile.DeepThinkCostBias = profile.Entropy

	return profile
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// L2NormalizeAndFlatten encodes a DataStream's payload into a unit-norm
// tensor via the hyperdimensional sequence encoder, using DimHint when set
// (else defaultDim, threaded in by the caller from cfg.Encoding.DefaultDim).
func L2NormalizeAndFlatten(enc *hdc.SequenceEncoder, input DataStream, k, stride, maxKmers, defaultDim int) (tensor.Tensor, error) {
	dim := input.DimHint
	if dim <= 0 {
		dim = defaultDim
	}
	tokens := hdc.Tokenize(input.Payload, k, stride, maxKmers, dim)
	texts := make([]string, len(tokens))
	positions := make([]int, len(tokens))
	for i, t := range tokens {
		texts[i] = t.Text
		positions[i] = t.Position
	}
	return enc.EncodeTokens(texts, positions, dim)
}

// Candidate is one generated deep-think candidate.
type Candidate struct {
	Strategy Strategy
	Vector   tensor.Tensor
	Similarity float64
	Fitness    float64
}

// RouteDynamicConnectome generates one deep-think candidate for the given
// iteration: it mixes target with a permuted memory candidate chosen
// round-robin from memoryCandidates, tagging the result with a Strategy
// picked by iteration index. Every 16th iteration forces
// StrategyDiscoveryInduction (a periodic "try something unrelated to memory"
// probe); otherwise iterations alternate BindRecall/PermuteScan.
func RouteDynamicConnectome(target tensor.Tensor, profile SignalProfile, memoryCandidates []tensor.Tensor, iteration int) (Candidate, error) {
	strategy := pickStrategy(iteration)

	var mem tensor.Tensor
	if len(memoryCandidates) > 0 {
		mem = memoryCandidates[iteration%len(memoryCandidates)]
	} else {
		mem = target
	}

	var vec tensor.Tensor
	var err error
	switch strategy {
	case StrategyDiscoveryInduction:
		probe := tensor.Permute(target, 42)
		vec, err = tensor.Bind(target, probe)
	case StrategyBindRecall:
		shifted := tensor.Permute(mem, iteration+1)
		vec, err = tensor.Bind(target, shifted)
	default: // StrategyPermuteScan
		shifted := tensor.Permute(mem, iteration+1)
		vec, err = averageTensors(target, shifted)
	}
	if err != nil {
		return Candidate{}, err
	}
	vec = tensor.NormalizeL2(vec)

	sim := tensor.CosineSimilarity(vec, target)
	fitness := sim * (1 - profile.Entropy*0.2)

	return Candidate{Strategy: strategy, Vector: vec, Similarity: sim, Fitness: fitness}, nil
}

func pickStrategy(iteration int) Strategy {
	if iteration > 0 && iteration%16 == 0 {
		return StrategyDiscoveryInduction
	}
	if iteration%2 == 0 {
		return StrategyBindRecall
	}
	return StrategyPermuteScan
}

func averageTensors(a, b tensor.Tensor) (tensor.Tensor, error) {
	bound, err := tensor.Bind(a, b)
	if err != nil {
		return tensor.Tensor{}, err
	}
	out := make([]float64, len(bound.Data))
	for i := range out {
		out[i] = (a.Data[i] + b.Data[i]) / 2
	}
	return tensor.New(out), nil
}

// CalculateThermodynamicCost scores the energy price of evaluating candidate
// at the given iteration: a base cost biased by the profile's
// deepThinkCostBias knob, scaled up linearly with iteration depth.
func CalculateThermodynamicCost(profile SignalProfile, iteration int) float64 {
	base := 1.0 * (1.0 + profile.DeepThinkCostBias*0.15)
	iterationPenalty := float64(iteration) * 0.01
	return base * (1 + iterationPenalty)
}

// PassesCriticThreshold reports whether a candidate's fitness clears the
// stricter of the profile's and the metabolism's acceptance thresholds
// (zombie mode tightens the bar via metabolism.CriticThreshold).
func PassesCriticThreshold(fitness float64, profile SignalProfile, m *metabolism.Metabolism) bool {
	threshold := profile.CriticAcceptanceThreshold
	if mt := m.CriticThreshold(); mt > threshold {
		threshold = mt
	}
	return fitness >= threshold
}

// DeduceGeometricGap returns the unit-norm vector pointing from current
// toward requiredNext, used by the kernel loop to flag anomalies worth
// consolidating during sleep.
func DeduceGeometricGap(current, requiredNext tensor.Tensor) (tensor.Tensor, error) {
	if len(current.Data) != len(requiredNext.Data) {
		return tensor.Tensor{}, errs.ErrDimMismatch
	}
	diff := make([]float64, len(current.Data))
	for i := range diff {
		diff[i] = requiredNext.Data[i] - current.Data[i]
	}
	return tensor.NormalizeL2(tensor.New(diff)), nil
}

// ConsolidateMemory merges each flagged anomaly into the working-memory
// cache via weighted averaging against any existing entry sharing its key,
// then promotes the merged vector. It does not clear the anomaly list —
// the caller (KernelLoop.triggerSleepCycle) does that explicitly as its own
// pipeline step, after consolidation has read them.
func ConsolidateMemory(wm *memory.Cache) {
	anomalies := wm.GetAnomalies()
	for key, dc := range anomalies {
		if dc == nil {
			continue
		}
		if existing, ok := wm.Lookup(key); ok {
			merged := make([]float64, len(existing.Vector.Data))
			for i := range merged {
				merged[i] = (existing.Vector.Data[i] + dc.Vector.Data[i]) / 2
			}
			mergedVec := tensor.NormalizeL2(tensor.New(merged))
			wm.PromoteToCache(key, mergedVec, existing.Fitness, existing.Type, existing.ID, existing.Burn)
			continue
		}
		wm.PromoteToCache(key, dc.Vector, 0.5, "anomaly", key, 0)
	}
}
