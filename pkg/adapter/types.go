// Package adapter implements CognitiveAdapter: heuristic analysis of inputs,
// dynamic candidate routing for deep-think, critic gating, and memory
// consolidation.
//
// Grounded in the teacher's pkg/engine/search.go scoreNeuron hybrid scoring
// (string+vector blended, tanh-normalized) for the taste of mixing several
// weak numeric signals into one acceptance score, and gonum.org/v1/gonum/stat
// for the SignalProfile statistics themselves (mean/stddev/skew) — a precise
// fit present in the pack's dependency closure (DESIGN.md).
package adapter

// DataStream is one unit of ingest input (spec section 3).
type DataStream struct {
	DatasetType string
	DatasetID   string
	Payload     string
	DimHint     int
}

// SignalProfile is the heuristic statistical + routing-knob summary of a
// DataStream's payload, computed by AnalyzeHeuristics.
type SignalProfile struct {
	Length      int
	Mean        float64
	StdDev      float64
	Skewness    float64
	Sparsity    float64
	Entropy     float64
	UniqueRatio float64
	Range       float64

	System1SimilarityThreshold float64
	CriticAcceptanceThreshold  float64
	DeepThinkCostBias          float64
	Label                      string
}

// Strategy is the tagged variant of deep-think candidate-generation
// strategies (spec design note 9: modeled as a tagged variant, not a class
// hierarchy).
type Strategy string

const (
	StrategyBindRecall         Strategy = "bind_recall"
	StrategyPermuteScan        Strategy = "permute_scan"
	StrategyDiscoveryInduction Strategy = "discovery_induction"
)
