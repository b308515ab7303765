package ruleset

import (
	"math"
	"strings"
	"testing"
)

const sample = `# tenant override ruleset
constraint_mode: strict
entropy_tolerance: 0.30

symbols:
  GREETING = 0.1, 0.2, 0.3
  FAREWELL = 1, 0, 0

reflex_triggers:
  sim(x, GREETING) > 0.85 -> ACTION_GREET
  sim(x, FAREWELL) -> ACTION_FAREWELL
`

func TestParseSample(t *testing.T) {
	rs, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if rs.ConstraintMode != "strict" {
		t.Fatalf("constraintMode = %q", rs.ConstraintMode)
	}
	if rs.Heuristics.CriticEntropyWeight != 0.30 {
		t.Fatalf("criticEntropyWeight = %v", rs.Heuristics.CriticEntropyWeight)
	}
	if len(rs.SymbolDefinitions) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(rs.SymbolDefinitions))
	}
	vec, ok := rs.SymbolDefinitions["GREETING"]
	if !ok {
		t.Fatalf("GREETING symbol missing")
	}
	norm := 0.0
	for _, v := range vec.Data {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Fatalf("GREETING vector not unit-norm: %v", vec.Data)
	}

	if len(rs.ReflexTriggers) != 2 {
		t.Fatalf("expected 2 reflex triggers, got %d", len(rs.ReflexTriggers))
	}
	first := rs.ReflexTriggers[0]
	if first.TargetSymbol != "GREETING" || first.ActionIntent != "ACTION_GREET" || first.SimilarityThreshold != 0.85 {
		t.Fatalf("first trigger = %+v", first)
	}
	second := rs.ReflexTriggers[1]
	if second.TargetSymbol != "FAREWELL" || second.SimilarityThreshold != defaultReflexThreshold {
		t.Fatalf("missing threshold should default to 0.85, got %+v", second)
	}
}

func TestParseMalformedSymbolLineFails(t *testing.T) {
	_, err := Parse(strings.NewReader("symbols:\nBROKEN\n"))
	if err == nil {
		t.Fatalf("expected error for malformed symbol line")
	}
}

func TestParseMalformedReflexLineFails(t *testing.T) {
	_, err := Parse(strings.NewReader("reflex_triggers:\nnot a rule\n"))
	if err == nil {
		t.Fatalf("expected error for malformed reflex line")
	}
}

func TestParseInvalidFloatFails(t *testing.T) {
	_, err := Parse(strings.NewReader("symbols:\nA = not_a_number\n"))
	if err == nil {
		t.Fatalf("expected error for invalid float")
	}
}

func TestParseEmptyYieldsDefaults(t *testing.T) {
	rs, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if rs.Heuristics != DefaultHeuristicConfig() {
		t.Fatalf("expected default heuristics, got %+v", rs.Heuristics)
	}
	if len(rs.ReflexTriggers) != 0 || len(rs.SymbolDefinitions) != 0 {
		t.Fatalf("expected empty ruleset from empty input")
	}
}
