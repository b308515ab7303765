// Package ruleset implements RulesetParser: a line-oriented textual format
// describing per-tenant symbol overrides and reflex triggers.
//
//	constraint_mode: strict
//	entropy_tolerance: 0.30
//	symbols:
//	  GREETING = 0.1, 0.2, 0.3
//	reflex_triggers:
//	  sim(x, GREETING) > 0.85 -> ACTION_GREET
//
// Grounded in the teacher's pkg/core/connstring.go taste for a small,
// explicit hand-rolled textual parser returning fmt.Errorf on malformed
// input rather than a general-purpose config-file library — the format here
// is bespoke enough (symbol vector literals, reflex predicate syntax) that
// no parser in the pack fits better than stdlib strings/strconv/bufio.
package ruleset

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

const defaultReflexThreshold = 0.85

// HeuristicConfig holds the adapter-facing knobs a ruleset can tune.
type HeuristicConfig struct {
	// CriticEntropyWeight is set from the root entropy_tolerance key.
	CriticEntropyWeight float64
	// CriticMin is the minimum acceptance fitness used when sleep-time
	// ruleset evolution mints a new reflex trigger from a consolidated
	// anomaly (spec 4.9, ProgramManifold.sleep()).
	CriticMin float64
}

// DefaultHeuristicConfig mirrors the defaults a freshly parsed ruleset with
// no root keys present would carry.
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{CriticEntropyWeight: 0.15, CriticMin: 0.85}
}

// ReflexTrigger is one `sim(x, SYMBOL) > threshold -> ACTION` rule.
type ReflexTrigger struct {
	TargetSymbol        string
	SimilarityThreshold float64
	ActionIntent        string
}

// Ruleset is the parsed result: constraint mode, heuristic knobs, symbol
// overrides, and an ordered list of reflex triggers.
type Ruleset struct {
	ConstraintMode    string
	Heuristics        HeuristicConfig
	SymbolDefinitions map[string]tensor.Tensor
	ReflexTriggers    []ReflexTrigger
}

// New returns an empty ruleset with default heuristics.
func New() *Ruleset {
	return &Ruleset{
		Heuristics:        DefaultHeuristicConfig(),
		SymbolDefinitions: make(map[string]tensor.Tensor),
	}
}

type section int

const (
	sectionNone section = iota
	sectionSymbols
	sectionReflexTriggers
)

var reflexLineRe = regexp.MustCompile(`^sim\(\s*x\s*,\s*([A-Za-z0-9_]+)\s*\)(?:\s*>\s*([0-9]*\.?[0-9]+))?\s*->\s*([A-Za-z0-9_]+)$`)

// Parse reads the ruleset text format from r. Malformed symbol or reflex
// lines fail with a descriptive error naming the offending line; unknown
// root keys and blank/comment lines are simply skipped.
func Parse(r io.Reader) (*Ruleset, error) {
	rs := New()
	cur := sectionNone

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		switch trimmed {
		case "symbols:":
			cur = sectionSymbols
			continue
		case "reflex_triggers:":
			cur = sectionReflexTriggers
			continue
		}

		switch cur {
		case sectionSymbols:
			if err := parseSymbolLine(rs, trimmed); err != nil {
				return nil, fmt.Errorf("ruleset: line %d: %w", lineNo, err)
			}
		case sectionReflexTriggers:
			if err := parseReflexLine(rs, trimmed); err != nil {
				return nil, fmt.Errorf("ruleset: line %d: %w", lineNo, err)
			}
		default:
			if err := parseRootLine(rs, trimmed); err != nil {
				return nil, fmt.Errorf("ruleset: line %d: %w", lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func parseRootLine(rs *Ruleset, line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("expected key: value, got %q", line)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "constraint_mode":
		rs.ConstraintMode = value
	case "entropy_tolerance":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid entropy_tolerance %q: %w", value, err)
		}
		rs.Heuristics.CriticEntropyWeight = f
	}
	return nil
}

func parseSymbolLine(rs *Ruleset, line string) error {
	name, rhs, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("expected NAME = f1, f2, ..., got %q", line)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty symbol name in %q", line)
	}

	parts := strings.Split(rhs, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q in symbol %s: %w", p, name, err)
		}
		vals = append(vals, f)
	}
	if len(vals) == 0 {
		return fmt.Errorf("symbol %s has no components", name)
	}

	rs.SymbolDefinitions[name] = tensor.NormalizeL2(tensor.New(vals))
	return nil
}

func parseReflexLine(rs *Ruleset, line string) error {
	m := reflexLineRe.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("expected sim(x, SYMBOL) > threshold -> ACTION, got %q", line)
	}

	threshold := defaultReflexThreshold
	if m[2] != "" {
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return fmt.Errorf("invalid threshold %q: %w", m[2], err)
		}
		threshold = f
	}

	rs.ReflexTriggers = append(rs.ReflexTriggers, ReflexTrigger{
		TargetSymbol:        m[1],
		SimilarityThreshold: threshold,
		ActionIntent:        m[3],
	})
	return nil
}
