// Package normalize maps arbitrarily-named rating fields to canonical
// semantic keys and clamps values onto the canonical scale.
package normalize

import (
	"sort"
	"strconv"
	"strings"
)

// Canonical scale bounds for individual rating fields.
const (
	ScaleMax = 5.0
	ScaleMin = 0.0
)

// Neutral defaults applied when legacy payloads carry no usable field.
const (
	DefaultZero       = 0.0
	DefaultNeutral    = 3.0
	DefaultOptimistic = 4.0
)

// ratingsKey is the sub-object some schema versions nest their payload under.
const ratingsKey = "ratings"

// Canonical semantic rating keys. Attitude and performance blocks are scored
// separately by the aggregator.
const (
	KeyCooperation     = "Cooperation and Willingness"
	KeyAttendance      = "Attendance and Punctuality"
	KeyIndustriousness = "Industriousness and Initiative"
	KeyQualityOfWork   = "Quality of Work"
	KeyQuantityOfWork  = "Quantity of Work"
	KeyDependability   = "Dependability"
	KeyComprehension   = "Comprehension and Judgement"
)

// AttitudeKeys are the semantic keys that make up the attitude block.
var AttitudeKeys = []string{
	KeyCooperation,
	KeyAttendance,
	KeyIndustriousness,
	KeyDependability,
}

// PerformanceKeys are the semantic keys that make up the performance block.
var PerformanceKeys = []string{
	KeyQualityOfWork,
	KeyQuantityOfWork,
	KeyComprehension,
}

// aliases maps each semantic key to raw key variants observed across schema
// versions, checked in priority order before falling back to substring
// scanning. Keeps the matching rules declarative and testable on their own.
var aliases = map[string][]string{
	KeyCooperation:     {"cooperation", "cooperation_willingness", "coopWillingness", "willingness"},
	KeyAttendance:      {"attendance", "attendance_punctuality", "punctuality"},
	KeyIndustriousness: {"industriousness", "initiative", "industriousness_initiative"},
	KeyQualityOfWork:   {"quality", "quality_of_work", "qualityOfWork", "work_quality"},
	KeyQuantityOfWork:  {"quantity", "quantity_of_work", "quantityOfWork", "work_quantity"},
	KeyDependability:   {"dependability", "reliability"},
	KeyComprehension:   {"comprehension", "judgement", "judgment", "comprehension_judgement"},
}

// Clamp forces v onto [0, max]. Values are clamped, never rejected.
func Clamp(v, max float64) float64 {
	if v < ScaleMin {
		return ScaleMin
	}
	if v > max {
		return max
	}
	return v
}

// Field resolves key against payload and returns the value clamped to
// [0, ScaleMax], or def when no variant of the key is present. A payload
// nested under a "ratings" sub-object is unwrapped first.
func Field(payload map[string]any, key string, def float64) float64 {
	v, ok := Lookup(payload, key)
	if !ok {
		return Clamp(def, ScaleMax)
	}
	return Clamp(v, ScaleMax)
}

// Lookup resolves key against payload without applying a default. The match
// order is: exact key, then the key and its declared aliases matched
// case-insensitively, then case-insensitive substring in either direction.
// Non-numeric values coerce to 0 with ok=true, since the field itself was
// found.
func Lookup(payload map[string]any, key string) (float64, bool) {
	p := unwrap(payload)
	if len(p) == 0 {
		return 0, false
	}

	if v, ok := p[key]; ok {
		return coerce(v), true
	}

	// Raw keys are scanned in sorted order so resolution is deterministic
	// even when several raw keys could match.
	raws := make([]string, 0, len(p))
	for raw := range p {
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	candidates := append([]string{key}, aliases[key]...)
	for _, cand := range candidates {
		for _, raw := range raws {
			if strings.EqualFold(raw, cand) {
				return coerce(p[raw]), true
			}
		}
	}

	for _, cand := range candidates {
		lowered := strings.ToLower(cand)
		for _, raw := range raws {
			lr := strings.ToLower(raw)
			if strings.Contains(lr, lowered) || strings.Contains(lowered, lr) {
				return coerce(p[raw]), true
			}
		}
	}
	return 0, false
}

// Block returns the nested rating block stored under name (e.g. "attitude"),
// matched with the same relaxed key rules as Lookup, or nil when absent.
func Block(payload map[string]any, name string) map[string]any {
	p := unwrap(payload)
	if v, ok := p[name]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	raws := make([]string, 0, len(p))
	for raw := range p {
		raws = append(raws, raw)
	}
	sort.Strings(raws)
	for _, raw := range raws {
		if strings.EqualFold(raw, name) {
			if m, ok := p[raw].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// Proportional converts a precomputed total/max pair onto scale. Returns
// false when max is not positive, i.e. the pair is absent or unusable.
func Proportional(total, max, scale float64) (float64, bool) {
	if max <= 0 {
		return 0, false
	}
	return Clamp(total/max*scale, scale), true
}

// Empty reports whether payload carries no rating fields at all, after
// unwrapping a nested "ratings" sub-object.
func Empty(payload map[string]any) bool {
	return len(unwrap(payload)) == 0
}

func unwrap(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	if inner, ok := payload[ratingsKey]; ok {
		if m, ok := inner.(map[string]any); ok {
			return m
		}
	}
	return payload
}

// coerce converts a raw payload value to float64. Non-numeric values
// coerce to 0 rather than rejecting the submission.
func coerce(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
