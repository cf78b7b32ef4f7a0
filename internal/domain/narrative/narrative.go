// Package narrative derives a fallback numeric score from free-text
// evaluation prose when no structured rating exists. This is a deterministic
// heuristic, not NLP.
package narrative

import (
	"strings"
)

// Scoring heuristic constants.
const (
	MaxScore        = 10.0
	lengthDivisor   = 100.0
	lengthCap       = 4.0
	keywordBonus    = 0.4
	keywordBonusCap = 4.0
	clauseBonus     = 2.0
	minClauses      = 3
)

// positiveKeywords are matched case-insensitively; each distinct keyword
// present adds keywordBonus, capped at keywordBonusCap.
var positiveKeywords = []string{
	"excellent",
	"outstanding",
	"great",
	"good",
	"reliable",
	"diligent",
	"hardworking",
	"punctual",
	"professional",
	"skilled",
	"dedicated",
	"helpful",
	"initiative",
	"improved",
	"consistent",
	"responsible",
	"commendable",
	"exceptional",
	"attentive",
	"cooperative",
}

// sentence terminators used to count clauses.
const terminators = ".!?"

// Score returns a score in [0, MaxScore] for the given narrative text.
// Empty or whitespace-only text scores 0.
func Score(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	score := float64(len(trimmed)) / lengthDivisor
	if score > lengthCap {
		score = lengthCap
	}

	lowered := strings.ToLower(trimmed)
	var keywordTotal float64
	for _, kw := range positiveKeywords {
		if strings.Contains(lowered, kw) {
			keywordTotal += keywordBonus
		}
	}
	if keywordTotal > keywordBonusCap {
		keywordTotal = keywordBonusCap
	}
	score += keywordTotal

	if clauses(trimmed) >= minClauses {
		score += clauseBonus
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score
}

// clauses counts sentence-terminated clauses: runs of non-terminator text
// followed by '.', '!' or '?'.
func clauses(text string) int {
	count := 0
	content := false
	for _, r := range text {
		if strings.ContainsRune(terminators, r) {
			if content {
				count++
				content = false
			}
			continue
		}
		if !content && !isSpace(r) {
			content = true
		}
	}
	return count
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
