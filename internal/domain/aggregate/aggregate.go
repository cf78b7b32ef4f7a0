// Package aggregate reduces matched submissions into per-period scores and
// combines periods into one final score under a fixed weighting policy.
package aggregate

import (
	"math"

	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/domain/narrative"
	"github.com/nvara/tally/internal/domain/normalize"
)

// Scoring constants.
const (
	// PeriodScale is the [0, 10] scale period scores live on.
	PeriodScale = 10.0

	// Period weights when both periods are present. Fixed by contract,
	// deliberately not configurable.
	midtermWeight = 0.5
	finalWeight   = 0.5

	attitudeBlock    = "attitude"
	performanceBlock = "performance"
)

// Source identifies which path produced a submission's score.
type Source int

// Score sources in precedence order.
const (
	SourceNone Source = iota
	SourceTotals
	SourceBlocks
	SourceNarrative
)

// SubmissionScore computes one submission's score on [0, PeriodScale].
// Precedence: precomputed total/max pair, then attitude+performance rating
// blocks, then the narrative fallback. ok=false means the submission carries
// nothing scoreable and contributes nothing to aggregation.
func SubmissionScore(sub model.RawSubmission) (float64, bool) {
	s, _, ok := ScoreWithSource(sub)
	return s, ok
}

// ScoreWithSource is SubmissionScore plus which path scored it, for
// diagnostics.
func ScoreWithSource(sub model.RawSubmission) (float64, Source, bool) {
	if s, ok := normalize.Proportional(sub.TotalScore, sub.MaxPossibleScore, PeriodScale); ok {
		return s, SourceTotals, true
	}

	if s, ok := blockScore(sub.Ratings); ok {
		return s, SourceBlocks, true
	}

	if s := narrative.Score(sub.Narrative); s > 0 {
		return s, SourceNarrative, true
	}
	return 0, SourceNone, false
}

// blockScore scores the attitude and performance blocks together. Both
// blocks must be present; each field counts out of normalize.ScaleMax.
func blockScore(payload map[string]any) (float64, bool) {
	att := normalize.Block(payload, attitudeBlock)
	perf := normalize.Block(payload, performanceBlock)
	if att == nil || perf == nil {
		return 0, false
	}

	attScore, attMax := blockTotals(att, normalize.AttitudeKeys)
	perfScore, perfMax := blockTotals(perf, normalize.PerformanceKeys)
	if attMax+perfMax == 0 {
		return 0, false
	}
	return (attScore + perfScore) / (attMax + perfMax) * PeriodScale, true
}

// blockTotals sums the semantic keys present in block. Only keys the block
// actually carries count toward the maximum, so a partially-renamed payload
// still yields usable data for the fields that do match.
func blockTotals(block map[string]any, keys []string) (sum, max float64) {
	for _, key := range keys {
		v, ok := normalize.Lookup(block, key)
		if !ok {
			continue
		}
		sum += normalize.Clamp(v, normalize.ScaleMax)
		max += normalize.ScaleMax
	}
	return sum, max
}

// PeriodScoreOf reduces all of one entity's submissions within one period to
// a single PeriodScore: the arithmetic mean of per-submission scores, rounded
// to one decimal. ok=false when no submission was scoreable; an absent period
// score is explicitly absent, not zero.
func PeriodScoreOf(subs []model.RawSubmission) (model.PeriodScore, bool) {
	var total float64
	var count int
	for i := range subs {
		s, ok := SubmissionScore(subs[i])
		if !ok {
			continue
		}
		total += s
		count++
	}
	if count == 0 {
		return model.PeriodScore{}, false
	}
	return model.PeriodScore{
		Score:       round1(total / float64(count)),
		Submissions: count,
	}, true
}

// Combine merges the (possibly absent) midterm and final period scores.
// Both present: 0.5/0.5 weighted. One present: that score at full weight.
// Neither: undefined, ok=false, and the entity is excluded from ranking.
// Rounding to one decimal happens after weighting, not before.
func Combine(midterm, final *model.PeriodScore) (model.CombinedScore, bool) {
	switch {
	case midterm != nil && final != nil:
		return model.CombinedScore{
			Score:      round1(finalWeight*final.Score + midtermWeight*midterm.Score),
			HasMidterm: true,
			HasFinal:   true,
		}, true
	case final != nil:
		return model.CombinedScore{
			Score:    round1(final.Score),
			HasFinal: true,
		}, true
	case midterm != nil:
		return model.CombinedScore{
			Score:      round1(midterm.Score),
			HasMidterm: true,
		}, true
	default:
		return model.CombinedScore{}, false
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
