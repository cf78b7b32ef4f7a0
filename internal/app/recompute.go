package service

import (
	"context"
	"strings"
	"time"

	"github.com/nvara/tally/internal/domain/aggregate"
	"github.com/nvara/tally/internal/domain/identity"
	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/domain/normalize"
	"github.com/nvara/tally/pkg/logger"
	"github.com/nvara/tally/pkg/metrics"
)

// Diagnostics summarizes one reconciliation pass for /stats and metrics.
// Every counter resets each pass; nothing here survives recomputation.
type Diagnostics struct {
	SubmissionsSeen    int           `json:"submissions_seen"`
	SubmissionsMatched int           `json:"submissions_matched"`
	SubmissionsDropped int           `json:"submissions_dropped"`
	AmbiguousMatches   int           `json:"ambiguous_matches"`
	MalformedRatings   int           `json:"malformed_ratings"`
	NarrativeFallbacks int           `json:"narrative_fallbacks"`
	EntitiesScored     int           `json:"entities_scored"`
	EntitiesScoreless  int           `json:"entities_scoreless"`
	Duration           time.Duration `json:"duration"`
}

// periodSubs collects one entity's matched submissions split by period.
type periodSubs struct {
	midterm []model.RawSubmission
	final   []model.RawSubmission
}

// recompute runs the full pipeline over the latest snapshots: resolve every
// submission to an entity, aggregate per period, combine, and emit scored
// entities in roster order. It is a pure function of its inputs; running it
// twice on unchanged snapshots yields identical output.
func recompute(
	ctx context.Context,
	resolver identity.Resolver,
	log logger.Logger,
	roster []model.Entity,
	midterm []model.RawSubmission,
	final []model.RawSubmission,
	sectionFilter string,
) ([]model.RankedEntity, Diagnostics) {
	start := time.Now()
	diag := Diagnostics{}

	matched := make(map[string]*periodSubs, len(roster))

	resolve := func(subs []model.RawSubmission, period model.Period) {
		for i := range subs {
			sub := subs[i]
			if sectionFilter != "" && sub.Section != "" && !strings.EqualFold(sub.Section, sectionFilter) {
				continue
			}
			diag.SubmissionsSeen++
			metrics.RecordSubmissionProcessed()

			m, ok := resolver.Resolve(ctx, sub, roster)
			if !ok {
				// MatchFailure: non-fatal, the submission is dropped.
				diag.SubmissionsDropped++
				metrics.RecordMatchFailure()
				log.Debug(ctx, "submission matched no entity",
					logger.String("name", sub.Name),
					logger.String("section", sub.Section),
					logger.String("period", string(period)),
				)
				continue
			}
			diag.SubmissionsMatched++
			metrics.RecordSubmissionMatched()
			if m.Ambiguous {
				// Data-quality warning, not an error: first candidate in
				// roster order won.
				diag.AmbiguousMatches++
				metrics.RecordAmbiguousMatch(m.Tier.String())
				log.Warn(ctx, "ambiguous identity match",
					logger.String("name", sub.Name),
					logger.String("tier", m.Tier.String()),
					logger.String("entity", m.Entity.ID),
				)
			}

			ps := matched[m.Entity.ID]
			if ps == nil {
				ps = &periodSubs{}
				matched[m.Entity.ID] = ps
			}
			if period == model.PeriodMidterm {
				ps.midterm = append(ps.midterm, sub)
			} else {
				ps.final = append(ps.final, sub)
			}

			switch _, src, scoreable := aggregate.ScoreWithSource(sub); {
			case !scoreable:
				diag.MalformedRatings++
				metrics.RecordMalformedRating()
			case src == aggregate.SourceNarrative:
				diag.NarrativeFallbacks++
				metrics.RecordNarrativeFallback()
				if !normalize.Empty(sub.Ratings) {
					// Ratings were present but unusable.
					diag.MalformedRatings++
					metrics.RecordMalformedRating()
				}
			}
		}
	}

	resolve(midterm, model.PeriodMidterm)
	resolve(final, model.PeriodFinal)

	// Roster order is the stable input order every downstream tie-break
	// rests on.
	entries := make([]model.RankedEntity, 0, len(matched))
	for i := range roster {
		ent := roster[i]
		ps := matched[ent.ID]

		var mid, fin *model.PeriodScore
		if ps != nil {
			if s, ok := aggregate.PeriodScoreOf(ps.midterm); ok {
				mid = &s
			}
			if s, ok := aggregate.PeriodScoreOf(ps.final); ok {
				fin = &s
			}
		}

		combined, ok := aggregate.Combine(mid, fin)
		if !ok {
			diag.EntitiesScoreless++
			continue
		}
		diag.EntitiesScored++
		entries = append(entries, model.RankedEntity{
			Entity:   ent,
			Midterm:  mid,
			Final:    fin,
			Combined: combined,
		})
	}

	diag.Duration = time.Since(start)
	metrics.RecordRecompute(float64(diag.Duration.Milliseconds()))
	metrics.UpdateEntitiesRanked(diag.EntitiesScored)
	metrics.UpdateEntitiesScoreless(diag.EntitiesScoreless)
	return entries, diag
}
