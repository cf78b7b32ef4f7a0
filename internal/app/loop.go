package service

import (
	"context"

	"github.com/nvara/tally/internal/adapters/feed"
	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/pkg/logger"
	"github.com/nvara/tally/pkg/metrics"
)

// run is the single event loop driving recomputation. Every feed event is
// handled atomically end-to-end before the next is processed, so no partial
// recomputation is ever observable.
func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	for {
		// Subscriptions are re-read every iteration so a section-filter
		// rebind takes effect on the next event.
		s.mu.RLock()
		rosterSub := s.rosterSub
		midtermSub := s.midtermSub
		finalSub := s.finalSub
		s.mu.RUnlock()

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.rebind:
			continue

		case snap, ok := <-rosterSub.Updates():
			if !ok {
				continue
			}
			s.onRosterUpdate(ctx, snap)
		case err := <-rosterSub.Errors():
			s.onFeedError(ctx, feedRoster, err)

		case snap, ok := <-midtermSub.Updates():
			if !ok {
				continue
			}
			s.onSubmissionUpdate(ctx, feedMidterm, snap)
		case err := <-midtermSub.Errors():
			s.onFeedError(ctx, feedMidterm, err)

		case snap, ok := <-finalSub.Updates():
			if !ok {
				continue
			}
			s.onSubmissionUpdate(ctx, feedFinal, snap)
		case err := <-finalSub.Errors():
			s.onFeedError(ctx, feedFinal, err)
		}
	}
}

// onRosterUpdate replaces the cached roster snapshot and recomputes.
func (s *Service) onRosterUpdate(ctx context.Context, snap feed.Snapshot[model.Entity]) {
	metrics.RecordFeedUpdate(feedRoster)
	metrics.UpdateFeedDocuments(feedRoster, len(snap.Docs))

	if s.suppressed(feedRoster, snap.Hash) {
		return
	}

	s.mu.Lock()
	s.roster = snap.Docs
	s.seen[feedRoster] = true
	s.lastHash[feedRoster] = snap.Hash
	delete(s.feedErr, feedRoster)
	s.mu.Unlock()

	s.recomputeAndPublish(ctx)
}

// onSubmissionUpdate replaces one submission feed's snapshot and recomputes
// using the latest known snapshot of every other feed.
func (s *Service) onSubmissionUpdate(ctx context.Context, name string, snap feed.Snapshot[model.RawSubmission]) {
	metrics.RecordFeedUpdate(name)
	metrics.UpdateFeedDocuments(name, len(snap.Docs))

	if s.suppressed(name, snap.Hash) {
		return
	}

	s.mu.Lock()
	if name == feedMidterm {
		s.midterm = snap.Docs
	} else {
		s.final = snap.Docs
	}
	s.seen[name] = true
	s.lastHash[name] = snap.Hash
	delete(s.feedErr, name)
	s.mu.Unlock()

	s.recomputeAndPublish(ctx)
}

// suppressed reports whether this snapshot is an at-least-once redelivery of
// the feed's current snapshot. Identical redeliveries do not trigger a pass;
// recomputation on them would be idempotent but wasteful.
func (s *Service) suppressed(name string, hash uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seen[name] && s.lastHash[name] == hash {
		metrics.RecordSnapshotSuppressed()
		return true
	}
	return false
}

// onFeedError surfaces a feed failure. The failing feed's contribution is
// suspended but the last consistent result set stays queryable.
func (s *Service) onFeedError(ctx context.Context, name string, err error) {
	if err == nil {
		return
	}
	metrics.RecordFeedError(name)
	metrics.RecordErrorByComponent("feed", name)

	s.mu.Lock()
	s.feedErr[name] = err
	s.mu.Unlock()

	s.logger.Error(ctx, "feed subscription failed",
		logger.String("feed", name),
		logger.Error(err),
	)
}
