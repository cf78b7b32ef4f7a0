// Package service provides the aggregation coordinator that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nvara/tally/internal/adapters/feed"
	"github.com/nvara/tally/internal/adapters/resultstore"
	"github.com/nvara/tally/internal/domain/identity"
	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/domain/ranking"
	"github.com/nvara/tally/internal/domain/types"
	"github.com/nvara/tally/pkg/logger"
)

// Logical feed names used for diagnostics and error state.
const (
	feedRoster  = "roster"
	feedMidterm = "midterm"
	feedFinal   = "final"
)

// Feeds bundles the three upstream subscriptions the coordinator consumes.
type Feeds struct {
	Roster  feed.Feed[model.Entity]
	Midterm feed.Feed[model.RawSubmission]
	Final   feed.Feed[model.RawSubmission]
}

// Service is the aggregation coordinator: it owns the latest snapshot per
// feed, recomputes the full pipeline on every feed event, and exposes the
// latest consistent result set plus loading/error state.
//
// The snapshot cache is mutated only by the event loop; queries read the
// result store, never the cache.
type Service struct {
	mu sync.RWMutex

	// Core components
	feeds    Feeds
	resolver identity.Resolver
	store    resultstore.Store
	pager    *ranking.Pager

	// Configuration
	defaultPageSize int
	sectionFilter   string

	// Live subscriptions; replaced on a section-filter change.
	rosterSub  feed.Subscription[model.Entity]
	midtermSub feed.Subscription[model.RawSubmission]
	finalSub   feed.Subscription[model.RawSubmission]
	rebind     chan struct{}

	// Snapshot cache - owned by the event loop.
	roster   []model.Entity
	midterm  []model.RawSubmission
	final    []model.RawSubmission
	seen     map[string]bool
	lastHash map[string]uint64
	passSeq  uint64

	// Query-visible state
	diag    Diagnostics
	feedErr map[string]error

	// State
	started bool
	stopCh  chan struct{}
	done    chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithResolver sets a custom identity resolver.
func WithResolver(r identity.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithStore sets a custom result store.
func WithStore(st resultstore.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDefaultPageSize sets the page size used when a query supplies none.
func WithDefaultPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.defaultPageSize = size
		}
	}
}

// WithSectionFilter restricts submission aggregation to one section.
func WithSectionFilter(section string) Option {
	return func(s *Service) {
		s.sectionFilter = section
	}
}

// New constructs a new Service with default configuration.
func New(feeds Feeds, opts ...Option) *Service {
	s := &Service{
		feeds:           feeds,
		defaultPageSize: 20,
		seen:            make(map[string]bool),
		lastHash:        make(map[string]uint64),
		feedErr:         make(map[string]error),
		rebind:          make(chan struct{}, 1),
		stopCh:          make(chan struct{}),
		done:            make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		s.resolver = identity.NewResolver()
	}
	if s.store == nil {
		s.store = resultstore.NewMemoryStore()
	}
	s.pager = ranking.NewPager(ranking.WithPageSize(s.defaultPageSize))

	return s
}

// Start subscribes to every feed and launches the event loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting reconciliation coordinator...")

	rosterSub, err := s.feeds.Roster.Subscribe(ctx)
	if err != nil {
		return err
	}
	midtermSub, err := s.feeds.Midterm.Subscribe(ctx)
	if err != nil {
		rosterSub.Unsubscribe()
		return err
	}
	finalSub, err := s.feeds.Final.Subscribe(ctx)
	if err != nil {
		rosterSub.Unsubscribe()
		midtermSub.Unsubscribe()
		return err
	}
	s.rosterSub = rosterSub
	s.midtermSub = midtermSub
	s.finalSub = finalSub

	go s.run(ctx)

	s.started = true
	s.logger.Info(ctx, "reconciliation coordinator started",
		logger.Int("pageSize", s.defaultPageSize),
		logger.String("sectionFilter", s.sectionFilter),
	)
	return nil
}

// Stop releases every feed subscription and stops the event loop. An
// in-flight pass completes; only future feed events are affected.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false

	s.logger.Info(context.Background(), "stopping reconciliation coordinator...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.rosterSub.Unsubscribe()
	s.midtermSub.Unsubscribe()
	s.finalSub.Unsubscribe()
	s.mu.Unlock()

	<-s.done
	s.logger.Info(context.Background(), "reconciliation coordinator stopped")
}

// SetSectionFilter switches the submission section filter. The affected
// submission subscriptions are torn down and re-established, and the
// coordinator reports loading for those feeds until they re-emit.
func (s *Service) SetSectionFilter(ctx context.Context, section string) error {
	s.mu.Lock()

	if !s.started {
		s.sectionFilter = section
		s.mu.Unlock()
		return nil
	}
	if strings.EqualFold(s.sectionFilter, section) {
		s.mu.Unlock()
		return nil
	}

	midtermSub, err := s.feeds.Midterm.Subscribe(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	finalSub, err := s.feeds.Final.Subscribe(ctx)
	if err != nil {
		midtermSub.Unsubscribe()
		s.mu.Unlock()
		return err
	}

	oldMidterm, oldFinal := s.midtermSub, s.finalSub
	s.midtermSub = midtermSub
	s.finalSub = finalSub
	s.sectionFilter = section
	s.seen[feedMidterm] = false
	s.seen[feedFinal] = false
	delete(s.lastHash, feedMidterm)
	delete(s.lastHash, feedFinal)
	s.pager.Reset()
	s.mu.Unlock()

	oldMidterm.Unsubscribe()
	oldFinal.Unsubscribe()

	// Wake the loop so it picks up the new subscription channels.
	select {
	case s.rebind <- struct{}{}:
	default:
	}

	s.logger.Info(ctx, "section filter changed; submission feeds resubscribed",
		logger.String("section", section),
	)
	return nil
}

// Query describes one ranking request.
type Query struct {
	Selector       ranking.PeriodSelector
	GroupBy        ranking.GroupDimension
	Filters        ranking.Filters
	PerGroupRerank bool

	// GroupKey and Page reposition one group before paginating; other
	// groups keep their tracked pages.
	GroupKey string
	Page     int

	// PageSize overrides the default page size for this query.
	PageSize int
}

// GetRanking computes grouped, ranked, paginated results over the latest
// consistent pass.
func (s *Service) GetRanking(ctx context.Context, q Query) (types.RankingResult, error) {
	s.mu.RLock()
	started := s.started
	loading := !(s.seen[feedRoster] && s.seen[feedMidterm] && s.seen[feedFinal])
	errMsg := s.feedErrString()
	s.mu.RUnlock()

	if !started {
		return types.RankingResult{}, ErrNotStarted
	}

	if q.Selector == "" {
		q.Selector = ranking.SelectAll
	}
	if q.GroupBy == "" {
		q.GroupBy = ranking.GroupNone
	}
	if !q.Selector.Valid() {
		return types.RankingResult{}, ErrBadSelector
	}
	if !q.GroupBy.Valid() {
		return types.RankingResult{}, ErrBadGrouping
	}
	if q.PageSize < 0 {
		return types.RankingResult{}, ErrBadPageSize
	}

	res := types.RankingResult{
		Loading: loading,
		Error:   errMsg,
		Groups:  []types.GroupPage{},
	}

	pass, ready := s.store.Latest(ctx)
	if !ready {
		res.Loading = true
		return res, nil
	}

	groups := ranking.Rank(pass.Entries, ranking.Options{
		Selector:       q.Selector,
		GroupBy:        q.GroupBy,
		Filters:        q.Filters,
		PerGroupRerank: q.PerGroupRerank,
	})

	if q.Page > 0 {
		s.pager.SetPage(q.GroupKey, q.Page)
	}
	for _, g := range groups {
		res.Groups = append(res.Groups, s.pager.SliceN(g, q.PageSize))
	}
	return res, nil
}

// Entity returns the scored entry for one entity id from the latest pass.
func (s *Service) Entity(ctx context.Context, id string) (model.RankedEntity, error) {
	return s.store.Entity(ctx, id)
}

// Stats returns coordinator statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"loading":        !(s.seen[feedRoster] && s.seen[feedMidterm] && s.seen[feedFinal]),
		"pass_seq":       s.passSeq,
		"entities":       s.store.Count(ctx),
		"section_filter": s.sectionFilter,
		"diagnostics":    s.diag,
	}
	if msg := s.feedErrString(); msg != "" {
		stats["feed_error"] = msg
	}
	return stats
}

// feedErrString joins current feed failures. Callers hold s.mu.
func (s *Service) feedErrString() string {
	if len(s.feedErr) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.feedErr))
	for _, name := range []string{feedRoster, feedMidterm, feedFinal} {
		if err, ok := s.feedErr[name]; ok {
			parts = append(parts, name+": "+err.Error())
		}
	}
	return strings.Join(parts, "; ")
}

// Diagnostics returns the last pass's diagnostics.
func (s *Service) Diagnostics() Diagnostics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diag
}

// recomputeAndPublish runs one full pass over the cached snapshots and swaps
// the result into the store. Called only from the event loop, so passes are
// strictly serialized.
func (s *Service) recomputeAndPublish(ctx context.Context) {
	s.mu.RLock()
	roster := s.roster
	midterm := s.midterm
	final := s.final
	filter := s.sectionFilter
	s.mu.RUnlock()

	entries, diag := recompute(ctx, s.resolver, s.logger, roster, midterm, final, filter)

	s.mu.Lock()
	s.passSeq++
	seq := s.passSeq
	s.diag = diag
	s.mu.Unlock()

	s.store.Replace(ctx, resultstore.Pass{
		Entries:    entries,
		Seq:        seq,
		ComputedAt: time.Now(),
	})

	s.logger.Debug(ctx, "reconciliation pass complete",
		logger.Int("entities", diag.EntitiesScored),
		logger.Int("dropped", diag.SubmissionsDropped),
		logger.Duration("duration", diag.Duration),
	)
}
