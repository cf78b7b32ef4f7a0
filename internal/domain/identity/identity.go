// Package identity matches raw submissions to canonical entities using an
// ordered strategy chain. Submissions carry no reliable foreign key, so the
// resolver works off submitter-supplied identity hints.
package identity

import (
	"context"
	"strings"

	"github.com/nvara/tally/internal/domain/model"
)

// Default resolver configuration constants.
const (
	defaultMinSubstringNameLen = 4 // substring matching only for names longer than 3 chars
)

// Tier identifies which strategy in the chain produced a match. Lower tiers
// are strictly preferred.
type Tier int

// Strategy tiers in chain order.
const (
	TierExactName Tier = iota + 1
	TierSectionProgram
	TierSectionSecondary
	TierStudentNumber
	TierEmail
	TierSubstringName
)

// String returns a short label for diagnostics and logs.
func (t Tier) String() string {
	switch t {
	case TierExactName:
		return "exact_name"
	case TierSectionProgram:
		return "section_program"
	case TierSectionSecondary:
		return "section_secondary"
	case TierStudentNumber:
		return "student_number"
	case TierEmail:
		return "email"
	case TierSubstringName:
		return "substring_name"
	default:
		return "unknown"
	}
}

// Match is the outcome of a successful resolution. Ambiguous is set when
// more than one candidate satisfied the winning tier; the first candidate in
// roster order wins, and the caller records a data-quality warning.
type Match struct {
	Entity    model.Entity
	Tier      Tier
	Ambiguous bool
}

// Resolver matches one submission to at most one entity.
type Resolver interface {
	// Resolve returns the best match for sub among candidates, or ok=false
	// when no strategy matches. A submission never resolves to more than
	// one entity.
	Resolve(ctx context.Context, sub model.RawSubmission, candidates []model.Entity) (Match, bool)
}

// Option applies a configuration option to the chain resolver.
type Option func(*chainResolver)

// WithMinSubstringNameLen overrides the minimum name length (in bytes)
// required before the substring strategy is attempted.
func WithMinSubstringNameLen(n int) Option {
	return func(r *chainResolver) {
		if n > 0 {
			r.minSubstringNameLen = n
		}
	}
}

// chainResolver implements Resolver with the ordered strategy chain.
type chainResolver struct {
	minSubstringNameLen int
}

// NewResolver creates a resolver with the default strategy chain.
func NewResolver(opts ...Option) Resolver {
	r := &chainResolver{
		minSubstringNameLen: defaultMinSubstringNameLen,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// strategy reports whether sub matches cand under one tier's rules.
type strategy func(r *chainResolver, sub model.RawSubmission, cand model.Entity) bool

// chain lists strategies in preference order; the first tier with any match
// wins and later tiers are not consulted.
var chain = []struct {
	tier  Tier
	match strategy
}{
	{TierExactName, (*chainResolver).exactName},
	{TierSectionProgram, (*chainResolver).sectionProgram},
	{TierSectionSecondary, (*chainResolver).sectionSecondary},
	{TierStudentNumber, (*chainResolver).studentNumber},
	{TierEmail, (*chainResolver).email},
	{TierSubstringName, (*chainResolver).substringName},
}

// Resolve walks the strategy chain and returns the first tier's first match
// in candidate order.
func (r *chainResolver) Resolve(_ context.Context, sub model.RawSubmission, candidates []model.Entity) (Match, bool) {
	for _, s := range chain {
		var hits []int
		for i := range candidates {
			if s.match(r, sub, candidates[i]) {
				hits = append(hits, i)
			}
		}
		if len(hits) == 0 {
			continue
		}
		return Match{
			Entity:    candidates[hits[0]],
			Tier:      s.tier,
			Ambiguous: len(hits) > 1,
		}, true
	}
	return Match{}, false
}

func (r *chainResolver) exactName(sub model.RawSubmission, cand model.Entity) bool {
	name := strings.TrimSpace(sub.Name)
	return name != "" && strings.EqualFold(name, strings.TrimSpace(cand.Name))
}

func (r *chainResolver) sectionProgram(sub model.RawSubmission, cand model.Entity) bool {
	if sub.Section == "" || sub.Program == "" {
		return false
	}
	return strings.EqualFold(sub.Section, cand.Section) &&
		strings.EqualFold(sub.Program, cand.Program)
}

func (r *chainResolver) sectionSecondary(sub model.RawSubmission, cand model.Entity) bool {
	if sub.Section == "" || !strings.EqualFold(sub.Section, cand.Section) {
		return false
	}
	return r.studentNumber(sub, cand) || r.email(sub, cand)
}

func (r *chainResolver) studentNumber(sub model.RawSubmission, cand model.Entity) bool {
	n := strings.TrimSpace(sub.StudentNumber)
	return n != "" && n == strings.TrimSpace(cand.StudentNumber)
}

func (r *chainResolver) email(sub model.RawSubmission, cand model.Entity) bool {
	e := strings.TrimSpace(sub.Email)
	return e != "" && strings.EqualFold(e, strings.TrimSpace(cand.Email))
}

func (r *chainResolver) substringName(sub model.RawSubmission, cand model.Entity) bool {
	name := strings.ToLower(strings.TrimSpace(sub.Name))
	if len(name) < r.minSubstringNameLen {
		return false
	}
	candName := strings.ToLower(strings.TrimSpace(cand.Name))
	if candName == "" {
		return false
	}
	return strings.Contains(candName, name) || strings.Contains(name, candName)
}
