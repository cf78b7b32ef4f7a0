// Package model contains domain models passed between layers.
package model

// Period identifies one of the two evaluation windows per academic term.
type Period string

// Evaluation periods.
const (
	PeriodMidterm Period = "midterm"
	PeriodFinal   Period = "final"
)

// Valid reports whether p is a known evaluation period.
func (p Period) Valid() bool {
	return p == PeriodMidterm || p == PeriodFinal
}

// Entity is a canonical record being evaluated: a student, a company, or a
// partner. Identity attributes are immutable during a reconciliation pass;
// the upstream roster collaborator owns their lifecycle.
type Entity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Program       string `json:"program,omitempty"`
	College       string `json:"college,omitempty"`
	Section       string `json:"section,omitempty"`
	Company       string `json:"company,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
	Email         string `json:"email,omitempty"`
	SchoolYear    string `json:"school_year,omitempty"`
	Semester      string `json:"semester,omitempty"`
}

// RawSubmission is one evaluation document as received from a feed. Identity
// hints are submitter-supplied and any subset may be absent; the ratings
// payload varies by schema version (renamed keys, nesting under "ratings",
// precomputed totals, or narrative text only).
type RawSubmission struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Section       string `json:"section,omitempty"`
	Program       string `json:"program,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
	Email         string `json:"email,omitempty"`
	Company       string `json:"company,omitempty"`
	SchoolYear    string `json:"school_year,omitempty"`
	Semester      string `json:"semester,omitempty"`

	Period Period `json:"evaluation_period"`

	// Ratings is the schema-version-dependent payload. Values may be
	// numbers, numeric strings, or nested rating blocks.
	Ratings map[string]any `json:"ratings,omitempty"`

	// TotalScore and MaxPossibleScore are a precomputed pair carried by
	// some schema versions. MaxPossibleScore <= 0 means the pair is absent.
	TotalScore       float64 `json:"total_score,omitempty"`
	MaxPossibleScore float64 `json:"max_possible_score,omitempty"`

	// Narrative is free-text evaluation prose, scored only when no
	// structured rating is usable.
	Narrative string `json:"evaluation,omitempty"`
}

// PeriodScore is one entity's mean score across all matched submissions
// within a single period, on the [0, 10] scale.
type PeriodScore struct {
	Score       float64 `json:"score"`
	Submissions int     `json:"submissions"`
}

// CombinedScore merges an entity's midterm and final period scores.
type CombinedScore struct {
	Score      float64 `json:"score"`
	HasMidterm bool    `json:"has_midterm"`
	HasFinal   bool    `json:"has_final"`
}

// RankedEntity is an Entity augmented with its scores, its dense 1-based
// rank within the list it was ranked in, and the group it was partitioned
// into. Rank and Group are zero-valued on unranked scored entries.
type RankedEntity struct {
	Entity

	Midterm  *PeriodScore  `json:"midterm,omitempty"`
	Final    *PeriodScore  `json:"final,omitempty"`
	Combined CombinedScore `json:"combined"`

	Rank  int    `json:"rank,omitempty"`
	Group string `json:"group,omitempty"`
}
