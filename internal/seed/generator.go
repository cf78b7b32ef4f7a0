// Package seed generates sample rosters and evaluation submissions for
// demos and load sanity checks, covering every schema shape the engine
// accepts.
package seed

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/nvara/tally/internal/domain/model"
)

// Generation ratio constants, out of 100.
const (
	ratioTotalsSchema    = 30 // precomputed total/max pair
	ratioBlockSchema     = 60 // attitude/performance blocks (cumulative)
	ratioNarrativeSchema = 80 // narrative only (cumulative); rest are legacy renamed keys
	ratioMissingSection  = 20
	ratioRenamedKeys     = 50
)

// Rating value bounds.
const (
	ratingMin = 2.0
	ratingMax = 5.0
)

var programs = []string{"BSIT", "BSCS", "BSEMC", "BSIS"}

var colleges = []string{
	"College of Information and Computing Sciences",
	"College of Engineering",
	"College of Business Administration",
}

var companies = []string{
	"Striped Umbrella Digital",
	"Meridian Software Labs",
	"Harborview Analytics",
	"Cielo Systems",
}

var firstNames = []string{
	"Juan", "Maria", "Jose", "Ana", "Carlo", "Liza", "Paolo", "Grace",
	"Miguel", "Teresa", "Ramon", "Bea", "Diego", "Luz", "Andres", "Carmen",
}

var lastNames = []string{
	"Dela Cruz", "Santos", "Reyes", "Garcia", "Mendoza", "Torres",
	"Flores", "Ramos", "Gonzales", "Bautista", "Villanueva", "Aquino",
}

var narratives = []string{
	"An excellent and reliable trainee. Consistently punctual and professional. Shows great initiative in every task assigned.",
	"Good performance overall. Needs minor supervision but improved steadily over the term.",
	"Outstanding work ethic. Very dependable and helpful to the whole team. Highly commendable output week after week.",
	"Satisfactory.",
	"",
}

// Generator produces deterministic sample data from a seed.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// NewGenerator creates a generator. The same seed always produces the same
// data set, ids included, which keeps demo reruns reproducible.
func NewGenerator(seedVal int64) *Generator {
	return &Generator{
		rng:  rand.New(rand.NewSource(seedVal)), //nolint:gosec // deterministic sample data, not crypto
		seed: seedVal,
	}
}

// id derives a stable UUID from the seed and a label.
func (g *Generator) id(label string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("tally-%d-%s-%d", g.seed, label, n))).String()
}

// Roster generates n canonical entities.
func (g *Generator) Roster(n int) []model.Entity {
	roster := make([]model.Entity, 0, n)
	for i := 0; i < n; i++ {
		program := programs[g.rng.Intn(len(programs))]
		first := firstNames[g.rng.Intn(len(firstNames))]
		last := lastNames[g.rng.Intn(len(lastNames))]
		name := fmt.Sprintf("%s %s", first, last)
		roster = append(roster, model.Entity{
			ID:            g.id("entity", i),
			Name:          name,
			Program:       program,
			College:       colleges[g.rng.Intn(len(colleges))],
			Section:       fmt.Sprintf("%s-%d%c", program, 3+g.rng.Intn(2), 'A'+rune(g.rng.Intn(3))),
			Company:       companies[g.rng.Intn(len(companies))],
			StudentNumber: fmt.Sprintf("%d-%05d", 2020+g.rng.Intn(5), g.rng.Intn(100000)),
			Email:         fmt.Sprintf("%s.%d@university.edu", first, i),
			SchoolYear:    "2025-2026",
			Semester:      "1st",
		})
	}
	return roster
}

// Submissions generates one submission per roster entity for the given
// period, spread across schema shapes. A slice of the identity hints is
// deliberately degraded (missing section, renamed keys) to exercise the
// resolver chain.
func (g *Generator) Submissions(roster []model.Entity, period model.Period) []model.RawSubmission {
	subs := make([]model.RawSubmission, 0, len(roster))
	for i := range roster {
		ent := roster[i]
		sub := model.RawSubmission{
			ID:     g.id("submission-"+string(period), i),
			Name:   ent.Name,
			Period: period,
		}

		if g.rng.Intn(100) >= ratioMissingSection {
			sub.Section = ent.Section
			sub.Program = ent.Program
		} else if g.rng.Intn(2) == 0 {
			sub.StudentNumber = ent.StudentNumber
		} else {
			sub.Email = ent.Email
		}

		switch shape := g.rng.Intn(100); {
		case shape < ratioTotalsSchema:
			sub.TotalScore = g.ratingValue() * 7
			sub.MaxPossibleScore = 35
		case shape < ratioBlockSchema:
			sub.Ratings = map[string]any{
				"attitude":    g.attitudeBlock(),
				"performance": g.performanceBlock(),
			}
		case shape < ratioNarrativeSchema:
			sub.Narrative = narratives[g.rng.Intn(len(narratives))]
		default:
			sub.Ratings = map[string]any{
				"ratings": g.legacyPayload(),
			}
		}
		subs = append(subs, sub)
	}
	return subs
}

func (g *Generator) ratingValue() float64 {
	return ratingMin + g.rng.Float64()*(ratingMax-ratingMin)
}

func (g *Generator) attitudeBlock() map[string]any {
	return map[string]any{
		"Cooperation and Willingness":    g.ratingValue(),
		"Attendance and Punctuality":     g.ratingValue(),
		"Industriousness and Initiative": g.ratingValue(),
		"Dependability":                  g.ratingValue(),
	}
}

func (g *Generator) performanceBlock() map[string]any {
	return map[string]any{
		"Quality of Work":             g.ratingValue(),
		"Quantity of Work":            g.ratingValue(),
		"Comprehension and Judgement": g.ratingValue(),
	}
}

// legacyPayload uses the renamed lowercase keys older forms submitted.
func (g *Generator) legacyPayload() map[string]any {
	if g.rng.Intn(100) < ratioRenamedKeys {
		return map[string]any{
			"cooperation": g.ratingValue(),
			"attendance":  g.ratingValue(),
			"quality":     g.ratingValue(),
			"quantity":    g.ratingValue(),
			"reliability": g.ratingValue(),
			"judgement":   g.ratingValue(),
			"initiative":  g.ratingValue(),
		}
	}
	return map[string]any{
		"Cooperation and Willingness": g.ratingValue(),
		"Quality of Work":             g.ratingValue(),
	}
}
