// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	app "github.com/nvara/tally/internal/app"
	"github.com/nvara/tally/internal/domain/ranking"
	"github.com/nvara/tally/internal/domain/types"
)

// RankingsDependencies defines the interface for ranking queries.
type RankingsDependencies interface {
	GetRanking(ctx context.Context, q app.Query) (types.RankingResult, error)
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps        RankingsDependencies
	maxPageSize int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxPageSize int) *RankingsHandler {
	return &RankingsHandler{
		deps:        deps,
		maxPageSize: maxPageSize,
	}
}

// HandleGetRankings handles GET /rankings requests.
//
// Query parameters: period (all|midterm|final), group_by
// (none|program|college|company), program, college, company, school_year,
// semester, group (group key to page), page, page_size, rerank (per-group
// re-ranking for top-N-per-group views).
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	qv := r.URL.Query()
	q := app.Query{
		Selector: ranking.PeriodSelector(qv.Get("period")),
		GroupBy:  ranking.GroupDimension(qv.Get("group_by")),
		Filters: ranking.Filters{
			Program:    qv.Get("program"),
			College:    qv.Get("college"),
			Company:    qv.Get("company"),
			SchoolYear: qv.Get("school_year"),
			Semester:   qv.Get("semester"),
		},
		GroupKey:       qv.Get("group"),
		PerGroupRerank: qv.Get("rerank") == "true",
	}

	if raw := qv.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		q.Page = page
	}
	if raw := qv.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			writeError(w, http.StatusBadRequest, "invalid page_size")
			return
		}
		if size > h.maxPageSize {
			writeError(w, http.StatusBadRequest, "page_size exceeds maximum")
			return
		}
		q.PageSize = size
	}

	res, err := h.deps.GetRanking(r.Context(), q)
	switch {
	case errors.Is(err, app.ErrBadSelector), errors.Is(err, app.ErrBadGrouping), errors.Is(err, app.ErrBadPageSize):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
