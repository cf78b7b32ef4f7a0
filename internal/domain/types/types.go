// Package types contains common types used across the application
package types

import "github.com/nvara/tally/internal/domain/model"

// GroupPage is one ranked group as returned by a ranking query: the group
// key, the total number of ranked entries in the group, and the entries on
// the current page only.
type GroupPage struct {
	Key        string               `json:"key"`
	TotalCount int                  `json:"total_count"`
	Page       int                  `json:"page"`
	PageItems  []model.RankedEntity `json:"page_items"`
}

// RankingResult is the full answer to a ranking query, including the
// coordinator's loading and error state at the moment of the query.
type RankingResult struct {
	Loading bool        `json:"loading"`
	Error   string      `json:"error,omitempty"`
	Groups  []GroupPage `json:"groups"`
}
