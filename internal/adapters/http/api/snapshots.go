// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nvara/tally/internal/domain/model"
)

// Maximum accepted snapshot body size.
const maxSnapshotBytes = 32 << 20

// Feed path segments accepted by POST /snapshots/{feed}.
const (
	snapshotRoster  = "roster"
	snapshotMidterm = "midterm"
	snapshotFinal   = "final"
)

// SnapshotsHandler ingests full-collection snapshots on behalf of the
// external persistence collaborator. Each POST replaces the named feed's
// collection wholesale; deltas are not supported by contract.
type SnapshotsHandler struct {
	pub Publisher
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(pub Publisher) *SnapshotsHandler {
	return &SnapshotsHandler{pub: pub}
}

// HandlePostSnapshot handles POST /snapshots/{roster|midterm|final} with a
// JSON array body containing the complete current collection.
func (h *SnapshotsHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/snapshots/")
	body := http.MaxBytesReader(w, r.Body, maxSnapshotBytes)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)

	switch name {
	case snapshotRoster:
		var docs []model.Entity
		if err := dec.Decode(&docs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid snapshot body")
			return
		}
		if err := h.pub.PublishRoster(r.Context(), docs); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"documents": len(docs)})

	case snapshotMidterm, snapshotFinal:
		var docs []model.RawSubmission
		if err := dec.Decode(&docs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid snapshot body")
			return
		}
		publish := h.pub.PublishMidterm
		if name == snapshotFinal {
			publish = h.pub.PublishFinal
		}
		if err := publish(r.Context(), docs); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]int{"documents": len(docs)})

	default:
		writeError(w, http.StatusNotFound, ErrUnknownFeed.Error())
	}
}
