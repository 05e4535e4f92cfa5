package handlers

import (
	"net/http"

	"github.com/courtside/bracket-engine/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	guardService   services.GuardService
	snapshots      services.SnapshotService
}

func NewBracketHandler(
	bracketService services.BracketService,
	guardService services.GuardService,
	snapshots services.SnapshotService,
) *BracketHandler {
	return &BracketHandler{
		bracketService: bracketService,
		guardService:   guardService,
		snapshots:      snapshots,
	}
}

// GenerateBracket godoc
// @Summary Generate the full bracket for a tournament
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} services.GenerateResult
// @Failure 409 {object} object "tournament already has games"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket [post]
func (h *BracketHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.GenerateBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result, nil)
}

// GetBracket godoc
// @Summary Get the full bracket state of a tournament
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.BracketView
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view, nil)
}

// RelinkBracket godoc
// @Summary Recompute advancement edges for every persisted game
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} object
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/relink [post]
func (h *BracketHandler) RelinkBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	violations, err := h.bracketService.Relink(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"link_violations": violations}, nil)
}

// ValidateBracket godoc
// @Summary Validate the persisted bracket against its shape's topology
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} object
// @Router /tournaments/{tournamentID}/bracket/validate [get]
func (h *BracketHandler) ValidateBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	violations, err := h.guardService.Validate(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{
		"valid":      len(violations) == 0,
		"violations": violations,
	}, nil)
}

// ListDuplicates godoc
// @Summary List groups of games occupying the same bracket position
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} object
// @Router /tournaments/{tournamentID}/bracket/duplicates [get]
func (h *BracketHandler) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.guardService.FindDuplicates(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"duplicate_groups": groups}, nil)
}

type pruneRequest struct {
	Keep []int `json:"keep"`
}

// PruneBracket godoc
// @Summary Delete every game of the tournament except the given ids
// @Description An empty keep list clears the bracket entirely.
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body pruneRequest true "Game ids to keep"
// @Success 200 {object} object
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/prune [post]
func (h *BracketHandler) PruneBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req pruneRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.guardService.Prune(r.Context(), tournamentID, req.Keep)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"deleted": deleted}, nil)
}

// ExportSnapshot godoc
// @Summary Export a point-in-time JSON snapshot of the bracket to storage
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} storage.UploadResult
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket/snapshot [post]
func (h *BracketHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.snapshots.ExportSnapshot(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result, nil)
}
