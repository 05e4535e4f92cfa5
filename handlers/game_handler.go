package handlers

import (
	"net/http"

	"github.com/courtside/bracket-engine/services"
)

type GameHandler struct {
	propagation services.PropagationService
}

func NewGameHandler(propagation services.PropagationService) *GameHandler {
	return &GameHandler{propagation: propagation}
}

type propagateRequest struct {
	WinnerParticipantID int  `json:"winner_participant_id"`
	LoserParticipantID  *int `json:"loser_participant_id,omitempty"`
	Force               bool `json:"force,omitempty"`
}

// PropagateResult godoc
// @Summary Advance a completed game's winner (and loser) one hop downstream
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param input body propagateRequest true "Resolved outcome"
// @Success 200 {object} object
// @Failure 409 {object} object "target slot already resolved"
// @Security BearerAuth
// @Router /games/{gameID}/propagate [post]
func (h *GameHandler) PropagateResult(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req propagateRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.WinnerParticipantID < 1 {
		errorResponse(w, r, http.StatusBadRequest, "winner_participant_id is required")
		return
	}

	updated, err := h.propagation.PropagateResult(r.Context(), services.PropagateInput{
		GameID:              gameID,
		WinnerParticipantID: req.WinnerParticipantID,
		LoserParticipantID:  req.LoserParticipantID,
		Force:               req.Force,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"updated_games": updated}, nil)
}
