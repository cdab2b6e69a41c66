package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openpair/chess-tournaments/services"
)

type RoundHandler struct {
	roundService services.RoundService
}

func NewRoundHandler(rs services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: rs}
}

// StatusHandler handles GET /tournaments/{tournamentID}/sections/{section}/rounds/{round}
func (h *RoundHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")

	status, err := h.roundService.GetRoundStatus(r.Context(), tournamentID, section, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/sections/{section}/rounds
func (h *RoundHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")

	rounds, err := h.roundService.GetSectionRounds(r.Context(), tournamentID, section)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteHandler handles POST /tournaments/{tournamentID}/sections/{section}/rounds/{round}/complete
func (h *RoundHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")

	nextRound, err := h.roundService.CompleteRound(r.Context(), tournamentID, section, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{
		"completed_round": round,
		"next_round":      nextRound,
	}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetHandler handles POST /tournaments/{tournamentID}/sections/{section}/reset
func (h *RoundHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")

	removed, err := h.roundService.ResetSection(r.Context(), tournamentID, section)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairings_removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
