package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openpair/chess-tournaments/services"
)

type PrizeHandler struct {
	prizeService services.PrizeService
}

func NewPrizeHandler(ps services.PrizeService) *PrizeHandler {
	return &PrizeHandler{prizeService: ps}
}

// CreateHandler handles POST /tournaments/{tournamentID}/sections/{section}/prizes
func (h *PrizeHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")

	var input services.CreatePrizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prize, err := h.prizeService.CreatePrize(r.Context(), tournamentID, section, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"prize": prize}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/sections/{section}/prizes
func (h *PrizeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	section := chi.URLParam(r, "section")

	prizes, err := h.prizeService.ListPrizes(r.Context(), tournamentID, section)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prizes": prizes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AwardHandler handles POST /prizes/{prizeID}/award
func (h *PrizeHandler) AwardHandler(w http.ResponseWriter, r *http.Request) {
	prizeID, err := getIDFromURL(r, "prizeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerID int `json:"player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.prizeService.AwardPrize(r.Context(), prizeID, input.PlayerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"awarded": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
