package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/services"
)

type PairingHandler struct {
	pairingService services.PairingService
}

func NewPairingHandler(ps services.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: ps}
}

// GenerateHandler handles POST /tournaments/{tournamentID}/sections/{section}/rounds/{round}/pairings
func (h *PairingHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
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

	clearExisting := r.URL.Query().Get("clear_existing") == "true"

	pairings, warnings, err := h.pairingService.GeneratePairings(r.Context(), tournamentID, section, round, clearExisting)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{
		"pairings": pairings,
		"warnings": warnings,
	}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/sections/{section}/rounds/{round}/pairings
func (h *PairingHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
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

	pairings, err := h.pairingService.GetRoundPairings(r.Context(), tournamentID, section, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// The wall chart is the printed form of the same data.
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(services.BuildPairingsChart(section, round, pairings)))
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairings": pairings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ManualPairingHandler handles PUT /pairings/{pairingID}/players
func (h *PairingHandler) ManualPairingHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		WhiteID *int   `json:"white_id"`
		BlackID *int   `json:"black_id"`
		Reason  string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, warnings, err := h.pairingService.ApplyManualPairing(r.Context(), pairingID, input.WhiteID, input.BlackID, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{
		"pairing":  updated,
		"warnings": warnings,
	}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResultHandler handles PUT /pairings/{pairingID}/result
func (h *PairingHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Result models.Result `json:"result"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, err := h.pairingService.SubmitResult(r.Context(), pairingID, input.Result)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairing": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
