package handlers

import (
	"net/http"

	"github.com/openpair/chess-tournaments/services"
)

type SectionHandler struct {
	mergeService services.MergeService
}

func NewSectionHandler(ms services.MergeService) *SectionHandler {
	return &SectionHandler{mergeService: ms}
}

// MergeHandler handles POST /tournaments/{tournamentID}/sections/merge
func (h *SectionHandler) MergeHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req services.MergeRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.mergeService.MergeSections(r.Context(), tournamentID, req)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"merge": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
