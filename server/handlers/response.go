package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	services "crowdmap/service"
)

// USER_ID_HEADER carries the caller identity set by the upstream gateway.
const USER_ID_HEADER = "X-User-ID"

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrMissingField), errors.Is(err, services.ErrInvalidCrowdLevel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Println("Internal error:", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
