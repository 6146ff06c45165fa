package api

import (
	"net/http"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{
			Status:  "healthy",
			Version: Version,
		})
	}
}
