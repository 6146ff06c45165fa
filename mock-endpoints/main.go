// Command mock-endpoints stands in for the record lookup APIs and the identity
// provider admin API during local development.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Priya8975/life-event-share/internal/api"
)

var requestCount atomic.Int64

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	signingKey := os.Getenv("JWT_SIGNING_KEY")
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "life-event-share"
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			next.ServeHTTP(w, r)
		})
	})

	// Registration ids ending in 500 fail, ending in 999 are slow, ending in 404 are missing.
	r.Get("/lev/v1/registration/death/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if simulateFailure(w, id) {
			return
		}
		n, _ := strconv.Atoi(id)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": n,
			"deceased": map[string]string{
				"forenames":   "Joan Narcissus Ouroboros",
				"surname":     "Smith",
				"dateOfBirth": "2008-08-08",
				"dateOfDeath": "2008-08-08",
				"sex":         "Indeterminate",
				"address":     "888 Death House, 8 Death lane, Deadington, Deadshire",
			},
		})
	})

	r.Get("/prisoner-search/prisoner/{number}", func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "number")
		if simulateFailure(w, number) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"prisonerNumber": number,
			"firstName":      "Jane",
			"middleNames":    "Ann",
			"lastName":       "Doe",
			"gender":         "Female",
			"dateOfBirth":    "1980-01-01",
		})
	})

	r.Delete("/identity/admin/clients/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if simulateFailure(w, id) {
			return
		}
		logger.Info("deleted oauth client", "client_id", id)
		w.WriteHeader(http.StatusNoContent)
	})

	// Issues a development token for any client id.
	r.Post("/token", func(w http.ResponseWriter, r *http.Request) {
		if signingKey == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "JWT_SIGNING_KEY not set"})
			return
		}
		clientID := r.URL.Query().Get("client_id")
		if clientID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id is required"})
			return
		}
		token, err := api.NewTokens(signingKey, issuer).Issue(clientID, time.Hour)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int64{"total_requests": requestCount.Load()})
	})

	logger.Info("mock endpoint server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func simulateFailure(w http.ResponseWriter, id string) bool {
	switch {
	case strings.HasSuffix(id, "500"):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return true
	case strings.HasSuffix(id, "404"):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return true
	case strings.HasSuffix(id, "999"):
		time.Sleep(10 * time.Second)
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
