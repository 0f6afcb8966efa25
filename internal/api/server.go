// Package api exposes predictions and ratings over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Nikiel54/nba-match-predictor/internal/metrics"
	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Predictor is the read surface the handlers serve
type Predictor interface {
	Predict(ctx context.Context, homeTeamID, awayTeamID int) (*models.Prediction, error)
	PredictWithHomeAdvantage(ctx context.Context, homeTeamID, awayTeamID int, homeAdvantage float64) (*models.Prediction, error)
	Rating(teamID int) float64
	Ratings() map[int]float64
	TeamNames() []models.TeamName
	LastGameDate() time.Time
}

// HealthChecker reports the health of a dependency such as the database or cache
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server wires HTTP routes for the prediction API
type Server struct {
	predictor Predictor
	checks    map[string]HealthChecker
}

// NewServer creates a server. checks are reported by /health by name.
func NewServer(predictor Predictor, checks map[string]HealthChecker) *Server {
	return &Server{predictor: predictor, checks: checks}
}

// Router returns the route table
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", instrument("health", s.handleHealth)).Methods(http.MethodGet)

	// Registered on the root router so a wrong method answers 405 rather than 404
	r.HandleFunc("/apis/prediction", instrument("prediction", s.handlePredict)).Methods(http.MethodPost)
	r.HandleFunc("/apis/teamnames", instrument("teamnames", s.handleTeamNames)).Methods(http.MethodGet)
	r.HandleFunc("/apis/rating/{team_id}", instrument("rating", s.handleRating)).Methods(http.MethodGet)
	r.HandleFunc("/apis/ratings", instrument("ratings", s.handleRatings)).Methods(http.MethodGet)

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps validation failures to 400 and everything else to 500
func writeServiceError(w http.ResponseWriter, err error) {
	if models.IsValidation(err) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	log.Error().Err(err).Msg("Request failed")
	metrics.RecordError("api", "internal")
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request count and latency per route
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(route, strconv.Itoa(rec.status), duration.Seconds())
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("Handled request")
	}
}
