package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Nikiel54/nba-match-predictor/internal/models"

	"github.com/gorilla/mux"
)

type predictionRequest struct {
	HomeTeamID    int      `json:"home_team_id"`
	AwayTeamID    int      `json:"away_team_id"`
	HomeAdvantage *float64 `json:"home_advantage,omitempty"`
}

type predictionResponse struct {
	HomeTeamID         int           `json:"home_team_id"`
	AwayTeamID         int           `json:"away_team_id"`
	HomeWinProbability float64       `json:"home_win_probability"`
	AwayWinProbability float64       `json:"away_win_probability"`
	HomeRecentStreak   models.Streak `json:"home_recent_streak"`
	AwayRecentStreak   models.Streak `json:"away_recent_streak"`
	HomeRating         float64       `json:"home_rating"`
	AwayRating         float64       `json:"away_rating"`
	Confidence         float64       `json:"confidence"`
}

type ratingResponse struct {
	TeamID int     `json:"team_id"`
	Rating float64 `json:"rating"`
}

type teamNamesResponse struct {
	TeamNames []models.TeamName `json:"team_names"`
}

type healthResponse struct {
	Status       string            `json:"status"`
	LastGameDate models.Timestamp  `json:"last_game_date"`
	Checks       map[string]string `json:"checks,omitempty"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// handlePredict handles POST /apis/prediction
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("body must be {\"home_team_id\": int, \"away_team_id\": int, \"home_advantage\": number (optional)}"))
		return
	}

	var (
		p   *models.Prediction
		err error
	)
	if req.HomeAdvantage != nil {
		p, err = s.predictor.PredictWithHomeAdvantage(r.Context(), req.HomeTeamID, req.AwayTeamID, *req.HomeAdvantage)
	} else {
		p, err = s.predictor.Predict(r.Context(), req.HomeTeamID, req.AwayTeamID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictionResponse{
		HomeTeamID:         p.HomeTeamID,
		AwayTeamID:         p.AwayTeamID,
		HomeWinProbability: round2(p.HomeWinProbability),
		AwayWinProbability: round2(p.AwayWinProbability),
		HomeRecentStreak:   p.HomeStreak,
		AwayRecentStreak:   p.AwayStreak,
		HomeRating:         math.Round(p.HomeRating),
		AwayRating:         math.Round(p.AwayRating),
		Confidence:         round2(p.Confidence),
	})
}

// handleTeamNames handles GET /apis/teamnames
func (s *Server) handleTeamNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, teamNamesResponse{TeamNames: s.predictor.TeamNames()})
}

// handleRating handles GET /apis/rating/{team_id}
func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(mux.Vars(r)["team_id"])
	if err != nil || teamID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("team_id must be a positive integer"))
		return
	}

	writeJSON(w, http.StatusOK, ratingResponse{
		TeamID: teamID,
		Rating: math.Round(s.predictor.Rating(teamID)),
	})
}

// handleRatings handles GET /apis/ratings. Keys are team ids as strings.
func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	ratings := s.predictor.Ratings()
	out := make(map[string]float64, len(ratings))
	for id, rating := range ratings {
		out[strconv.Itoa(id)] = rating
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "healthy",
		LastGameDate: models.NewTimestamp(s.predictor.LastGameDate()),
	}
	status := http.StatusOK

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check.Health(r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}
