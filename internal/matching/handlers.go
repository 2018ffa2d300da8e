// internal/matching/handlers.go
package matching

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hodlmatch/hodlmatch-backend/internal/auth"
	"github.com/hodlmatch/hodlmatch-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetCurrentDailyMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	match, err := h.service.GetCurrentDailyMatch(r.Context(), userID)
	if err != nil {
		h.respondDailyError(w, err, "Failed to get daily match")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dailyResponse(match))
}

func (h *Handler) AdvanceDailyMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	match, err := h.service.AdvanceDailyMatch(r.Context(), userID)
	if err != nil {
		h.respondDailyError(w, err, "Failed to advance daily match")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dailyResponse(match))
}

func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	if err := h.service.MarkViewed(r.Context(), matchID); err != nil {
		h.respondDailyError(w, err, "Failed to mark match viewed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkLiked(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	var dto MarkLikedDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.MarkLiked(r.Context(), matchID, *dto.Liked); err != nil {
		h.respondDailyError(w, err, "Failed to mark match liked")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RefreshLiveCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params, err := parseLiveParams(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filters := &CandidateFilters{
		MinAge:      params.MinAge,
		MaxAge:      params.MaxAge,
		NewThisWeek: params.NewThisWeek,
		MinScore:    params.MinScore,
	}

	scores, err := h.service.RefreshLiveCandidates(r.Context(), userID, filters)
	if err != nil {
		if errors.Is(err, ErrNoPreferenceSet) {
			utils.RespondWithJSON(w, http.StatusOK, LiveCandidatesResponse{
				Status:     "setup_incomplete",
				Candidates: []MatchScore{},
			})
			return
		}
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to refresh candidates")
		return
	}

	if scores == nil {
		scores = []MatchScore{}
	}

	utils.RespondWithJSON(w, http.StatusOK, LiveCandidatesResponse{
		Status:     "ok",
		Candidates: scores,
	})
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	otherID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	match, err := h.service.CompatibilityBetween(r.Context(), userID, otherID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to compute compatibility")
		return
	}

	utils.RespondWithData(w, http.StatusOK, match)
}

func (h *Handler) respondDailyError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, ErrNoPreferenceSet) {
		utils.RespondWithJSON(w, http.StatusOK, DailyMatchResponse{Status: "setup_incomplete"})
		return
	}
	if errors.Is(err, ErrDataUnavailable) {
		utils.RespondWithError(w, http.StatusBadGateway, "Match data temporarily unavailable")
		return
	}
	utils.RespondWithError(w, http.StatusInternalServerError, fallback)
}

func dailyResponse(match *DailyMatch) DailyMatchResponse {
	if match == nil {
		return DailyMatchResponse{Status: "exhausted"}
	}
	return DailyMatchResponse{Status: "ok", Match: match}
}

func parseLiveParams(r *http.Request) (*LiveCandidatesParams, error) {
	params := &LiveCandidatesParams{}
	q := r.URL.Query()

	if v := q.Get("min_age"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("min_age must be an integer")
		}
		params.MinAge = &age
	}

	if v := q.Get("max_age"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("max_age must be an integer")
		}
		params.MaxAge = &age
	}

	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("min_score must be a number")
		}
		params.MinScore = &score
	}

	params.NewThisWeek = q.Get("new_this_week") == "true"

	if err := utils.ValidateStruct(params); err != nil {
		return nil, err
	}

	return params, nil
}
