package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"historando-backend/internal/middleware"
	"historando-backend/internal/repository"
)

const leaderboardCacheTTL = 60 * time.Second

type StatsHandler struct {
	pool         *pgxpool.Pool
	userRepo     *repository.UserRepo
	pointsRepo   *repository.PointsRepo
	activityRepo *repository.ActivityRepo
	redis        *redis.Client
}

func NewStatsHandler(pool *pgxpool.Pool, userRepo *repository.UserRepo, pointsRepo *repository.PointsRepo, activityRepo *repository.ActivityRepo, redisClient *redis.Client) *StatsHandler {
	return &StatsHandler{pool: pool, userRepo: userRepo, pointsRepo: pointsRepo, activityRepo: activityRepo, redis: redisClient}
}

// Leaderboard serves the top walkers, cached briefly in Redis since the
// ranking only needs to be roughly live.
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	cacheKey := "leaderboard:" + strconv.Itoa(limit)
	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	entries, err := h.userRepo.Leaderboard(ctx, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load leaderboard", r))
		return
	}

	payload := map[string]interface{}{"leaderboard": entries}
	if h.redis != nil {
		if raw, err := json.Marshal(payload); err == nil {
			h.redis.Set(ctx, cacheKey, string(raw), leaderboardCacheTTL)
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// PointsHistory pages through the caller's ledger, newest first.
func (h *StatsHandler) PointsHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	transactions, err := h.pointsRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load points history", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
}

// ListActivities pages through the caller's walk history, newest first.
func (h *StatsHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	activities, err := h.activityRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activities", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": activities})
}

// MyStats aggregates the caller's walking record for the profile screen.
func (h *StatsHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	var completedSessions, poisVisited, challengesCompleted int
	var rank int
	h.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM parcours_sessions WHERE user_id = $1 AND is_completed = TRUE", userID).Scan(&completedSessions)
	h.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM session_poi_visits v JOIN parcours_sessions s ON v.session_id = s.id WHERE s.user_id = $1", userID).Scan(&poisVisited)
	h.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM challenge_progress WHERE user_id = $1 AND status = 'completed'", userID).Scan(&challengesCompleted)
	h.pool.QueryRow(ctx,
		"SELECT COUNT(*) + 1 FROM users WHERE total_points > $1 AND is_active = TRUE", user.TotalPoints).Scan(&rank)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_points":         user.TotalPoints,
		"total_km":             user.TotalKm,
		"completed_sessions":   completedSessions,
		"pois_visited":         poisVisited,
		"challenges_completed": challengesCompleted,
		"rank":                 rank,
	})
}
