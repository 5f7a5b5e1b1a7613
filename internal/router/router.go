package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"historando-backend/internal/handlers"
	"historando-backend/internal/middleware"
	"historando-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	parcoursHandler *handlers.ParcoursHandler,
	sessionHandler *handlers.SessionHandler,
	challengeHandler *handlers.ChallengeHandler,
	rewardHandler *handlers.RewardHandler,
	statsHandler *handlers.StatsHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	storagePath string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Rendered QR images
	r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(storagePath))))

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Parcours Catalog ────
		r.Route("/parcours", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", parcoursHandler.List)
			r.Get("/{id}", parcoursHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", parcoursHandler.Create)
				r.Put("/{id}", parcoursHandler.Update)
				r.Delete("/{id}", parcoursHandler.Delete)
				r.Post("/{id}/pois", parcoursHandler.CreatePOI)
				r.Delete("/{id}/pois/{poiID}", parcoursHandler.DeletePOI)
				r.Post("/{id}/pois/{poiID}/qr", parcoursHandler.RegenerateQR)
			})
		})

		// ──── Walking Sessions ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", sessionHandler.Start)
			r.Get("/", sessionHandler.List)
			r.Get("/{id}", sessionHandler.Get)
			r.Put("/{id}", sessionHandler.Update)
			r.Post("/{id}/complete", sessionHandler.Complete)
			r.Delete("/{id}", sessionHandler.Delete)
			r.Post("/{id}/visits", sessionHandler.VisitPOI)
			r.Post("/{id}/scan", sessionHandler.ScanQR)
		})

		// ──── Challenges ────
		r.Route("/challenges", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", challengeHandler.List)
			r.Post("/start", challengeHandler.Start)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", challengeHandler.CreateChallenge)
			})
		})

		r.Route("/challenge-progress", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", challengeHandler.ListProgress)
			r.Post("/{id}/complete", challengeHandler.Complete)
		})

		// ──── Rewards ────
		r.Route("/rewards", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", rewardHandler.List)
			r.Post("/redeem", rewardHandler.Redeem)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Post("/", rewardHandler.CreateReward)
				r.Put("/{id}", rewardHandler.UpdateReward)
			})
		})

		r.Route("/redemptions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", rewardHandler.ListRedemptions)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.RequireAdmin)
				r.Put("/{id}/status", rewardHandler.UpdateRedemptionStatus)
			})
		})

		// ──── Stats & Leaderboard ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/leaderboard", statsHandler.Leaderboard)
			r.Get("/points/history", statsHandler.PointsHistory)
			r.Get("/activities", statsHandler.ListActivities)
			r.Get("/stats/me", statsHandler.MyStats)
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Put("/password", userHandler.ChangePassword)
			r.Delete("/me", userHandler.DeleteMe)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", jobHandler.ListJobs)
			r.Get("/{id}", jobHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
