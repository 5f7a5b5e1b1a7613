package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"historando-backend/internal/models"
	"historando-backend/internal/repository"
)

// The services depend on these narrow store interfaces rather than the
// concrete repositories, mirroring the handler layer: the pgx-backed
// repos satisfy them in production and tests substitute stubs, so the
// transactional invariants are checkable without a database.

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*models.User, error)
	ApplyPointsDelta(ctx context.Context, q repository.Querier, userID uuid.UUID, delta int) error
	AddKm(ctx context.Context, q repository.Querier, userID uuid.UUID, km float64) error
}

type pointsLedger interface {
	Insert(ctx context.Context, q repository.Querier, t *models.PointTransaction) error
}

type activityStore interface {
	Insert(ctx context.Context, q repository.Querier, a *models.Activity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *models.ParcoursSession) error
	GetActive(ctx context.Context, userID, parcoursID uuid.UUID) (*models.ParcoursSession, error)
	GetByIDForUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.ParcoursSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ParcoursSession, error)
	UpdatePosition(ctx context.Context, sessionID uuid.UUID, lat, lon float64, distance *float64) error
	MarkCompleted(ctx context.Context, q repository.Querier, sessionID, userID uuid.UUID, lat, lon, distance float64, at time.Time) (bool, error)
	Delete(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
	RecordPOIVisit(ctx context.Context, sessionID, poiID uuid.UUID) error
	ListPOIVisits(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
}

type parcoursStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Parcours, error)
	GetPOIByID(ctx context.Context, id uuid.UUID) (*models.POI, error)
	GetPOIByToken(ctx context.Context, token string) (*models.POI, error)
}

type challengeStore interface {
	List(ctx context.Context, activeOnly bool) ([]*models.Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	CreateProgress(ctx context.Context, p *models.ChallengeProgress) error
	GetProgressByID(ctx context.Context, id uuid.UUID) (*models.ChallengeProgress, error)
	FinalizeProgress(ctx context.Context, q repository.Querier, progressID uuid.UUID, status string, pointsEarned int, at time.Time) (bool, error)
	ListProgressByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChallengeProgress, error)
}

type rewardStore interface {
	ListAvailable(ctx context.Context) ([]*models.Reward, error)
	GetForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*models.Reward, error)
	DecrementStock(ctx context.Context, q repository.Querier, id uuid.UUID) (bool, error)
	CreateRedemption(ctx context.Context, q repository.Querier, red *models.RewardRedemption) error
	GetRedemptionByID(ctx context.Context, id uuid.UUID) (*models.RewardRedemption, error)
	UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	ListRedemptionsByUser(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error)
}
