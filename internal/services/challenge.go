package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"historando-backend/internal/models"
)

// ChallengeService tracks per-user challenge progress. A progress row is
// finalized exactly once; only a "completed" status with positive points
// credits the user's ledger.
type ChallengeService struct {
	pool          txBeginner
	challengeRepo challengeStore
	activityRepo  activityStore
	userRepo      userStore
	pointsRepo    pointsLedger
	notifier      *Notifier
}

func NewChallengeService(
	pool txBeginner,
	challengeRepo challengeStore,
	activityRepo activityStore,
	userRepo userStore,
	pointsRepo pointsLedger,
	notifier *Notifier,
) *ChallengeService {
	return &ChallengeService{
		pool:          pool,
		challengeRepo: challengeRepo,
		activityRepo:  activityRepo,
		userRepo:      userRepo,
		pointsRepo:    pointsRepo,
		notifier:      notifier,
	}
}

func (s *ChallengeService) List(ctx context.Context) ([]*models.Challenge, error) {
	return s.challengeRepo.List(ctx, true)
}

func (s *ChallengeService) Start(ctx context.Context, userID uuid.UUID, req models.StartChallengeRequest) (*models.ChallengeProgress, error) {
	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"challenge_id": "Invalid challenge id"}}
	}

	if _, err := s.challengeRepo.GetByID(ctx, challengeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Challenge not found"}
		}
		return nil, err
	}

	progress := &models.ChallengeProgress{
		UserID:      userID,
		ChallengeID: challengeID,
	}

	if req.ActivityID != nil {
		activityID, err := uuid.Parse(*req.ActivityID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"activity_id": "Invalid activity id"}}
		}
		activity, err := s.activityRepo.GetByID(ctx, activityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Message: "Activity not found"}
			}
			return nil, err
		}
		if activity.UserID != userID {
			return nil, &InvalidStateError{Message: "Activity does not belong to you"}
		}
		progress.ActivityID = &activityID
	}

	if err := s.challengeRepo.CreateProgress(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Complete finalizes a progress row. The points value is caller-supplied
// and trusted; a "failed" status never touches the ledger.
func (s *ChallengeService) Complete(ctx context.Context, progressID, userID uuid.UUID, req models.CompleteChallengeRequest) (*models.ChallengeProgress, error) {
	if req.Status != models.ProgressCompleted && req.Status != models.ProgressFailed {
		return nil, &ValidationError{Fields: map[string]string{"status": "Status must be completed or failed"}}
	}
	if req.PointsEarned < 0 {
		return nil, &ValidationError{Fields: map[string]string{"points_earned": "Points must be non-negative"}}
	}

	progress, err := s.challengeRepo.GetProgressByID(ctx, progressID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Challenge progress not found"}
		}
		return nil, err
	}
	if progress.UserID != userID {
		return nil, &InvalidStateError{Message: "Challenge progress does not belong to you"}
	}

	pointsEarned := req.PointsEarned
	if req.Status == models.ProgressFailed {
		pointsEarned = 0
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.userRepo.GetForUpdate(ctx, tx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	finalized, err := s.challengeRepo.FinalizeProgress(ctx, tx, progressID, req.Status, pointsEarned, now)
	if err != nil {
		return nil, err
	}
	if !finalized {
		return nil, &InvalidStateError{Message: "Challenge progress is already finalized"}
	}

	if req.Status == models.ProgressCompleted && pointsEarned > 0 {
		txn := &models.PointTransaction{
			UserID:      userID,
			Delta:       pointsEarned,
			SourceType:  models.SourceChallengeCompletion,
			SourceID:    progressID,
			Description: fmt.Sprintf("Challenge %s completed", progress.ChallengeID),
		}
		if err := s.pointsRepo.Insert(ctx, tx, txn); err != nil {
			return nil, err
		}
		if err := s.userRepo.ApplyPointsDelta(ctx, tx, userID, pointsEarned); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	progress.Status = req.Status
	progress.PointsEarned = pointsEarned
	progress.CompletedAt = &now

	s.notifier.Publish(ctx, userID, models.WSMessage{
		Type: "challenge_completed",
		Payload: models.ChallengeCompletedEvent{
			ProgressID:   progressID,
			ChallengeID:  progress.ChallengeID,
			Status:       req.Status,
			PointsEarned: pointsEarned,
		},
	})

	return progress, nil
}

func (s *ChallengeService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*models.ChallengeProgress, error) {
	return s.challengeRepo.ListProgressByUser(ctx, userID)
}
