package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"historando-backend/internal/models"
)

// RewardService exchanges points for stocked rewards. A redemption is one
// transaction: row + stock decrement + ledger debit, all-or-nothing,
// serialized per user by the row lock on users.
type RewardService struct {
	pool       txBeginner
	rewardRepo rewardStore
	userRepo   userStore
	pointsRepo pointsLedger
	email      *EmailService
	notifier   *Notifier
}

func NewRewardService(
	pool txBeginner,
	rewardRepo rewardStore,
	userRepo userStore,
	pointsRepo pointsLedger,
	email *EmailService,
	notifier *Notifier,
) *RewardService {
	return &RewardService{
		pool:       pool,
		rewardRepo: rewardRepo,
		userRepo:   userRepo,
		pointsRepo: pointsRepo,
		email:      email,
		notifier:   notifier,
	}
}

func (s *RewardService) ListAvailable(ctx context.Context) ([]*models.Reward, error) {
	return s.rewardRepo.ListAvailable(ctx)
}

func (s *RewardService) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*models.RewardRedemption, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user, err := s.userRepo.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}

	reward, err := s.rewardRepo.GetForUpdate(ctx, tx, rewardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Reward not found"}
		}
		return nil, err
	}

	if !reward.IsAvailable {
		return nil, &InvalidStateError{Message: "Reward is not available"}
	}
	if reward.StockQuantity <= 0 {
		return nil, &InvalidStateError{Message: "Reward is out of stock"}
	}
	if user.TotalPoints < reward.PointsCost {
		return nil, &InvalidStateError{
			Message: fmt.Sprintf("Insufficient points: you have %d, reward costs %d", user.TotalPoints, reward.PointsCost),
		}
	}

	code, err := GenerateRedemptionCode()
	if err != nil {
		return nil, err
	}

	redemption := &models.RewardRedemption{
		UserID:         userID,
		RewardID:       rewardID,
		PointsSpent:    reward.PointsCost,
		RedemptionCode: code,
	}
	if err := s.rewardRepo.CreateRedemption(ctx, tx, redemption); err != nil {
		return nil, err
	}

	decremented, err := s.rewardRepo.DecrementStock(ctx, tx, rewardID)
	if err != nil {
		return nil, err
	}
	if !decremented {
		return nil, &InvalidStateError{Message: "Reward is out of stock"}
	}

	txn := &models.PointTransaction{
		UserID:      userID,
		Delta:       -reward.PointsCost,
		SourceType:  models.SourceRewardRedemption,
		SourceID:    redemption.ID,
		Description: fmt.Sprintf("Redeemed reward %q", reward.Name),
	}
	if err := s.pointsRepo.Insert(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := s.userRepo.ApplyPointsDelta(ctx, tx, userID, -reward.PointsCost); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	go s.email.SendRedemptionEmail(user.Email, user.FullName, reward.Name, code)

	s.notifier.Publish(ctx, userID, models.WSMessage{
		Type: "redemption_issued",
		Payload: models.RedemptionIssuedEvent{
			RedemptionID:   redemption.ID,
			RewardID:       rewardID,
			RedemptionCode: code,
			PointsSpent:    reward.PointsCost,
		},
	})

	return redemption, nil
}

// redemptionTransitions is the forward-only state machine for a redemption:
// pending → redeemed → used. Anything else is rejected.
var redemptionTransitions = map[string]string{
	models.RedemptionPending:  models.RedemptionRedeemed,
	models.RedemptionRedeemed: models.RedemptionUsed,
}

// ValidRedemptionTransition reports whether a redemption may move from one
// status to the next.
func ValidRedemptionTransition(from, to string) bool {
	return redemptionTransitions[from] == to
}

// UpdateStatus advances a redemption along the status state machine.
func (s *RewardService) UpdateStatus(ctx context.Context, redemptionID uuid.UUID, status string) (*models.RewardRedemption, error) {
	if status != models.RedemptionPending && status != models.RedemptionRedeemed && status != models.RedemptionUsed {
		return nil, &ValidationError{Fields: map[string]string{"status": "Status must be pending, redeemed or used"}}
	}

	redemption, err := s.rewardRepo.GetRedemptionByID(ctx, redemptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Redemption not found"}
		}
		return nil, err
	}

	if !ValidRedemptionTransition(redemption.Status, status) {
		return nil, &InvalidStateError{
			Message: fmt.Sprintf("Cannot change redemption status from %q to %q", redemption.Status, status),
		}
	}

	// The guarded UPDATE re-checks the status we validated against, so a
	// concurrent transition cannot be silently rolled back.
	moved, err := s.rewardRepo.UpdateRedemptionStatus(ctx, redemptionID, redemption.Status, status)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, &InvalidStateError{Message: "Redemption status changed concurrently, reload and retry"}
	}

	redemption.Status = status
	redemption.UpdatedAt = time.Now()
	return redemption, nil
}

func (s *RewardService) ListRedemptions(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error) {
	return s.rewardRepo.ListRedemptionsByUser(ctx, userID)
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRedemptionCode builds "RWD-<epochMillis>-<7 char suffix>".
// Uniqueness is carried by the timestamp plus random suffix; the database
// unique index is the backstop.
func GenerateRedemptionCode() (string, error) {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate redemption code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return fmt.Sprintf("RWD-%d-%s", time.Now().UnixMilli(), string(b)), nil
}
