package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"historando-backend/internal/models"
	"historando-backend/internal/repository"
)

func TestValidRedemptionTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.RedemptionPending, models.RedemptionRedeemed, true},
		{models.RedemptionRedeemed, models.RedemptionUsed, true},
		{models.RedemptionPending, models.RedemptionUsed, false},
		{models.RedemptionUsed, models.RedemptionRedeemed, false},
		{models.RedemptionRedeemed, models.RedemptionPending, false},
		{models.RedemptionUsed, models.RedemptionUsed, false},
		{"bogus", models.RedemptionRedeemed, false},
	}

	for _, tc := range tests {
		if got := ValidRedemptionTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("ValidRedemptionTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestGenerateRedemptionCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^RWD-\d+-[A-Z0-9]{7}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateRedemptionCode()
		if err != nil {
			t.Fatalf("GenerateRedemptionCode failed: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match expected format", code)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}

type stubRewardStore struct {
	reward      *models.Reward
	redemption  *models.RewardRedemption
	redemptions []*models.RewardRedemption
	stockLeft   int
	moveResult  bool
	moves       [][2]string
}

func (s *stubRewardStore) ListAvailable(ctx context.Context) ([]*models.Reward, error) {
	if s.reward == nil {
		return []*models.Reward{}, nil
	}
	return []*models.Reward{s.reward}, nil
}

func (s *stubRewardStore) GetForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*models.Reward, error) {
	if s.reward == nil {
		return nil, pgx.ErrNoRows
	}
	return s.reward, nil
}

func (s *stubRewardStore) DecrementStock(ctx context.Context, q repository.Querier, id uuid.UUID) (bool, error) {
	if s.stockLeft <= 0 {
		return false, nil
	}
	s.stockLeft--
	return true, nil
}

func (s *stubRewardStore) CreateRedemption(ctx context.Context, q repository.Querier, red *models.RewardRedemption) error {
	red.ID = uuid.New()
	red.Status = models.RedemptionPending
	s.redemptions = append(s.redemptions, red)
	return nil
}

func (s *stubRewardStore) GetRedemptionByID(ctx context.Context, id uuid.UUID) (*models.RewardRedemption, error) {
	if s.redemption == nil {
		return nil, pgx.ErrNoRows
	}
	return s.redemption, nil
}

func (s *stubRewardStore) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	s.moves = append(s.moves, [2]string{from, to})
	return s.moveResult, nil
}

func (s *stubRewardStore) ListRedemptionsByUser(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error) {
	return s.redemptions, nil
}

func newRewardServiceForTest(rewards *stubRewardStore, users *stubUserStore, ledger *stubLedger, tx *fakeTx) *RewardService {
	email := NewEmailService("", "", "", "", "noreply@historando.fr", "http://localhost:5173")
	return NewRewardService(&fakeDB{tx: tx}, rewards, users, ledger, email, NewNotifier(nil))
}

func TestRedeemZeroStockWritesNothing(t *testing.T) {
	userID := uuid.New()
	rewards := &stubRewardStore{
		reward: &models.Reward{ID: uuid.New(), Name: "Musée", PointsCost: 200, StockQuantity: 0, IsAvailable: true},
	}
	users := &stubUserStore{user: &models.User{ID: userID, TotalPoints: 1000}}
	ledger := &stubLedger{}
	tx := &fakeTx{}
	svc := newRewardServiceForTest(rewards, users, ledger, tx)

	_, err := svc.Redeem(context.Background(), userID, rewards.reward.ID)
	if _, ok := err.(*InvalidStateError); !ok {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if len(rewards.redemptions) != 0 || len(ledger.inserted) != 0 || len(users.deltas) != 0 {
		t.Error("out-of-stock redeem must write nothing")
	}
	if tx.committed {
		t.Error("out-of-stock redeem must not commit")
	}
}

func TestRedeemInsufficientPointsRejected(t *testing.T) {
	userID := uuid.New()
	rewards := &stubRewardStore{
		reward:    &models.Reward{ID: uuid.New(), Name: "Dégustation", PointsCost: 750, StockQuantity: 5, IsAvailable: true},
		stockLeft: 5,
	}
	users := &stubUserStore{user: &models.User{ID: userID, TotalPoints: 500}}
	ledger := &stubLedger{}
	tx := &fakeTx{}
	svc := newRewardServiceForTest(rewards, users, ledger, tx)

	_, err := svc.Redeem(context.Background(), userID, rewards.reward.ID)
	ise, ok := err.(*InvalidStateError)
	if !ok {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if !strings.Contains(ise.Message, "500") || !strings.Contains(ise.Message, "750") {
		t.Errorf("message should carry balance and cost, got %q", ise.Message)
	}
	if len(ledger.inserted) != 0 || tx.committed {
		t.Error("insufficient balance must leave the ledger untouched")
	}
}

func TestRedeemExactBalanceDebitsOnce(t *testing.T) {
	userID := uuid.New()
	rewards := &stubRewardStore{
		reward:    &models.Reward{ID: uuid.New(), Name: "Visite guidée", PointsCost: 500, StockQuantity: 2, IsAvailable: true},
		stockLeft: 2,
	}
	users := &stubUserStore{user: &models.User{ID: userID, TotalPoints: 500}}
	ledger := &stubLedger{}
	tx := &fakeTx{}
	svc := newRewardServiceForTest(rewards, users, ledger, tx)

	red, err := svc.Redeem(context.Background(), userID, rewards.reward.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if red.PointsSpent != 500 {
		t.Errorf("expected frozen cost 500, got %d", red.PointsSpent)
	}
	if len(ledger.inserted) != 1 || ledger.inserted[0].Delta != -500 {
		t.Fatalf("expected one -500 ledger debit, got %+v", ledger.inserted)
	}
	if ledger.inserted[0].SourceType != models.SourceRewardRedemption {
		t.Errorf("unexpected ledger source %q", ledger.inserted[0].SourceType)
	}
	if len(users.deltas) != 1 || users.deltas[0] != -500 {
		t.Errorf("expected one -500 counter update, got %v", users.deltas)
	}
	if rewards.stockLeft != 1 {
		t.Errorf("expected stock decremented to 1, got %d", rewards.stockLeft)
	}
	if !tx.committed {
		t.Error("expected transaction commit")
	}
}

func TestRedeemLedgerFailureAborts(t *testing.T) {
	userID := uuid.New()
	rewards := &stubRewardStore{
		reward:    &models.Reward{ID: uuid.New(), Name: "Atelier", PointsCost: 100, StockQuantity: 1, IsAvailable: true},
		stockLeft: 1,
	}
	users := &stubUserStore{user: &models.User{ID: userID, TotalPoints: 400}}
	ledger := &stubLedger{insertErr: errors.New("insert failed")}
	tx := &fakeTx{}
	svc := newRewardServiceForTest(rewards, users, ledger, tx)

	_, err := svc.Redeem(context.Background(), userID, rewards.reward.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if tx.committed {
		t.Error("failed ledger write must abort the whole redemption")
	}
	if !tx.rolledBack {
		t.Error("expected rollback")
	}
}

func TestUpdateStatusConcurrentMoveRejected(t *testing.T) {
	rewards := &stubRewardStore{
		redemption: &models.RewardRedemption{ID: uuid.New(), Status: models.RedemptionPending},
		moveResult: false, // the guarded UPDATE found the row already moved
	}
	svc := newRewardServiceForTest(rewards, &stubUserStore{}, &stubLedger{}, &fakeTx{})

	_, err := svc.UpdateStatus(context.Background(), rewards.redemption.ID, models.RedemptionRedeemed)
	if _, ok := err.(*InvalidStateError); !ok {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if len(rewards.moves) != 1 || rewards.moves[0] != [2]string{models.RedemptionPending, models.RedemptionRedeemed} {
		t.Errorf("expected one guarded move pending→redeemed, got %v", rewards.moves)
	}
}

func TestUpdateStatusForwardMove(t *testing.T) {
	rewards := &stubRewardStore{
		redemption: &models.RewardRedemption{ID: uuid.New(), Status: models.RedemptionRedeemed},
		moveResult: true,
	}
	svc := newRewardServiceForTest(rewards, &stubUserStore{}, &stubLedger{}, &fakeTx{})

	red, err := svc.UpdateStatus(context.Background(), rewards.redemption.ID, models.RedemptionUsed)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if red.Status != models.RedemptionUsed {
		t.Errorf("expected status used, got %q", red.Status)
	}
}
