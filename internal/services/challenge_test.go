package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"historando-backend/internal/models"
	"historando-backend/internal/repository"
)

type stubChallengeStore struct {
	challenge      *models.Challenge
	progress       *models.ChallengeProgress
	finalizeResult bool
	finalizeCalls  int
}

func (s *stubChallengeStore) List(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	if s.challenge == nil {
		return []*models.Challenge{}, nil
	}
	return []*models.Challenge{s.challenge}, nil
}

func (s *stubChallengeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	if s.challenge == nil {
		return nil, pgx.ErrNoRows
	}
	return s.challenge, nil
}

func (s *stubChallengeStore) CreateProgress(ctx context.Context, p *models.ChallengeProgress) error {
	p.ID = uuid.New()
	p.Status = models.ProgressStarted
	return nil
}

func (s *stubChallengeStore) GetProgressByID(ctx context.Context, id uuid.UUID) (*models.ChallengeProgress, error) {
	if s.progress == nil {
		return nil, pgx.ErrNoRows
	}
	return s.progress, nil
}

func (s *stubChallengeStore) FinalizeProgress(ctx context.Context, q repository.Querier, progressID uuid.UUID, status string, pointsEarned int, at time.Time) (bool, error) {
	s.finalizeCalls++
	return s.finalizeResult, nil
}

func (s *stubChallengeStore) ListProgressByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChallengeProgress, error) {
	if s.progress == nil {
		return []*models.ChallengeProgress{}, nil
	}
	return []*models.ChallengeProgress{s.progress}, nil
}

func newChallengeServiceForTest(challenges *stubChallengeStore, activities *stubActivityStore, users *stubUserStore, ledger *stubLedger, tx *fakeTx) *ChallengeService {
	return NewChallengeService(&fakeDB{tx: tx}, challenges, activities, users, ledger, NewNotifier(nil))
}

func TestChallengeCompleteAlreadyFinalized(t *testing.T) {
	userID := uuid.New()
	challenges := &stubChallengeStore{
		progress:       &models.ChallengeProgress{ID: uuid.New(), UserID: userID, ChallengeID: uuid.New(), Status: models.ProgressCompleted},
		finalizeResult: false,
	}
	users := &stubUserStore{user: &models.User{ID: userID}}
	ledger := &stubLedger{}
	tx := &fakeTx{}
	svc := newChallengeServiceForTest(challenges, &stubActivityStore{}, users, ledger, tx)

	_, err := svc.Complete(context.Background(), challenges.progress.ID, userID, models.CompleteChallengeRequest{
		Status:       models.ProgressCompleted,
		PointsEarned: 300,
	})
	if _, ok := err.(*InvalidStateError); !ok {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if len(ledger.inserted) != 0 || len(users.deltas) != 0 {
		t.Error("a settled progress row must never credit again")
	}
	if tx.committed {
		t.Error("no transaction should commit")
	}
}

func TestChallengeCompleteFailedNeverCredits(t *testing.T) {
	userID := uuid.New()
	challenges := &stubChallengeStore{
		progress:       &models.ChallengeProgress{ID: uuid.New(), UserID: userID, ChallengeID: uuid.New(), Status: models.ProgressStarted},
		finalizeResult: true,
	}
	users := &stubUserStore{user: &models.User{ID: userID}}
	ledger := &stubLedger{}
	tx := &fakeTx{}
	svc := newChallengeServiceForTest(challenges, &stubActivityStore{}, users, ledger, tx)

	got, err := svc.Complete(context.Background(), challenges.progress.ID, userID, models.CompleteChallengeRequest{
		Status:       models.ProgressFailed,
		PointsEarned: 300,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.PointsEarned != 0 {
		t.Errorf("failed challenge must earn 0 points, got %d", got.PointsEarned)
	}
	if len(ledger.inserted) != 0 || len(users.deltas) != 0 {
		t.Error("failed challenge must not touch the ledger")
	}
	if !tx.committed {
		t.Error("the failed status itself still commits")
	}
}

func TestChallengeCompleteCreditsLedger(t *testing.T) {
	userID := uuid.New()
	challenges := &stubChallengeStore{
		progress:       &models.ChallengeProgress{ID: uuid.New(), UserID: userID, ChallengeID: uuid.New(), Status: models.ProgressStarted},
		finalizeResult: true,
	}
	users := &stubUserStore{user: &models.User{ID: userID}}
	ledger := &stubLedger{}
	tx := &fakeTx{}
	svc := newChallengeServiceForTest(challenges, &stubActivityStore{}, users, ledger, tx)

	got, err := svc.Complete(context.Background(), challenges.progress.ID, userID, models.CompleteChallengeRequest{
		Status:       models.ProgressCompleted,
		PointsEarned: 300,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.PointsEarned != 300 {
		t.Errorf("expected 300 points, got %d", got.PointsEarned)
	}
	if len(ledger.inserted) != 1 || ledger.inserted[0].Delta != 300 {
		t.Fatalf("expected one +300 ledger credit, got %+v", ledger.inserted)
	}
	if ledger.inserted[0].SourceType != models.SourceChallengeCompletion {
		t.Errorf("unexpected ledger source %q", ledger.inserted[0].SourceType)
	}
	if len(users.deltas) != 1 || users.deltas[0] != 300 {
		t.Errorf("expected one +300 counter update, got %v", users.deltas)
	}
}
