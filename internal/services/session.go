package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"historando-backend/internal/models"
)

// SessionService implements the parcours session lifecycle: start/resume,
// position updates, POI visits, completion with the one-time bonus credit.
type SessionService struct {
	pool         txBeginner
	sessionRepo  sessionStore
	parcoursRepo parcoursStore
	userRepo     userStore
	pointsRepo   pointsLedger
	activityRepo activityStore
	notifier     *Notifier
}

func NewSessionService(
	pool txBeginner,
	sessionRepo sessionStore,
	parcoursRepo parcoursStore,
	userRepo userStore,
	pointsRepo pointsLedger,
	activityRepo activityStore,
	notifier *Notifier,
) *SessionService {
	return &SessionService{
		pool:         pool,
		sessionRepo:  sessionRepo,
		parcoursRepo: parcoursRepo,
		userRepo:     userRepo,
		pointsRepo:   pointsRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
	}
}

// Start creates a session, or returns the existing active one unchanged
// when the user already walks this parcours (resume semantics).
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, req models.StartSessionRequest) (*models.ParcoursSession, error) {
	parcoursID, err := uuid.Parse(req.ParcoursID)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"parcours_id": "Invalid parcours id"}}
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}

	parcours, err := s.parcoursRepo.GetByID(ctx, parcoursID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Parcours not found"}
		}
		return nil, err
	}

	existing, err := s.sessionRepo.GetActive(ctx, userID, parcoursID)
	if err == nil {
		return s.withVisits(ctx, existing)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	session := &models.ParcoursSession{
		UserID:          userID,
		ParcoursID:      parcoursID,
		CurrentLat:      req.Latitude,
		CurrentLon:      req.Longitude,
		CompletionBonus: parcours.CompletionBonus,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		// Unique-violation on the partial index means a concurrent start
		// won: resume that session instead of failing.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			winner, aerr := s.sessionRepo.GetActive(ctx, userID, parcoursID)
			if aerr != nil {
				return nil, err
			}
			return s.withVisits(ctx, winner)
		}
		return nil, err
	}
	session.VisitedPOIs = []uuid.UUID{}
	return session, nil
}

// Update overwrites position and, when supplied, the running distance total.
func (s *SessionService) Update(ctx context.Context, sessionID, userID uuid.UUID, req models.UpdateSessionRequest) (*models.ParcoursSession, error) {
	session, err := s.getActiveOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if req.DistanceCovered != nil {
		if *req.DistanceCovered < 0 {
			return nil, &ValidationError{Fields: map[string]string{"distance_covered": "Distance must be non-negative"}}
		}
		if *req.DistanceCovered < session.DistanceCovered {
			return nil, &ValidationError{Fields: map[string]string{"distance_covered": "Distance cannot decrease while the session is active"}}
		}
	}

	if err := s.sessionRepo.UpdatePosition(ctx, session.ID, req.Latitude, req.Longitude, req.DistanceCovered); err != nil {
		return nil, err
	}

	session, err = s.sessionRepo.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.withVisits(ctx, session)
}

// Complete finalizes the session in one transaction: flag flip, bonus
// credit through the ledger, total_km update, derived walking activity.
// A second call is rejected with InvalidState and credits nothing.
func (s *SessionService) Complete(ctx context.Context, sessionID, userID uuid.UUID, req models.CompleteSessionRequest) (*models.SessionCompletion, error) {
	if req.DistanceCovered < 0 {
		return nil, &ValidationError{Fields: map[string]string{"distance_covered": "Distance must be non-negative"}}
	}

	session, err := s.getActiveOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Per-user serialization point for every total_points mutation.
	if _, err := s.userRepo.GetForUpdate(ctx, tx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	done, err := s.sessionRepo.MarkCompleted(ctx, tx, sessionID, userID, req.Latitude, req.Longitude, req.DistanceCovered, now)
	if err != nil {
		return nil, err
	}
	if !done {
		// Lost the race against a concurrent completion.
		return nil, &InvalidStateError{Message: "Session is already completed"}
	}

	distanceKm := req.DistanceCovered / 1000.0

	activity := &models.Activity{
		UserID:     userID,
		SessionID:  &sessionID,
		Type:       "walking",
		Status:     "completed",
		DistanceKm: distanceKm,
	}
	if err := s.activityRepo.Insert(ctx, tx, activity); err != nil {
		return nil, err
	}

	pointsEarned := 0
	if session.CompletionBonus > 0 {
		txn := &models.PointTransaction{
			UserID:      userID,
			Delta:       session.CompletionBonus,
			SourceType:  models.SourceSessionCompletion,
			SourceID:    sessionID,
			Description: fmt.Sprintf("Completion bonus for parcours session %s", sessionID),
		}
		if err := s.pointsRepo.Insert(ctx, tx, txn); err != nil {
			return nil, err
		}
		if err := s.userRepo.ApplyPointsDelta(ctx, tx, userID, session.CompletionBonus); err != nil {
			return nil, err
		}
		pointsEarned = session.CompletionBonus
	}

	if err := s.userRepo.AddKm(ctx, tx, userID, distanceKm); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	finalized, err := s.sessionRepo.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	finalized, err = s.withVisits(ctx, finalized)
	if err != nil {
		return nil, err
	}

	if pointsEarned > 0 {
		user, uerr := s.userRepo.GetByID(ctx, userID)
		total := 0
		if uerr == nil {
			total = user.TotalPoints
		}
		s.notifier.Publish(ctx, userID, models.WSMessage{
			Type: "points_earned",
			Payload: models.PointsEarnedEvent{
				Delta:       pointsEarned,
				TotalPoints: total,
				SourceType:  models.SourceSessionCompletion,
				SourceID:    sessionID,
			},
		})
	}

	return &models.SessionCompletion{
		Session:      finalized,
		PointsEarned: pointsEarned,
		Activity:     activity,
	}, nil
}

// Delete removes the session and its visit set; no ledger side effects.
func (s *SessionService) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	deleted, err := s.sessionRepo.Delete(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Message: "Session not found"}
	}
	return nil
}

// RecordPOIVisit appends the POI to the session's visit set; repeated scans
// of the same POI are no-ops.
func (s *SessionService) RecordPOIVisit(ctx context.Context, sessionID, userID, poiID uuid.UUID) (*models.ParcoursSession, error) {
	session, err := s.getActiveOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	poi, err := s.parcoursRepo.GetPOIByID(ctx, poiID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "POI not found"}
		}
		return nil, err
	}
	if poi.ParcoursID != session.ParcoursID {
		return nil, &NotFoundError{Message: "POI is not part of this parcours"}
	}

	if err := s.sessionRepo.RecordPOIVisit(ctx, sessionID, poiID); err != nil {
		return nil, err
	}
	return s.withVisits(ctx, session)
}

// ScanQR resolves a POI QR token and records the visit.
func (s *SessionService) ScanQR(ctx context.Context, sessionID, userID uuid.UUID, qrToken string) (*models.ParcoursSession, error) {
	poi, err := s.parcoursRepo.GetPOIByToken(ctx, qrToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Unknown QR code"}
		}
		return nil, err
	}
	return s.RecordPOIVisit(ctx, sessionID, userID, poi.ID)
}

func (s *SessionService) Get(ctx context.Context, sessionID, userID uuid.UUID) (*models.ParcoursSession, error) {
	session, err := s.sessionRepo.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, err
	}
	return s.withVisits(ctx, session)
}

func (s *SessionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ParcoursSession, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if _, err := s.withVisits(ctx, session); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// getActiveOwned loads the session for (sessionID, userID) and rejects
// completed ones.
func (s *SessionService) getActiveOwned(ctx context.Context, sessionID, userID uuid.UUID) (*models.ParcoursSession, error) {
	session, err := s.sessionRepo.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Session not found"}
		}
		return nil, err
	}
	if session.IsCompleted {
		return nil, &InvalidStateError{Message: "Session is already completed"}
	}
	return session, nil
}

func (s *SessionService) withVisits(ctx context.Context, session *models.ParcoursSession) (*models.ParcoursSession, error) {
	visits, err := s.sessionRepo.ListPOIVisits(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	session.VisitedPOIs = visits
	return session, nil
}
