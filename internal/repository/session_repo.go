package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, user_id, parcours_id, current_lat, current_lon, distance_covered,
	completion_bonus, is_completed, started_at, last_update_at, completed_at`

func (r *SessionRepo) scanSession(row interface{ Scan(dest ...any) error }) (*models.ParcoursSession, error) {
	s := &models.ParcoursSession{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.ParcoursID, &s.CurrentLat, &s.CurrentLon, &s.DistanceCovered,
		&s.CompletionBonus, &s.IsCompleted, &s.StartedAt, &s.LastUpdateAt, &s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) Create(ctx context.Context, s *models.ParcoursSession) error {
	s.ID = uuid.New()
	query := `
		INSERT INTO parcours_sessions (id, user_id, parcours_id, current_lat, current_lon, completion_bonus)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING started_at, last_update_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.ParcoursID, s.CurrentLat, s.CurrentLon, s.CompletionBonus,
	).Scan(&s.StartedAt, &s.LastUpdateAt)
}

// GetActive returns the single non-completed session for (user, parcours),
// or pgx.ErrNoRows. Start relies on this lookup for resume semantics.
func (r *SessionRepo) GetActive(ctx context.Context, userID, parcoursID uuid.UUID) (*models.ParcoursSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM parcours_sessions
		WHERE user_id = $1 AND parcours_id = $2 AND is_completed = FALSE
		ORDER BY started_at DESC
		LIMIT 1
	`, userID, parcoursID))
}

func (r *SessionRepo) GetByIDForUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.ParcoursSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM parcours_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID))
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ParcoursSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM parcours_sessions WHERE user_id = $1 ORDER BY started_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*models.ParcoursSession, 0)
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpdatePosition overwrites position and last update timestamp. Distance is
// only touched when a new running total was supplied.
func (r *SessionRepo) UpdatePosition(ctx context.Context, sessionID uuid.UUID, lat, lon float64, distance *float64) error {
	if distance != nil {
		_, err := r.pool.Exec(ctx, `
			UPDATE parcours_sessions
			SET current_lat = $1, current_lon = $2, distance_covered = $3, last_update_at = NOW()
			WHERE id = $4
		`, lat, lon, *distance, sessionID)
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE parcours_sessions
		SET current_lat = $1, current_lon = $2, last_update_at = NOW()
		WHERE id = $3
	`, lat, lon, sessionID)
	return err
}

// MarkCompleted flips the completion flag exactly once; the is_completed
// guard makes a second completion a no-op (0 rows affected).
func (r *SessionRepo) MarkCompleted(ctx context.Context, q Querier, sessionID, userID uuid.UUID, lat, lon, distance float64, at time.Time) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE parcours_sessions
		SET is_completed = TRUE, completed_at = $1, current_lat = $2, current_lon = $3,
			distance_covered = $4, last_update_at = $1
		WHERE id = $5 AND user_id = $6 AND is_completed = FALSE
	`, at, lat, lon, distance, sessionID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM parcours_sessions WHERE id = $1 AND user_id = $2", sessionID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordPOIVisit inserts into the visit set; reporting the same POI twice
// is a no-op thanks to the composite primary key.
func (r *SessionRepo) RecordPOIVisit(ctx context.Context, sessionID, poiID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_poi_visits (session_id, poi_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, poi_id) DO NOTHING
	`, sessionID, poiID)
	return err
}

func (r *SessionRepo) ListPOIVisits(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.poi_id
		FROM session_poi_visits v
		JOIN pois p ON p.id = v.poi_id
		WHERE v.session_id = $1
		ORDER BY p.position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
