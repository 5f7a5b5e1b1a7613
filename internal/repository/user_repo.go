package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, role, is_verified, auth_provider, google_id, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	user.ID = uuid.New()
	if user.Role == "" {
		user.Role = "walker"
	}
	if user.AuthProvider == "" {
		user.AuthProvider = "email"
	}
	user.IsActive = true

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Role,
		user.IsVerified, user.AuthProvider, user.GoogleID, user.AvatarURL,
	).Scan(&user.CreatedAt)
}

const userColumns = `id, email, password_hash, full_name, avatar_url, role, is_verified, is_active,
	auth_provider, google_id, total_points, total_km, created_at, last_login_at`

func (r *UserRepo) scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.AvatarURL,
		&user.Role, &user.IsVerified, &user.IsActive, &user.AuthProvider, &user.GoogleID,
		&user.TotalPoints, &user.TotalKm, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
}

// GetForUpdate locks the user row for the duration of the enclosing
// transaction. Every flow that mutates total_points goes through this lock,
// which serializes concurrent completions/redemptions per user.
func (r *UserRepo) GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.User, error) {
	return r.scanUser(q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// ApplyPointsDelta adjusts the materialized counter. The matching
// point_transactions row must be inserted in the same transaction.
func (r *UserRepo) ApplyPointsDelta(ctx context.Context, q Querier, userID uuid.UUID, delta int) error {
	_, err := q.Exec(ctx, "UPDATE users SET total_points = total_points + $1 WHERE id = $2", delta, userID)
	return err
}

func (r *UserRepo) AddKm(ctx context.Context, q Querier, userID uuid.UUID, km float64) error {
	_, err := q.Exec(ctx, "UPDATE users SET total_km = total_km + $1 WHERE id = $2", km, userID)
	return err
}

func (r *UserRepo) VerifyEmail(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET is_verified = TRUE WHERE id = $1", userID)
	return err
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	return err
}

func (r *UserRepo) LinkGoogle(ctx context.Context, userID uuid.UUID, googleID string) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET google_id = $1 WHERE id = $2", googleID, userID)
	return err
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET full_name = $1, email = $2, avatar_url = $3 WHERE id = $4",
		user.FullName, user.Email, user.AvatarURL, user.ID,
	)
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	return err
}

func (r *UserRepo) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, avatar_url, total_points, total_km
		FROM users
		WHERE is_active = TRUE
		ORDER BY total_points DESC, total_km DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		e := &models.LeaderboardEntry{}
		if err := rows.Scan(&e.UserID, &e.FullName, &e.AvatarURL, &e.TotalPoints, &e.TotalKm); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetLatestActivityAt returns the timestamp of the user's most recent
// recorded activity, or nil when there is none yet.
func (r *UserRepo) GetLatestActivityAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var ts *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT MAX(last_activity_at) FROM (
			SELECT MAX(last_update_at) AS last_activity_at FROM parcours_sessions WHERE user_id = $1
			UNION ALL
			SELECT MAX(created_at) AS last_activity_at FROM activities WHERE user_id = $1
		) activity
	`, userID).Scan(&ts)
	if err != nil {
		return nil, err
	}
	return ts, nil
}

type ReminderRecipient struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	CreatedAt time.Time
}

func (r *UserRepo) ListReminderRecipients(ctx context.Context) ([]ReminderRecipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, full_name, created_at
		FROM users
		WHERE is_active = TRUE AND is_verified = TRUE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]ReminderRecipient, 0)
	for rows.Next() {
		var recipient ReminderRecipient
		if scanErr := rows.Scan(&recipient.ID, &recipient.Email, &recipient.FullName, &recipient.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		recipients = append(recipients, recipient)
	}
	return recipients, rows.Err()
}
