package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

type ParcoursRepo struct {
	pool *pgxpool.Pool
}

func NewParcoursRepo(pool *pgxpool.Pool) *ParcoursRepo {
	return &ParcoursRepo{pool: pool}
}

func (r *ParcoursRepo) Create(ctx context.Context, p *models.Parcours) error {
	p.ID = uuid.New()
	query := `
		INSERT INTO parcours (id, name, description, city, distance_km, estimated_minutes, difficulty, completion_bonus, is_published, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.City, p.DistanceKm, p.EstimatedMinutes,
		p.Difficulty, p.CompletionBonus, p.IsPublished, p.ImageURL,
	).Scan(&p.CreatedAt)
}

func (r *ParcoursRepo) List(ctx context.Context, publishedOnly bool) ([]*models.Parcours, error) {
	query := `
		SELECT p.id, p.name, p.description, p.city, p.distance_km, p.estimated_minutes,
			p.difficulty, p.completion_bonus, p.is_published, p.image_url, p.created_at,
			(SELECT COUNT(*) FROM pois WHERE parcours_id = p.id) AS poi_count
		FROM parcours p`
	if publishedOnly {
		query += ` WHERE p.is_published = TRUE`
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*models.Parcours, 0)
	for rows.Next() {
		p := &models.Parcours{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.City, &p.DistanceKm, &p.EstimatedMinutes,
			&p.Difficulty, &p.CompletionBonus, &p.IsPublished, &p.ImageURL, &p.CreatedAt, &p.POICount,
		); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ParcoursRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Parcours, error) {
	p := &models.Parcours{}
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.name, p.description, p.city, p.distance_km, p.estimated_minutes,
			p.difficulty, p.completion_bonus, p.is_published, p.image_url, p.created_at,
			(SELECT COUNT(*) FROM pois WHERE parcours_id = p.id) AS poi_count
		FROM parcours p WHERE p.id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.City, &p.DistanceKm, &p.EstimatedMinutes,
		&p.Difficulty, &p.CompletionBonus, &p.IsPublished, &p.ImageURL, &p.CreatedAt, &p.POICount,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ParcoursRepo) Update(ctx context.Context, p *models.Parcours) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE parcours
		SET name = $1, description = $2, city = $3, distance_km = $4, estimated_minutes = $5,
			difficulty = $6, completion_bonus = $7, is_published = $8, image_url = $9
		WHERE id = $10`,
		p.Name, p.Description, p.City, p.DistanceKm, p.EstimatedMinutes,
		p.Difficulty, p.CompletionBonus, p.IsPublished, p.ImageURL, p.ID,
	)
	return err
}

func (r *ParcoursRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM parcours WHERE id = $1", id)
	return err
}

// ──── POIs ────

func (r *ParcoursRepo) CreatePOI(ctx context.Context, poi *models.POI) error {
	poi.ID = uuid.New()
	query := `
		INSERT INTO pois (id, parcours_id, name, description, latitude, longitude, position, qr_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		poi.ID, poi.ParcoursID, poi.Name, poi.Description,
		poi.Latitude, poi.Longitude, poi.Position, poi.QRToken,
	).Scan(&poi.CreatedAt)
}

const poiColumns = `id, parcours_id, name, description, latitude, longitude, position, qr_token, qr_image_url, created_at`

func (r *ParcoursRepo) scanPOI(row interface{ Scan(dest ...any) error }) (*models.POI, error) {
	poi := &models.POI{}
	err := row.Scan(
		&poi.ID, &poi.ParcoursID, &poi.Name, &poi.Description,
		&poi.Latitude, &poi.Longitude, &poi.Position, &poi.QRToken, &poi.QRImageURL, &poi.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return poi, nil
}

func (r *ParcoursRepo) ListPOIs(ctx context.Context, parcoursID uuid.UUID) ([]*models.POI, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+poiColumns+` FROM pois WHERE parcours_id = $1 ORDER BY position ASC`, parcoursID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pois := make([]*models.POI, 0)
	for rows.Next() {
		poi, err := r.scanPOI(rows)
		if err != nil {
			return nil, err
		}
		pois = append(pois, poi)
	}
	return pois, rows.Err()
}

func (r *ParcoursRepo) GetPOIByID(ctx context.Context, id uuid.UUID) (*models.POI, error) {
	return r.scanPOI(r.pool.QueryRow(ctx,
		`SELECT `+poiColumns+` FROM pois WHERE id = $1`, id))
}

func (r *ParcoursRepo) GetPOIByToken(ctx context.Context, token string) (*models.POI, error) {
	return r.scanPOI(r.pool.QueryRow(ctx,
		`SELECT `+poiColumns+` FROM pois WHERE qr_token = $1`, token))
}

func (r *ParcoursRepo) SetPOIQRImage(ctx context.Context, poiID uuid.UUID, imageURL string) error {
	_, err := r.pool.Exec(ctx, "UPDATE pois SET qr_image_url = $1 WHERE id = $2", imageURL, poiID)
	return err
}

// UpdatePOIToken rotates the scan token and clears the stale QR image
// until the worker renders a fresh one.
func (r *ParcoursRepo) UpdatePOIToken(ctx context.Context, poiID uuid.UUID, token string) error {
	_, err := r.pool.Exec(ctx, "UPDATE pois SET qr_token = $1, qr_image_url = NULL WHERE id = $2", token, poiID)
	return err
}

func (r *ParcoursRepo) DeletePOI(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM pois WHERE id = $1", id)
	return err
}
