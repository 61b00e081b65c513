package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
)

// ApodRepository persists APOD entries, one per calendar date
type ApodRepository interface {
	GetByDate(ctx context.Context, date time.Time) (*models.ApodEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error)
	Create(ctx context.Context, entry *models.ApodEntry) (*models.ApodEntry, error)
	Update(ctx context.Context, entry *models.ApodEntry) (*models.ApodEntry, error)
	List(ctx context.Context, page, pageSize int) ([]models.ApodEntry, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.ApodEntry, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) (*models.ApodEntry, error)
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error)
	Trends(ctx context.Context, start, end time.Time) ([]models.ApodTrend, error)
	Count(ctx context.Context) (int, error)
}

const apodColumns = `id, apod_date, title, explanation, url, hd_url, media_type, copyright,
	view_count, rating, is_favorited, created_at, updated_at`

// PostgresApodRepository is the pgx implementation of ApodRepository
type PostgresApodRepository struct {
	db DBTX
}

// NewPostgresApodRepository creates a new PostgresApodRepository
func NewPostgresApodRepository(db DBTX) *PostgresApodRepository {
	return &PostgresApodRepository{db: db}
}

func scanApod(row pgx.Row) (*models.ApodEntry, error) {
	var a models.ApodEntry
	err := row.Scan(&a.ID, &a.Date, &a.Title, &a.Explanation, &a.URL, &a.HDURL, &a.MediaType,
		&a.Copyright, &a.ViewCount, &a.Rating, &a.IsFavorited, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func collectApods(rows pgx.Rows) ([]models.ApodEntry, error) {
	defer rows.Close()

	out := []models.ApodEntry{}
	for rows.Next() {
		a, err := scanApod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetByDate returns the entry stored for the calendar date of date
func (r *PostgresApodRepository) GetByDate(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	a, err := scanApod(r.db.QueryRow(ctx,
		`SELECT `+apodColumns+` FROM apod_data WHERE apod_date = $1::date`, date.Format(dateLayout)))
	if err != nil {
		return nil, fmt.Errorf("get apod %s: %w", date.Format(dateLayout), err)
	}
	return a, nil
}

// GetByID returns the entry with the given id
func (r *PostgresApodRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	a, err := scanApod(r.db.QueryRow(ctx, `SELECT `+apodColumns+` FROM apod_data WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get apod %s: %w", id, err)
	}
	return a, nil
}

// Create inserts entry unless its date is already stored, in which case the
// stored row is returned unchanged.
func (r *PostgresApodRepository) Create(ctx context.Context, entry *models.ApodEntry) (*models.ApodEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	a, err := scanApod(r.db.QueryRow(ctx,
		`INSERT INTO apod_data (id, apod_date, title, explanation, url, hd_url, media_type,
		 copyright, view_count, rating, is_favorited, created_at)
		 VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (apod_date) DO NOTHING
		 RETURNING `+apodColumns,
		entry.ID, entry.Date.Format(dateLayout), entry.Title, entry.Explanation, entry.URL,
		entry.HDURL, entry.MediaType, entry.Copyright, entry.ViewCount, entry.Rating,
		entry.IsFavorited, entry.CreatedAt))
	if errors.Is(err, errs.ErrNotFound) {
		// lost the race for this date
		return r.GetByDate(ctx, entry.Date)
	}
	if err != nil {
		return nil, fmt.Errorf("insert apod %s: %w", entry.Date.Format(dateLayout), err)
	}
	return a, nil
}

// Update overwrites the feed-sourced fields of entry
func (r *PostgresApodRepository) Update(ctx context.Context, entry *models.ApodEntry) (*models.ApodEntry, error) {
	a, err := scanApod(r.db.QueryRow(ctx,
		`UPDATE apod_data SET title = $1, explanation = $2, url = $3, hd_url = $4,
		 media_type = $5, copyright = $6, updated_at = $7
		 WHERE id = $8
		 RETURNING `+apodColumns,
		entry.Title, entry.Explanation, entry.URL, entry.HDURL, entry.MediaType, entry.Copyright,
		time.Now().UTC(), entry.ID))
	if err != nil {
		return nil, fmt.Errorf("update apod %s: %w", entry.ID, err)
	}
	return a, nil
}

// List returns one page of stored entries, newest first
func (r *PostgresApodRepository) List(ctx context.Context, page, pageSize int) ([]models.ApodEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+apodColumns+` FROM apod_data ORDER BY apod_date DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list apods: %w", err)
	}
	out, err := collectApods(rows)
	if err != nil {
		return nil, fmt.Errorf("list apods: %w", err)
	}
	return out, nil
}

// ListByDateRange returns stored entries in [start, end], newest first
func (r *PostgresApodRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.ApodEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+apodColumns+` FROM apod_data
		 WHERE apod_date BETWEEN $1::date AND $2::date
		 ORDER BY apod_date DESC`,
		start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list apod range: %w", err)
	}
	out, err := collectApods(rows)
	if err != nil {
		return nil, fmt.Errorf("list apod range: %w", err)
	}
	return out, nil
}

// IncrementViewCount atomically adds one view
func (r *PostgresApodRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	a, err := scanApod(r.db.QueryRow(ctx,
		`UPDATE apod_data SET view_count = view_count + 1, updated_at = $1
		 WHERE id = $2 RETURNING `+apodColumns, time.Now().UTC(), id))
	if err != nil {
		return nil, fmt.Errorf("increment views %s: %w", id, err)
	}
	return a, nil
}

// UpdateRating stores rating for the entry
func (r *PostgresApodRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) (*models.ApodEntry, error) {
	a, err := scanApod(r.db.QueryRow(ctx,
		`UPDATE apod_data SET rating = $1, updated_at = $2
		 WHERE id = $3 RETURNING `+apodColumns, rating, time.Now().UTC(), id))
	if err != nil {
		return nil, fmt.Errorf("update rating %s: %w", id, err)
	}
	return a, nil
}

// ToggleFavorite flips the favorited flag
func (r *PostgresApodRepository) ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	a, err := scanApod(r.db.QueryRow(ctx,
		`UPDATE apod_data SET is_favorited = NOT is_favorited, updated_at = $1
		 WHERE id = $2 RETURNING `+apodColumns, time.Now().UTC(), id))
	if err != nil {
		return nil, fmt.Errorf("toggle favorite %s: %w", id, err)
	}
	return a, nil
}

// Trends groups entries in [start, end] by month, newest month first
func (r *PostgresApodRepository) Trends(ctx context.Context, start, end time.Time) ([]models.ApodTrend, error) {
	const q = `
select
	date_trunc('month', apod_date)::date as period,
	count(*) filter (where media_type = 'image') as total_images,
	count(*) filter (where media_type = 'video') as total_videos,
	coalesce(avg(rating), 0)::double precision as average_rating,
	coalesce(sum(view_count), 0) as total_views,
	coalesce((array_agg(title order by view_count desc))[1], 'N/A') as most_popular_title
from apod_data
where apod_date between $1::date and $2::date
group by 1
order by 1 desc;
`
	rows, err := r.db.Query(ctx, q, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("apod trends: %w", err)
	}
	defer rows.Close()

	out := []models.ApodTrend{}
	for rows.Next() {
		var t models.ApodTrend
		var images, videos, views int64
		if err := rows.Scan(&t.Period, &images, &videos, &t.AverageRating, &views, &t.MostPopularTitle); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		t.TotalImages = int(images)
		t.TotalVideos = int(videos)
		t.TotalViews = int(views)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("apod trends: %w", err)
	}
	return out, nil
}

// Count returns the number of stored entries
func (r *PostgresApodRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM apod_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count apods: %w", err)
	}
	return int(n), nil
}
