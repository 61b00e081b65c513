package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/repository"
)

const dateLayout = "2006-01-02"

// ApodRepository is an in-memory repository.ApodRepository
type ApodRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]models.ApodEntry
	Creates int
}

var _ repository.ApodRepository = (*ApodRepository)(nil)

// NewApodRepository creates an empty ApodRepository
func NewApodRepository() *ApodRepository {
	return &ApodRepository{entries: map[uuid.UUID]models.ApodEntry{}}
}

func (r *ApodRepository) byDate(date time.Time) (models.ApodEntry, bool) {
	for _, e := range r.entries {
		if e.Date.Format(dateLayout) == date.Format(dateLayout) {
			return e, true
		}
	}
	return models.ApodEntry{}, false
}

func (r *ApodRepository) GetByDate(_ context.Context, date time.Time) (*models.ApodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byDate(date)
	if !ok {
		return nil, fmt.Errorf("get apod %s: %w", date.Format(dateLayout), errs.ErrNotFound)
	}
	return &e, nil
}

func (r *ApodRepository) GetByID(_ context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("get apod %s: %w", id, errs.ErrNotFound)
	}
	return &e, nil
}

func (r *ApodRepository) Create(_ context.Context, entry *models.ApodEntry) (*models.ApodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byDate(entry.Date); ok {
		return &e, nil
	}
	e := *entry
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.entries[e.ID] = e
	r.Creates++
	return &e, nil
}

func (r *ApodRepository) Update(_ context.Context, entry *models.ApodEntry) (*models.ApodEntry, error) {
	return r.mutate(entry.ID, func(e *models.ApodEntry) {
		e.Title = entry.Title
		e.Explanation = entry.Explanation
		e.URL = entry.URL
		e.HDURL = entry.HDURL
		e.MediaType = entry.MediaType
		e.Copyright = entry.Copyright
	})
}

func (r *ApodRepository) sorted(keep func(models.ApodEntry) bool) []models.ApodEntry {
	out := []models.ApodEntry{}
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r *ApodRepository) List(_ context.Context, page, pageSize int) ([]models.ApodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.sorted(func(models.ApodEntry) bool { return true })
	from := (page - 1) * pageSize
	if from >= len(all) {
		return []models.ApodEntry{}, nil
	}
	return all[from:min(from+pageSize, len(all))], nil
}

func (r *ApodRepository) ListByDateRange(_ context.Context, start, end time.Time) ([]models.ApodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sorted(func(e models.ApodEntry) bool {
		return !e.Date.Before(start) && !e.Date.After(end)
	}), nil
}

func (r *ApodRepository) mutate(id uuid.UUID, fn func(e *models.ApodEntry)) (*models.ApodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("update apod %s: %w", id, errs.ErrNotFound)
	}
	fn(&e)
	now := time.Now().UTC()
	e.UpdatedAt = &now
	r.entries[id] = e
	return &e, nil
}

func (r *ApodRepository) IncrementViewCount(_ context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	return r.mutate(id, func(e *models.ApodEntry) { e.ViewCount++ })
}

func (r *ApodRepository) UpdateRating(_ context.Context, id uuid.UUID, rating float64) (*models.ApodEntry, error) {
	return r.mutate(id, func(e *models.ApodEntry) { e.Rating = &rating })
}

func (r *ApodRepository) ToggleFavorite(_ context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	return r.mutate(id, func(e *models.ApodEntry) { e.IsFavorited = !e.IsFavorited })
}

func (r *ApodRepository) Trends(_ context.Context, start, end time.Time) ([]models.ApodTrend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type acc struct {
		trend     models.ApodTrend
		ratingSum float64
		rated     int
		topViews  int
	}
	months := map[time.Time]*acc{}
	for _, e := range r.entries {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		period := time.Date(e.Date.Year(), e.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		a, ok := months[period]
		if !ok {
			a = &acc{trend: models.ApodTrend{Period: period, MostPopularTitle: "N/A"}, topViews: -1}
			months[period] = a
		}
		switch e.MediaType {
		case models.MediaTypeImage:
			a.trend.TotalImages++
		case models.MediaTypeVideo:
			a.trend.TotalVideos++
		}
		a.trend.TotalViews += e.ViewCount
		if e.Rating != nil {
			a.ratingSum += *e.Rating
			a.rated++
		}
		if e.ViewCount > a.topViews {
			a.topViews = e.ViewCount
			a.trend.MostPopularTitle = e.Title
		}
	}

	out := make([]models.ApodTrend, 0, len(months))
	for _, a := range months {
		if a.rated > 0 {
			a.trend.AverageRating = a.ratingSum / float64(a.rated)
		}
		out = append(out, a.trend)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.After(out[j].Period) })
	return out, nil
}

func (r *ApodRepository) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}
