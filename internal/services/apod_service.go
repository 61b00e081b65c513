package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"ASTROTRACKER_BACK-END/internal/cache"
	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/repository"
	"ASTROTRACKER_BACK-END/internal/utils"
)

const (
	// MaxRangeDays is the widest span accepted by Range
	MaxRangeDays = 30
	// MaxPageSize bounds Stored
	MaxPageSize = 50
)

var (
	// FirstAPODDate is the first day APOD was published
	FirstAPODDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

	randomEndDate = time.Date(2024, time.August, 29, 0, 0, 0, 0, time.UTC)
)

// APODFetcher fetches one day from the NASA API
type APODFetcher interface {
	FetchAPOD(ctx context.Context, date time.Time) (*models.ApodEntry, error)
}

// CalendarFetcher scrapes one month of the APOD archive
type CalendarFetcher interface {
	FetchMonth(ctx context.Context, year, month int) ([]models.CalendarItem, error)
}

// ApodService serves APOD entries cache-aside: cache, then database, then
// the NASA API.
type ApodService struct {
	repo     repository.ApodRepository
	fetcher  APODFetcher
	calendar CalendarFetcher
	cache    cache.Cache
	logger   *slog.Logger

	apodTTL     time.Duration
	calendarTTL time.Duration

	group   singleflight.Group
	now     func() time.Time
	randInt func(n int) int
}

// NewApodService creates a new ApodService
func NewApodService(
	repo repository.ApodRepository,
	fetcher APODFetcher,
	calendar CalendarFetcher,
	c cache.Cache,
	cfg config.CacheConfig,
	logger *slog.Logger,
) *ApodService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApodService{
		repo:        repo,
		fetcher:     fetcher,
		calendar:    calendar,
		cache:       c,
		logger:      logger,
		apodTTL:     cfg.APODTTL,
		calendarTTL: cfg.CalendarTTL,
		now:         time.Now,
		randInt:     rand.IntN,
	}
}

func (s *ApodService) today() time.Time {
	return utils.TruncateDay(s.now())
}

// ValidateDate rejects dates in the future or before the first APOD
func (s *ApodService) ValidateDate(date time.Time) error {
	date = utils.TruncateDay(date)
	if date.After(s.today()) {
		return fmt.Errorf("%w: date cannot be in the future", errs.ErrInvalidInput)
	}
	if date.Before(FirstAPODDate) {
		return fmt.Errorf("%w: APOD started on June 16, 1995", errs.ErrInvalidInput)
	}
	return nil
}

// GetByDate returns the entry for date, fetching and storing it on a miss.
// A zero date means today.
func (s *ApodService) GetByDate(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	if date.IsZero() {
		date = s.today()
	}
	date = utils.TruncateDay(date)
	if err := s.ValidateDate(date); err != nil {
		return nil, err
	}

	key := cache.ApodKey(date)
	var cached models.ApodEntry
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		s.logger.DebugContext(ctx, "returning cached APOD", "date", key)
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// detached: the result is shared with every waiter
		ctx := context.WithoutCancel(ctx)

		stored, err := s.repo.GetByDate(ctx, date)
		if err == nil {
			s.remember(ctx, stored)
			return stored, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}

		s.logger.InfoContext(ctx, "no stored APOD, fetching from NASA", "date", date.Format(utils.DateLayout))
		return s.sync(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ApodEntry), nil
}

// ViewByDate looks up date and counts a view
func (s *ApodService) ViewByDate(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	entry, err := s.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.IncrementViewCount(ctx, entry.ID)
}

// RandomDate draws a day uniformly from the archive range
func (s *ApodService) RandomDate() time.Time {
	days := int(randomEndDate.Sub(FirstAPODDate).Hours() / 24)
	return FirstAPODDate.AddDate(0, 0, s.randInt(days+1))
}

// Random returns the entry of a random archive day and counts a view
func (s *ApodService) Random(ctx context.Context) (*models.ApodEntry, error) {
	return s.ViewByDate(ctx, s.RandomDate())
}

// Sync fetches date from NASA and stores it, overwriting a stored entry only
// when its title differs.
func (s *ApodService) Sync(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	if date.IsZero() {
		date = s.today()
	}
	date = utils.TruncateDay(date)
	if err := s.ValidateDate(date); err != nil {
		return nil, err
	}

	v, err, _ := s.group.Do("sync_"+cache.ApodKey(date), func() (any, error) {
		return s.sync(context.WithoutCancel(ctx), date)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ApodEntry), nil
}

func (s *ApodService) sync(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	fetched, err := s.fetcher.FetchAPOD(ctx, date)
	if err != nil {
		return nil, err
	}
	fetched.Date = date

	existing, err := s.repo.GetByDate(ctx, date)
	switch {
	case err == nil:
		if existing.Title != fetched.Title {
			s.logger.InfoContext(ctx, "updating stored APOD with data from NASA",
				"date", date.Format(utils.DateLayout), "old_title", existing.Title, "new_title", fetched.Title)
			existing.Title = fetched.Title
			existing.Explanation = fetched.Explanation
			existing.URL = fetched.URL
			existing.HDURL = fetched.HDURL
			existing.MediaType = fetched.MediaType
			existing.Copyright = fetched.Copyright
			if existing, err = s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		s.remember(ctx, existing)
		return existing, nil

	case errors.Is(err, errs.ErrNotFound):
		created, err := s.repo.Create(ctx, fetched)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "APOD synced and stored", "date", date.Format(utils.DateLayout), "id", created.ID)
		s.remember(ctx, created)
		return created, nil

	default:
		return nil, err
	}
}

// Range returns stored entries between start and end, newest first
func (s *ApodService) Range(ctx context.Context, start, end time.Time) ([]models.ApodEntry, error) {
	start, end = utils.TruncateDay(start), utils.TruncateDay(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date must be before end date", errs.ErrInvalidInput)
	}
	if end.After(s.today()) {
		return nil, fmt.Errorf("%w: end date cannot be in the future", errs.ErrInvalidInput)
	}
	if end.Sub(start) > MaxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range cannot exceed %d days", errs.ErrInvalidInput, MaxRangeDays)
	}
	return s.repo.ListByDateRange(ctx, start, end)
}

// Stored returns one page of stored entries, newest first
func (s *ApodService) Stored(ctx context.Context, page, pageSize int) ([]models.ApodEntry, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be greater than 0", errs.ErrInvalidInput)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page size must be between 1 and %d", errs.ErrInvalidInput, MaxPageSize)
	}
	return s.repo.List(ctx, page, pageSize)
}

// Trends aggregates stored entries per month between start and end
func (s *ApodService) Trends(ctx context.Context, start, end time.Time) ([]models.ApodTrend, error) {
	start, end = utils.TruncateDay(start), utils.TruncateDay(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date must be before end date", errs.ErrInvalidInput)
	}
	return s.repo.Trends(ctx, start, end)
}

// IncrementViewCount counts one view of the entry
func (s *ApodService) IncrementViewCount(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	entry, err := s.repo.IncrementViewCount(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, entry)
	return entry, nil
}

// Rate stores a rating between 1 and 5
func (s *ApodService) Rate(ctx context.Context, id uuid.UUID, rating float64) (*models.ApodEntry, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", errs.ErrInvalidInput)
	}
	entry, err := s.repo.UpdateRating(ctx, id, rating)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, entry)
	return entry, nil
}

// ToggleFavorite flips the favorited flag of the entry
func (s *ApodService) ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.ApodEntry, error) {
	entry, err := s.repo.ToggleFavorite(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, entry)
	return entry, nil
}

// ValidateCalendarMonth accepts months 1..12 of years 1995 through next year
func (s *ApodService) ValidateCalendarMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", errs.ErrInvalidInput)
	}
	if year < FirstAPODDate.Year() || year > s.now().UTC().Year()+1 {
		return fmt.Errorf("%w: year out of supported APOD range", errs.ErrInvalidInput)
	}
	return nil
}

// Calendar returns the scraped calendar month, cached as a whole
func (s *ApodService) Calendar(ctx context.Context, year, month int) ([]models.CalendarItem, error) {
	if err := s.ValidateCalendarMonth(year, month); err != nil {
		return nil, err
	}

	key := cache.CalendarKey(year, month)
	var cached []models.CalendarItem
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		s.logger.DebugContext(ctx, "returning cached APOD calendar", "year", year, "month", month)
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		items, err := s.calendar.FetchMonth(ctx, year, month)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.cache, key, items, s.calendarTTL); err != nil {
			s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.CalendarItem), nil
}

// remember refreshes the cached copy of entry
func (s *ApodService) remember(ctx context.Context, entry *models.ApodEntry) {
	key := cache.ApodKey(entry.Date)
	if err := cache.SetJSON(ctx, s.cache, key, entry, s.apodTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
