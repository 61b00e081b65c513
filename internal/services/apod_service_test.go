package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ASTROTRACKER_BACK-END/internal/cache"
	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/testutil/fakes"
)

type apodFixture struct {
	svc      *ApodService
	repo     *fakes.ApodRepository
	fetcher  *fakes.Fetcher
	calendar *fakes.Calendar
	cache    *cache.Memory
}

var fixedNow = time.Date(2024, time.September, 15, 10, 30, 0, 0, time.UTC)

func newApodFixture(t *testing.T) *apodFixture {
	t.Helper()

	f := &apodFixture{
		repo:     fakes.NewApodRepository(),
		fetcher:  fakes.NewFetcher(),
		calendar: &fakes.Calendar{},
		cache:    cache.NewMemory(0),
	}
	t.Cleanup(f.cache.Close)

	f.svc = NewApodService(f.repo, f.fetcher, f.calendar, f.cache, config.CacheConfig{
		APODTTL:     time.Hour,
		CalendarTTL: 12 * time.Hour,
	}, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestApodService_ValidateDate(t *testing.T) {
	f := newApodFixture(t)

	assert.NoError(t, f.svc.ValidateDate(FirstAPODDate))
	assert.NoError(t, f.svc.ValidateDate(fixedNow))
	assert.ErrorIs(t, f.svc.ValidateDate(day(1995, time.June, 15)), errs.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.ValidateDate(fixedNow.AddDate(0, 0, 1)), errs.ErrInvalidInput)
}

func TestApodService_GetByDateCachesAndStores(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()
	date := day(2024, time.January, 1)

	first, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, "APOD 2024-01-01", first.Title)
	assert.Equal(t, 1, f.fetcher.Calls())

	second, err := f.svc.GetByDate(ctx, date.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.fetcher.Calls())

	// drop the cache; the stored row must be served without a fetch
	require.NoError(t, f.cache.Delete(ctx, cache.ApodKey(date)))
	third, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, 1, f.fetcher.Calls())

	n, err := f.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApodService_GetByDateDefaultsToToday(t *testing.T) {
	f := newApodFixture(t)

	entry, err := f.svc.GetByDate(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-09-15", entry.Date.Format("2006-01-02"))
}

func TestApodService_GetByDateConcurrentMisses(t *testing.T) {
	f := newApodFixture(t)
	f.fetcher.Delay = 50 * time.Millisecond
	ctx := context.Background()
	date := day(2023, time.March, 3)

	const workers = 10
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := f.svc.GetByDate(ctx, date)
			if assert.NoError(t, err) {
				ids[i] = entry.ID.String()
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, f.repo.Creates)
}

func TestApodService_GetByDateUpstreamFailure(t *testing.T) {
	f := newApodFixture(t)
	f.fetcher.Err = errs.ErrUpstreamUnavailable

	_, err := f.svc.GetByDate(context.Background(), day(2020, time.May, 5))
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)

	n, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApodService_SyncUpdatesOnTitleChange(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()
	date := day(2022, time.July, 12)

	original, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)

	same, err := f.svc.Sync(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, original.ID, same.ID)
	assert.Nil(t, same.UpdatedAt)

	f.fetcher.SetTitle("2022-07-12", "Carina Nebula")
	updated, err := f.svc.Sync(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, "Carina Nebula", updated.Title)
	assert.NotNil(t, updated.UpdatedAt)

	cached, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, "Carina Nebula", cached.Title)
	assert.Equal(t, 1, f.repo.Creates)
}

func TestApodService_ViewByDateCountsViews(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()
	date := day(2021, time.December, 25)

	_, err := f.svc.ViewByDate(ctx, date)
	require.NoError(t, err)
	entry, err := f.svc.ViewByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ViewCount)

	cached, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.ViewCount)
}

func TestApodService_RandomDateBounds(t *testing.T) {
	f := newApodFixture(t)

	f.svc.randInt = func(int) int { return 0 }
	assert.Equal(t, FirstAPODDate, f.svc.RandomDate())

	f.svc.randInt = func(n int) int { return n - 1 }
	assert.Equal(t, day(2024, time.August, 29), f.svc.RandomDate())

	f.svc.randInt = func(n int) int { return n / 2 }
	entry, err := f.svc.Random(context.Background())
	require.NoError(t, err)
	assert.False(t, entry.Date.Before(FirstAPODDate))
	assert.False(t, entry.Date.After(day(2024, time.August, 29)))
	assert.Equal(t, 1, entry.ViewCount)
}

func TestApodService_Range(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()

	for d := 1; d <= 5; d++ {
		_, err := f.svc.GetByDate(ctx, day(2024, time.February, d))
		require.NoError(t, err)
	}

	entries, err := f.svc.Range(ctx, day(2024, time.February, 2), day(2024, time.February, 4))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-02-04", entries[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-02-02", entries[2].Date.Format("2006-01-02"))

	_, err = f.svc.Range(ctx, day(2024, time.January, 1), day(2024, time.January, 31))
	assert.NoError(t, err)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"more than 30 days", day(2024, time.January, 1), day(2024, time.February, 1)},
		{"start after end", day(2024, time.February, 4), day(2024, time.February, 2)},
		{"end in the future", fixedNow, fixedNow.AddDate(0, 0, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Range(ctx, tt.start, tt.end)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestApodService_Stored(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		_, err := f.svc.GetByDate(ctx, day(2024, time.March, d))
		require.NoError(t, err)
	}

	page, err := f.svc.Stored(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2024-03-03", page[0].Date.Format("2006-01-02"))

	page, err = f.svc.Stored(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = f.svc.Stored(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = f.svc.Stored(ctx, 0, 10)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.svc.Stored(ctx, 1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.svc.Stored(ctx, 1, MaxPageSize+1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestApodService_RateAndFavorite(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()
	date := day(2024, time.April, 8)

	entry, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)

	for _, bad := range []float64{0, 0.5, 5.5, -1} {
		_, err := f.svc.Rate(ctx, entry.ID, bad)
		assert.ErrorIs(t, err, errs.ErrInvalidInput, "rating %v", bad)
	}

	rated, err := f.svc.Rate(ctx, entry.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4.0, *rated.Rating)

	fav, err := f.svc.ToggleFavorite(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorited)

	cached, err := f.svc.GetByDate(ctx, date)
	require.NoError(t, err)
	assert.True(t, cached.IsFavorited)
	require.NotNil(t, cached.Rating)
	assert.Equal(t, 4.0, *cached.Rating)

	fav, err = f.svc.ToggleFavorite(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, fav.IsFavorited)
}

func TestApodService_UnknownEntry(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := f.svc.Rate(ctx, id, 3)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.svc.ToggleFavorite(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.svc.IncrementViewCount(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestApodService_Trends(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()

	a, err := f.svc.ViewByDate(ctx, day(2024, time.May, 1))
	require.NoError(t, err)
	_, err = f.svc.GetByDate(ctx, day(2024, time.May, 2))
	require.NoError(t, err)
	_, err = f.svc.GetByDate(ctx, day(2024, time.June, 1))
	require.NoError(t, err)
	_, err = f.svc.Rate(ctx, a.ID, 5)
	require.NoError(t, err)

	trends, err := f.svc.Trends(ctx, day(2024, time.May, 1), day(2024, time.June, 30))
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, time.June, trends[0].Period.Month())
	may := trends[1]
	assert.Equal(t, 2, may.TotalImages)
	assert.Equal(t, 1, may.TotalViews)
	assert.Equal(t, 5.0, may.AverageRating)
	assert.Equal(t, "APOD 2024-05-01", may.MostPopularTitle)

	_, err = f.svc.Trends(ctx, day(2024, time.June, 30), day(2024, time.May, 1))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestApodService_Calendar(t *testing.T) {
	f := newApodFixture(t)
	ctx := context.Background()
	f.calendar.Items = []models.CalendarItem{
		{Date: day(2024, time.January, 1), Title: "New Year Sky", ImageURL: "https://apod.nasa.gov/apod/calendar/S_240101.jpg", PageURL: "https://apod.nasa.gov/apod/ap240101.html"},
	}

	items, err := f.svc.Calendar(ctx, 2024, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New Year Sky", items[0].Title)

	items, err = f.svc.Calendar(ctx, 2024, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, f.calendar.Calls())

	_, err = f.svc.Calendar(ctx, 2024, 13)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.svc.Calendar(ctx, 1994, 12)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.svc.Calendar(ctx, 2026, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	f.calendar.Err = errs.ErrUpstreamUnavailable
	_, err = f.svc.Calendar(ctx, 2024, 2)
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
}
