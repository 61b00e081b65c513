package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
	"ASTROTRACKER_BACK-END/internal/testutil"
)

func day(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestApod(date, title, mediaType string) *models.ApodEntry {
	url := "https://apod.nasa.gov/apod/image/" + date + ".jpg"
	return &models.ApodEntry{
		Date:        day(date),
		Title:       title,
		Explanation: "explanation for " + title,
		URL:         &url,
		MediaType:   mediaType,
	}
}

func TestApodRepository_CreateIsIdempotentPerDate(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	repo := NewPostgresApodRepository(pool)
	ctx := context.Background()

	first, err := repo.Create(ctx, newTestApod("2024-01-15", "Orion", models.MediaTypeImage))
	require.NoError(t, err)

	second, err := repo.Create(ctx, newTestApod("2024-01-15", "Orion again", models.MediaTypeImage))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Orion", second.Title)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApodRepository_ConcurrentCreate(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	repo := NewPostgresApodRepository(pool)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := repo.Create(ctx, newTestApod("2023-03-03", "Race", models.MediaTypeImage))
			if err == nil {
				ids[i] = a.ID.String()
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

func TestApodRepository_GetByDateNotFound(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	repo := NewPostgresApodRepository(pool)

	_, err := repo.GetByDate(context.Background(), day("2001-01-01"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestApodRepository_InteractionsAndUpdate(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	repo := NewPostgresApodRepository(pool)
	ctx := context.Background()

	a, err := repo.Create(ctx, newTestApod("2024-02-01", "Moon", models.MediaTypeImage))
	require.NoError(t, err)

	a, err = repo.IncrementViewCount(ctx, a.ID)
	require.NoError(t, err)
	a, err = repo.IncrementViewCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.ViewCount)

	a, err = repo.UpdateRating(ctx, a.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, a.Rating)
	assert.InDelta(t, 4.0, *a.Rating, 0.001)

	a, err = repo.ToggleFavorite(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, a.IsFavorited)
	a, err = repo.ToggleFavorite(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, a.IsFavorited)

	a.Title = "Full Moon"
	a, err = repo.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Full Moon", a.Title)
	assert.Equal(t, 2, a.ViewCount)
	assert.NotNil(t, a.UpdatedAt)
}

func TestApodRepository_ListAndRange(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	repo := NewPostgresApodRepository(pool)
	ctx := context.Background()

	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-10"} {
		_, err := repo.Create(ctx, newTestApod(d, "t"+d, models.MediaTypeImage))
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2024-03-10", page[0].Date.Format(dateLayout))
	assert.Equal(t, "2024-03-03", page[1].Date.Format(dateLayout))

	page, err = repo.List(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	inRange, err := repo.ListByDateRange(ctx, day("2024-03-02"), day("2024-03-05"))
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "2024-03-03", inRange[0].Date.Format(dateLayout))
}

func TestApodRepository_Trends(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	repo := NewPostgresApodRepository(pool)
	ctx := context.Background()

	img, err := repo.Create(ctx, newTestApod("2024-04-01", "Popular", models.MediaTypeImage))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTestApod("2024-04-02", "Quiet", models.MediaTypeVideo))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTestApod("2024-05-01", "May", models.MediaTypeImage))
	require.NoError(t, err)

	_, err = repo.IncrementViewCount(ctx, img.ID)
	require.NoError(t, err)
	_, err = repo.UpdateRating(ctx, img.ID, 5)
	require.NoError(t, err)

	trends, err := repo.Trends(ctx, day("2024-04-01"), day("2024-05-31"))
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "2024-05-01", trends[0].Period.Format(dateLayout))
	april := trends[1]
	assert.Equal(t, 1, april.TotalImages)
	assert.Equal(t, 1, april.TotalVideos)
	assert.Equal(t, 1, april.TotalViews)
	assert.InDelta(t, 5.0, april.AverageRating, 0.001)
	assert.Equal(t, "Popular", april.MostPopularTitle)
}
