package nasa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ASTROTRACKER_BACK-END/internal/errs"
)

const calendarPage = `<html><body><table>
<tr>
<td><a href="ap240103.html"><img src="calendar/S_240103.jpg" alt="Quadrantids &amp; Friends"></a></td>
<td><a href="ap240101.html"><img src="/calendar/S_240101.jpg" alt="New Year Sky"></a></td>
<td><a href="ap240102.html">Video: <b>Solar</b>
   Flare</a></td>
<td><a href="ap240104.html"></a></td>
<td><a href="ap240101.html"><img src="calendar/dup.jpg" alt="Duplicate"></a></td>
<td><a href="ap231231.html"><img src="calendar/S_231231.jpg" alt="Last month"></a></td>
<td><a href="ap240105.html"><img src="https://cdn.example.com/S_240105.jpg"></a></td>
</tr>
</table></body></html>`

const dayPage = `<html><head><title> APOD: 2024 January 2 - Solar &amp; Flare </title>
<meta property="og:image" content="image/2401/flare.jpg" />
</head><body><img src="image/2401/other.jpg"></body></html>`

func newArchiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/apod/calendar/ca2401.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(calendarPage))
	})
	mux.HandleFunc("/apod/ap240102.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dayPage))
	})
	mux.HandleFunc("/apod/ap240104.html", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCalendarScraper_FetchMonth(t *testing.T) {
	srv := newArchiveServer(t)
	archive := srv.URL + "/apod/"
	s := NewCalendarScraper(archive, srv.Client(), nil)

	items, err := s.FetchMonth(context.Background(), 2024, 1)
	require.NoError(t, err)
	require.Len(t, items, 5)

	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].Date.Before(items[i].Date))
	}

	first := items[0]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "New Year Sky", first.Title)
	assert.Equal(t, archive+"calendar/S_240101.jpg", first.ImageURL)
	assert.Equal(t, archive+"ap240101.html", first.PageURL)

	solar := items[1]
	assert.Equal(t, archive+"image/2401/flare.jpg", solar.ImageURL)
	assert.Equal(t, "APOD: 2024 January 2 - Solar & Flare", solar.Title)

	assert.Equal(t, "Quadrantids & Friends", items[2].Title)

	broken := items[3]
	assert.Empty(t, broken.ImageURL)
	assert.Equal(t, "APOD 2024-01-04", broken.Title)

	abs := items[4]
	assert.Equal(t, "https://cdn.example.com/S_240105.jpg", abs.ImageURL)
	assert.Equal(t, "APOD 2024-01-05", abs.Title)
}

func TestCalendarScraper_MissingMonthIsEmpty(t *testing.T) {
	srv := newArchiveServer(t)
	s := NewCalendarScraper(srv.URL+"/apod", srv.Client(), nil)

	items, err := s.FetchMonth(context.Background(), 2030, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCalendarScraper_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewCalendarScraper(base, nil, nil).FetchMonth(context.Background(), 2024, 1)
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
}

func TestCalendarURL(t *testing.T) {
	s := NewCalendarScraper("", nil, nil)
	assert.Equal(t, "https://apod.nasa.gov/apod/calendar/ca9506.html", s.CalendarURL(1995, 6))
	assert.Equal(t, "https://apod.nasa.gov/apod/calendar/ca2412.html", s.CalendarURL(2024, 12))
}

func TestFallbackTitle(t *testing.T) {
	d := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Solar Flare", fallbackTitle("  <b>Solar</b>\n\t Flare ", d))
	assert.Equal(t, "APOD 2024-01-09", fallbackTitle("<img src=x>", d))
}

func TestPageDate(t *testing.T) {
	d, ok := pageDate("ap950616.html", 1995)
	require.True(t, ok)
	assert.Equal(t, time.Date(1995, 6, 16, 0, 0, 0, 0, time.UTC), d)

	_, ok = pageDate("ap240230.html", 2024)
	assert.False(t, ok)
}
