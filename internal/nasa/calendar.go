package nasa

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/models"
)

const (
	defaultArchiveURL   = "https://apod.nasa.gov/apod/"
	pageFetchConcurrent = 4
	maxPageBytes        = 2 << 20
)

var (
	anchorRx  = regexp.MustCompile(`(?is)<a\s+href="(ap\d{6}\.html)"[^>]*>(.*?)</a>`)
	imgRx     = regexp.MustCompile(`(?is)<img[^>]*src="([^"]+)"[^>]*>`)
	altRx     = regexp.MustCompile(`(?i)alt="([^"]+)"`)
	ogImageRx = regexp.MustCompile(`(?i)<meta[^>]+property="og:image"[^>]+content="([^"]+)"[^>]*>`)
	titleRx   = regexp.MustCompile(`(?i)<title>([^<]+)</title>`)
	tagRx     = regexp.MustCompile(`<[^>]+>`)
	spaceRx   = regexp.MustCompile(`\s+`)
)

// CalendarScraper reads the monthly calendar pages of the APOD archive.
type CalendarScraper struct {
	httpClient *http.Client
	archiveURL string
	logger     *slog.Logger
}

// NewCalendarScraper creates a CalendarScraper rooted at archiveURL.
func NewCalendarScraper(archiveURL string, httpClient *http.Client, logger *slog.Logger) *CalendarScraper {
	if archiveURL == "" {
		archiveURL = defaultArchiveURL
	}
	if !strings.HasSuffix(archiveURL, "/") {
		archiveURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarScraper{httpClient: httpClient, archiveURL: archiveURL, logger: logger}
}

// CalendarURL is the archive page listing the given month.
func (s *CalendarScraper) CalendarURL(year, month int) string {
	return fmt.Sprintf("%scalendar/ca%02d%02d.html", s.archiveURL, year%100, month)
}

// FetchMonth scrapes one calendar month, ordered by date ascending. Days
// without a thumbnail are resolved from their own APOD page.
func (s *CalendarScraper) FetchMonth(ctx context.Context, year, month int) ([]models.CalendarItem, error) {
	calendarURL := s.CalendarURL(year, month)
	s.logger.Info("fetching APOD calendar", "year", year, "month", month, "url", calendarURL)

	body, status, err := s.fetch(ctx, calendarURL)
	if err != nil {
		return nil, fmt.Errorf("%w: calendar %s: %v", errs.ErrUpstreamUnavailable, calendarURL, err)
	}
	if status == http.StatusNotFound {
		return []models.CalendarItem{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: calendar %s returned status %d", errs.ErrUpstreamUnavailable, calendarURL, status)
	}

	items, inner := s.parseCalendar(body, year, month)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pageFetchConcurrent)
	for i := range items {
		if items[i].ImageURL != "" {
			continue
		}
		g.Go(func() error {
			s.resolveFromPage(gctx, &items[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range items {
		if items[i].Title == "" {
			items[i].Title = fallbackTitle(inner[i], items[i].Date)
		}
	}

	return items, nil
}

// parseCalendar extracts the day entries of the requested month. The second
// result holds each entry's anchor inner HTML.
func (s *CalendarScraper) parseCalendar(page string, year, month int) ([]models.CalendarItem, []string) {
	seen := map[string]bool{}
	var items []models.CalendarItem
	var inner []string

	for _, m := range anchorRx.FindAllStringSubmatch(page, -1) {
		pageRel := m[1]
		date, ok := pageDate(pageRel, year)
		if !ok || int(date.Month()) != month || date.Year() != year {
			continue
		}

		pageURL := s.archiveURL + pageRel
		key := strings.ToLower(pageURL)
		if seen[key] {
			continue
		}
		seen[key] = true

		item := models.CalendarItem{Date: date, PageURL: pageURL}
		if img := imgRx.FindStringSubmatch(m[2]); img != nil {
			item.ImageURL = s.absolute(img[1])
			if alt := altRx.FindStringSubmatch(m[2]); alt != nil {
				item.Title = strings.TrimSpace(html.UnescapeString(alt[1]))
			}
		}

		items = append(items, item)
		inner = append(inner, m[2])
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return items[idx[a]].Date.Before(items[idx[b]].Date) })

	sortedItems := make([]models.CalendarItem, len(items))
	sortedInner := make([]string, len(items))
	for i, j := range idx {
		sortedItems[i] = items[j]
		sortedInner[i] = inner[j]
	}
	return sortedItems, sortedInner
}

// resolveFromPage fills the image and, when missing, the title of item from
// its APOD page. Failures are logged and leave item unchanged.
func (s *CalendarScraper) resolveFromPage(ctx context.Context, item *models.CalendarItem) {
	body, status, err := s.fetch(ctx, item.PageURL)
	if err != nil || status != http.StatusOK {
		s.logger.Warn("failed to fetch APOD page to resolve image",
			"page_url", item.PageURL, "status", status, "error", err)
		return
	}

	if og := ogImageRx.FindStringSubmatch(body); og != nil {
		item.ImageURL = s.absolute(og[1])
	}
	if item.ImageURL == "" {
		if img := imgRx.FindStringSubmatch(body); img != nil {
			item.ImageURL = s.absolute(img[1])
		}
	}
	if item.Title == "" {
		if t := titleRx.FindStringSubmatch(body); t != nil {
			item.Title = strings.TrimSpace(html.UnescapeString(t[1]))
		}
	}
}

func (s *CalendarScraper) fetch(ctx context.Context, target string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(raw), resp.StatusCode, nil
}

func (s *CalendarScraper) absolute(src string) string {
	if strings.HasPrefix(strings.ToLower(src), "http") {
		return src
	}
	return s.archiveURL + strings.TrimLeft(src, "/")
}

// pageDate reads the date encoded in apYYMMDD.html. The calendar page is
// authoritative for the year.
func pageDate(pageRel string, year int) (time.Time, bool) {
	if len(pageRel) < 8 {
		return time.Time{}, false
	}
	mm, err1 := strconv.Atoi(pageRel[4:6])
	dd, err2 := strconv.Atoi(pageRel[6:8])
	if err1 != nil || err2 != nil || mm < 1 || mm > 12 || dd < 1 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if d.Day() != dd {
		return time.Time{}, false
	}
	return d, true
}

func fallbackTitle(innerHTML string, date time.Time) string {
	text := html.UnescapeString(tagRx.ReplaceAllString(innerHTML, " "))
	text = strings.TrimSpace(spaceRx.ReplaceAllString(text, " "))
	if text == "" {
		return "APOD " + date.Format(dateLayout)
	}
	return text
}
