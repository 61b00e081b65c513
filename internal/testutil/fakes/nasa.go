package fakes

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ASTROTRACKER_BACK-END/internal/models"
)

// Fetcher returns canned APOD entries and counts calls
type Fetcher struct {
	mu     sync.Mutex
	Titles map[string]string
	Err    error
	Delay  time.Duration
	calls  atomic.Int32
}

// NewFetcher creates a Fetcher that titles every day "APOD <date>"
func NewFetcher() *Fetcher {
	return &Fetcher{Titles: map[string]string{}}
}

// SetTitle fixes the title returned for date
func (f *Fetcher) SetTitle(date, title string) {
	f.mu.Lock()
	f.Titles[date] = title
	f.mu.Unlock()
}

// Calls returns the number of FetchAPOD calls
func (f *Fetcher) Calls() int {
	return int(f.calls.Load())
}

func (f *Fetcher) FetchAPOD(ctx context.Context, date time.Time) (*models.ApodEntry, error) {
	f.calls.Add(1)
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	if f.Err != nil {
		return nil, f.Err
	}

	key := date.Format(dateLayout)
	f.mu.Lock()
	title, ok := f.Titles[key]
	f.mu.Unlock()
	if !ok {
		title = "APOD " + key
	}

	url := "https://apod.nasa.gov/apod/image/" + key + ".jpg"
	return &models.ApodEntry{
		Date:        date,
		Title:       title,
		Explanation: "Explanation for " + key,
		URL:         &url,
		MediaType:   models.MediaTypeImage,
	}, nil
}

// Calendar returns canned calendar items and counts calls
type Calendar struct {
	Items []models.CalendarItem
	Err   error
	calls atomic.Int32
}

// Calls returns the number of FetchMonth calls
func (c *Calendar) Calls() int {
	return int(c.calls.Load())
}

func (c *Calendar) FetchMonth(_ context.Context, year, month int) ([]models.CalendarItem, error) {
	c.calls.Add(1)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Items, nil
}

// Mailer records password reset emails
type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

// SentMail is one recorded email
type SentMail struct {
	To, Name, Link string
}

func (m *Mailer) SendPasswordReset(_ context.Context, to, name, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Name: name, Link: resetLink})
	return nil
}

// Last returns the most recent email
func (m *Mailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
