package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(t *testing.T) (*Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(0)
	m.now = clock.Now
	t.Cleanup(m.Close)
	return m, clock
}

func TestMemory_SetGet(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_Expiry(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Hour))
	clock.Advance(59 * time.Minute)
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_NoTTLNeverExpires(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(24 * 365 * time.Hour)

	_, err := m.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestMemory_DeleteExpired(t *testing.T) {
	m, clock := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "long", []byte("2"), time.Hour))
	clock.Advance(2 * time.Minute)

	m.DeleteExpired()
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_Delete(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Delete(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestJSONHelpers(t *testing.T) {
	m, _ := newTestMemory(t)
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
		Views int    `json:"views"`
	}

	require.NoError(t, SetJSON(ctx, m, "p", payload{Title: "Orion", Views: 3}, time.Minute))

	var got payload
	require.NoError(t, GetJSON(ctx, m, "p", &got))
	assert.Equal(t, payload{Title: "Orion", Views: 3}, got)

	err := GetJSON(ctx, m, "absent", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "apod_2024-01-05", ApodKey(time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "apod_calendar_2024_03", CalendarKey(2024, 3))
}
