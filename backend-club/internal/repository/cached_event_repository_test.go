package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronit/club-portal/backend-club/internal/domain"
)

type fakeEventRepo struct {
	events    map[string]*domain.Event
	getCalls  int
	updateErr error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.getCalls++
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

func (r *fakeEventRepo) List(_ context.Context, _ EventFilter) ([]*domain.Event, int, error) {
	out := make([]*domain.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (r *fakeEventRepo) Update(_ context.Context, e *domain.Event) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.events[e.ID]; !ok {
		return ErrNotFound
	}
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type fakeCache struct {
	data        map[string][]byte
	ttls        map[string]time.Duration
	invalidated []string
	getErr      error
	setErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, key string) error {
	delete(c.data, key)
	c.invalidated = append(c.invalidated, key)
	return nil
}

func sampleEvent(id string) *domain.Event {
	capacity := 50
	return &domain.Event{
		ID:                 id,
		Title:              "Go Workshop",
		Content:            "# Hello",
		Author:             "Alice",
		Description:        "Intro to Go",
		ImageURL:           "https://img.example.com/a.png",
		Date:               time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC),
		MaxParticipants:    &capacity,
		IsRegistrationOpen: true,
		EventType:          domain.EventTypeOffline,
		Tags:               []string{"go"},
	}
}

func TestCachedEventRepository_GetByID_ReadThrough(t *testing.T) {
	inner := newFakeEventRepo(sampleEvent("e1"))
	cache := newFakeCache()
	repo := NewCachedEventRepository(inner, cache, "club", time.Minute)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, inner.getCalls)
	assert.Contains(t, cache.data, "club:event:e1")
	assert.Equal(t, time.Minute, cache.ttls["club:event:e1"])

	second, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.getCalls, "second read should be served from cache")
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, 50, *second.MaxParticipants)
	assert.True(t, first.Date.Equal(second.Date))
}

func TestCachedEventRepository_GetByID_MissNotCached(t *testing.T) {
	inner := newFakeEventRepo()
	cache := newFakeCache()
	repo := NewCachedEventRepository(inner, cache, "club", time.Minute)

	event, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Empty(t, cache.data)
}

func TestCachedEventRepository_CacheErrorsFallThrough(t *testing.T) {
	inner := newFakeEventRepo(sampleEvent("e1"))
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	repo := NewCachedEventRepository(inner, cache, "club", time.Minute)

	event, err := repo.GetByID(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "Go Workshop", event.Title)
}

func TestCachedEventRepository_UpdateInvalidates(t *testing.T) {
	inner := newFakeEventRepo(sampleEvent("e1"))
	cache := newFakeCache()
	repo := NewCachedEventRepository(inner, cache, "club", time.Minute)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)

	updated := sampleEvent("e1")
	updated.Title = "Advanced Go"
	require.NoError(t, repo.Update(ctx, updated))
	assert.Equal(t, []string{"club:event:e1"}, cache.invalidated)

	event, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Advanced Go", event.Title)
	assert.Equal(t, 2, inner.getCalls)
}

func TestCachedEventRepository_UpdateFailureKeepsCache(t *testing.T) {
	inner := newFakeEventRepo(sampleEvent("e1"))
	inner.updateErr = errors.New("db down")
	cache := newFakeCache()
	repo := NewCachedEventRepository(inner, cache, "club", time.Minute)

	err := repo.Update(context.Background(), sampleEvent("e1"))
	assert.Error(t, err)
	assert.Empty(t, cache.invalidated)
}

func TestCachedEventRepository_Delete(t *testing.T) {
	inner := newFakeEventRepo(sampleEvent("e1"))
	cache := newFakeCache()
	repo := NewCachedEventRepository(inner, cache, "", 0)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, "e1"))
	assert.Equal(t, []string{"event:e1"}, cache.invalidated)

	err := repo.Delete(ctx, "e1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, cache.invalidated, 1)
}

func TestNewCachedEventRepository_DefaultTTL(t *testing.T) {
	repo := NewCachedEventRepository(newFakeEventRepo(), newFakeCache(), "club", 0)
	assert.Equal(t, 5*time.Minute, repo.ttl)
}
