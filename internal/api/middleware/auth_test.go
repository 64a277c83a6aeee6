package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompanies struct {
	calls int
	err   error
}

func (f *fakeCompanies) GetCompanyByAPIKey(ctx context.Context, apiKey string) (*models.Company, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if apiKey != "good" {
		return nil, storage.ErrNotFound
	}
	return &models.Company{ID: "co-1", Name: "Acme"}, nil
}

type fakeCache struct {
	data   map[string]string
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	f.data[key] = value
	return nil
}

func TestResolve_CachesCompany(t *testing.T) {
	store := &fakeCompanies{}
	cache := newFakeCache()
	r := NewCompanyResolver(store, cache)

	id, err := r.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "co-1", id)
	require.Len(t, cache.data, 1)
	for k, v := range cache.data {
		assert.NotContains(t, k, "good", "缓存键不应包含明文 API Key")
		assert.JSONEq(t, `{"id":"co-1","name":"Acme"}`, v)
	}

	id, err = r.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "co-1", id)
	assert.Equal(t, 1, store.calls, "第二次应命中缓存")
}

func TestResolve_InvalidKey(t *testing.T) {
	r := NewCompanyResolver(&fakeCompanies{}, nil)

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = r.Resolve(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestResolve_StoreError(t *testing.T) {
	boom := errors.New("db down")
	r := NewCompanyResolver(&fakeCompanies{err: boom}, newFakeCache())

	_, err := r.Resolve(context.Background(), "good")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidAPIKey)
}

func TestResolve_CacheErrorFallsBackToStore(t *testing.T) {
	store := &fakeCompanies{}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	r := NewCompanyResolver(store, cache)

	id, err := r.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "co-1", id)
	assert.Equal(t, 1, store.calls)
}
