package store

import (
	"context"
	"testing"

	"talentsparkle/internal/config"
	"talentsparkle/internal/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPersister(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := NewRedisPersister(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load(ctx, "jobplexity_jobs")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.Save(ctx, "jobplexity_jobs", []byte(`[{"id":"job-1"}]`)))

	stored, err := mr.Get("jobplexity_jobs")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"job-1"}]`, stored)
	assert.Zero(t, mr.TTL("jobplexity_jobs"))

	raw, err := p.Load(ctx, "jobplexity_jobs")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"job-1"}]`, string(raw))
}

func TestRedisPersisterSaveAll(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := NewRedisPersister(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SaveAll(ctx, []Blob{
		{Key: "jobplexity_jobs", Value: []byte(`[]`)},
		{Key: "jobplexity_activities", Value: []byte(`[{"id":"a1"}]`)},
	}))

	jobs, err := mr.Get("jobplexity_jobs")
	require.NoError(t, err)
	assert.Equal(t, `[]`, jobs)
	activities, err := mr.Get("jobplexity_activities")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a1"}]`, activities)
}

func TestRedisPersisterPingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisPersister(context.Background(), config.RedisConfig{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestStoreOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisPersisterFromClient(client)
	defer p.Close()

	s := newTestStore(t, p)
	require.NoError(t, s.AddCampusDrive(context.Background(), types.CampusDrive{ID: "campus-1", Status: types.DriveScheduled}))

	assert.True(t, mr.Exists("test_campus_drives"))
	reloaded, err := New(context.Background(), p, Options{Keys: KeysWithPrefix("test_")})
	require.NoError(t, err)
	require.Len(t, reloaded.CampusDrives(), 1)
	assert.Equal(t, types.DriveScheduled, reloaded.CampusDrives()[0].Status)
}
