package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/enums"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/metrics"
	"github.com/angelmondragon/tally-backend/pkg/outbox"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "maintenance-test", Output: io.Discard})
}

type testJob struct {
	name string
	err  error
	runs int
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRegistryRejectsDuplicatesAndCopiesJobs(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&testJob{name: "a"}))
	require.NoError(t, registry.Register(&testJob{name: "b"}))
	require.Error(t, registry.Register(&testJob{name: "a"}))
	require.Error(t, registry.Register(&testJob{}))
	require.Error(t, registry.Register(nil))

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRunCycleRunsEveryJobAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "ok"}
	first := &testJob{name: "first", err: errors.New("boom")}
	second := &testJob{name: "second", err: errors.New("bang")}
	registry := NewRegistry()
	for _, job := range []Job{first, ok, second} {
		require.NoError(t, registry.Register(job))
	}
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     &LocalLock{},
		Metrics:  metrics.NewJobMetrics(reg),
	})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "first: boom")
	assert.Contains(t, err.Error(), "second: bang")
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	registry := NewRegistry()
	require.NoError(t, registry.Register(job))
	lock := &LocalLock{}
	service, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock})
	require.NoError(t, err)

	held, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, held)

	require.NoError(t, service.runCycle(context.Background()))
	assert.Zero(t, job.runs)

	require.NoError(t, lock.Release(context.Background()))
	require.NoError(t, service.runCycle(context.Background()))
	assert.Equal(t, 1, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	registry := NewRegistry()
	require.NoError(t, registry.Register(job))
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     &LocalLock{},
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = service.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs)
}

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockOnlyReleasesOwnLease(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	ctx := context.Background()

	a, err := NewRedisLock(store, "tally:maintenance:lock", 0)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "tally:maintenance:lock", 0)
	require.NoError(t, err)

	got, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, got)

	got, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, got)
	require.NoError(t, b.Release(ctx))
	assert.Contains(t, store.values, "tally:maintenance:lock")

	// lease expired and was taken over by another worker
	store.values["tally:maintenance:lock"] = "someone-else"
	require.NoError(t, a.Release(ctx))
	assert.Equal(t, "someone-else", store.values["tally:maintenance:lock"])

	delete(store.values, "tally:maintenance:lock")
	got, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, got)
	require.NoError(t, b.Release(ctx))
	assert.NotContains(t, store.values, "tally:maintenance:lock")

	_, err = NewRedisLock(nil, "k", 0)
	require.Error(t, err)
}

type directRunner struct{ conn *gorm.DB }

func (d directRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.conn.WithContext(ctx).Transaction(fn)
}

func TestOutboxRetentionJobPurgesOldPublishedRows(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -31)
	recent := now.AddDate(0, 0, -1)
	rows := []models.OutboxEvent{
		{PublishedAt: &old},
		{PublishedAt: &recent},
		{},
	}
	for i := range rows {
		rows[i].ID = uuid.New()
		rows[i].EventType = enums.EventInvoiceCreated
		rows[i].AggregateType = enums.AggregateInvoice
		rows[i].AggregateID = uint64(i + 1)
		rows[i].Payload = []byte(`{}`)
		require.NoError(t, conn.Create(&rows[i]).Error)
	}

	job, err := NewRetentionJob(RetentionJobParams{
		Name:          "outbox-retention",
		Logger:        testLogger(),
		DB:            directRunner{conn: conn},
		RetentionDays: 30,
		Purge:         outbox.NewRepository(conn).DeletePublishedBefore,
	})
	require.NoError(t, err)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var left []models.OutboxEvent
	require.NoError(t, conn.Order("aggregate_id").Find(&left).Error)
	require.Len(t, left, 2)
	assert.Equal(t, uint64(2), left[0].AggregateID)
	assert.Equal(t, uint64(3), left[1].AggregateID)
}

func TestRetentionJobValidatesParamsAndPropagatesErrors(t *testing.T) {
	_, err := NewRetentionJob(RetentionJobParams{Name: "x", Logger: testLogger(), DB: directRunner{}, RetentionDays: 0, Purge: func(context.Context, *gorm.DB, time.Time) (int64, error) { return 0, nil }})
	require.Error(t, err)

	job, err := NewRetentionJob(RetentionJobParams{
		Name:          "failing",
		Logger:        testLogger(),
		DB:            fakeRunner{},
		RetentionDays: 7,
		Purge: func(context.Context, *gorm.DB, time.Time) (int64, error) {
			return 0, errors.New("locked")
		},
	})
	require.NoError(t, err)
	require.EqualError(t, job.Run(context.Background()), "locked")
}

type fakeRunner struct{}

func (fakeRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
