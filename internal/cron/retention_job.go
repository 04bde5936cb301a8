package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PurgeFunc deletes rows older than cutoff and reports how many went.
type PurgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

type RetentionJobParams struct {
	Name          string
	Logger        *logger.Logger
	DB            txRunner
	RetentionDays int
	Purge         PurgeFunc
}

// RetentionJob trims a table to a rolling window of days.
type RetentionJob struct {
	name string
	logg *logger.Logger
	db   txRunner
	days int
	fn   PurgeFunc
	now  func() time.Time
}

func NewRetentionJob(params RetentionJobParams) (*RetentionJob, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Purge == nil {
		return nil, fmt.Errorf("purge func required")
	}
	if params.RetentionDays <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", params.Name)
	}
	return &RetentionJob{
		name: params.Name,
		logg: params.Logger,
		db:   params.DB,
		days: params.RetentionDays,
		fn:   params.Purge,
		now:  time.Now,
	}, nil
}

func (j *RetentionJob) Name() string { return j.name }

func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.fn(ctx, tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}), "retention purge complete")
	return nil
}
