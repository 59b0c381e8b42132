package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/metrics"
)

type orderExpirer interface {
	ExpireAbandoned(ctx context.Context, olderThan time.Time) (int, error)
}

// OrderExpiryJobParams configure the abandoned-order sweep.
type OrderExpiryJobParams struct {
	Logger  *logger.Logger
	Orders  orderExpirer
	Cutoff  time.Duration
	Metrics *metrics.CronJobMetrics
}

// NewOrderExpiryJob constructs the job that cancels orders left pending
// beyond the configured cutoff.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Cutoff <= 0 {
		return nil, fmt.Errorf("cutoff must be positive")
	}
	return &orderExpiryJob{
		logg:    params.Logger,
		orders:  params.Orders,
		cutoff:  params.Cutoff,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg    *logger.Logger
	orders  orderExpirer
	cutoff  time.Duration
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	olderThan := j.now().UTC().Add(-j.cutoff)
	expired, err := j.orders.ExpireAbandoned(ctx, olderThan)

	// Partial progress still counts; the error carries the stragglers.
	j.metrics.AddRowsAffected(j.Name(), expired)
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": expired})
	if err != nil {
		j.logg.Error(logCtx, "order expiry sweep finished with failures", err)
		return err
	}
	j.logg.Info(logCtx, "order expiry sweep complete")
	return nil
}
