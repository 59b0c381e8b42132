package cron

import (
	"context"
	"fmt"

	"github.com/qitafauto/qitaf-backend/internal/promotions"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/metrics"
)

type windowSweeper interface {
	ActivateScheduled(ctx context.Context) (promotions.SweepResult, error)
	DeactivateExpired(ctx context.Context) (promotions.SweepResult, error)
}

// MarketingSweepJobParams configure the promotion and banner window sweeps.
type MarketingSweepJobParams struct {
	Logger     *logger.Logger
	Promotions windowSweeper
	Metrics    *metrics.CronJobMetrics
}

// NewActivationSweepJob constructs the job that switches on promotions and
// banners whose start date has arrived.
func NewActivationSweepJob(params MarketingSweepJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &marketingSweepJob{
		name:    "marketing-activation",
		logg:    params.Logger,
		metrics: params.Metrics,
		sweep:   params.Promotions.ActivateScheduled,
	}, nil
}

// NewDeactivationSweepJob constructs the job that switches off promotions and
// banners whose end date has passed.
func NewDeactivationSweepJob(params MarketingSweepJobParams) (Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &marketingSweepJob{
		name:    "marketing-deactivation",
		logg:    params.Logger,
		metrics: params.Metrics,
		sweep:   params.Promotions.DeactivateExpired,
	}, nil
}

func (p MarketingSweepJobParams) validate() error {
	if p.Logger == nil {
		return fmt.Errorf("logger required")
	}
	if p.Promotions == nil {
		return fmt.Errorf("promotions service required")
	}
	return nil
}

type marketingSweepJob struct {
	name    string
	logg    *logger.Logger
	metrics *metrics.CronJobMetrics
	sweep   func(ctx context.Context) (promotions.SweepResult, error)
}

func (j *marketingSweepJob) Name() string { return j.name }

func (j *marketingSweepJob) Run(ctx context.Context) error {
	result, err := j.sweep(ctx)
	if err != nil {
		return err
	}

	j.metrics.AddRowsAffected(j.name, int(result.Banners+result.Promotions))
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"banners":    result.Banners,
		"promotions": result.Promotions,
	})
	j.logg.Info(logCtx, "marketing window sweep complete")
	return nil
}
