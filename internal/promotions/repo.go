package promotions

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/internal/repo"
	"github.com/qitafauto/qitaf-backend/pkg/db/models"
)

// Repository defines persistence operations for promotions and banners.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPromotionByCode(ctx context.Context, code string) (*models.Promotion, error)
	IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error)
	ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error)
	DeactivateExpiredPromotions(ctx context.Context, now time.Time) (int64, error)
	ActivateScheduledPromotions(ctx context.Context, now time.Time) (int64, error)
	DeactivateExpiredBanners(ctx context.Context, now time.Time) (int64, error)
	ActivateScheduledBanners(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a promotions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Rebound(tx)}
}

func (r *repository) FindPromotionByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	err := r.DB(ctx).
		Where("code = ?", code).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// IncrementUsage bumps usage_count only while the promotion is still
// redeemable, so concurrent redemptions cannot blow past the usage cap.
func (r *repository) IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Promotion{}).
		Where("code = ?", code).
		Where("is_active = ?", true).
		Where("start_date <= ? AND end_date > ?", now, now).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	query := r.DB(ctx).Model(&models.Promotion{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var promos []models.Promotion
	if err := query.Order("start_date DESC").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

func (r *repository) ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error) {
	query := r.DB(ctx).Model(&models.Banner{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var banners []models.Banner
	if err := query.Order("display_order ASC, created_at DESC").Find(&banners).Error; err != nil {
		return nil, err
	}
	return banners, nil
}

func (r *repository) DeactivateExpiredPromotions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Promotion{}).
		Where("is_active = ? AND end_date <= ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *repository) ActivateScheduledPromotions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Promotion{}).
		Where("is_active = ? AND start_date <= ? AND end_date > ?", false, now, now).
		Update("is_active", true)
	return res.RowsAffected, res.Error
}

func (r *repository) DeactivateExpiredBanners(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Banner{}).
		Where("active = ? AND end_date IS NOT NULL AND end_date <= ?", true, now).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// ActivateScheduledBanners only touches banners with an explicit start date;
// banners without a window are managed by hand and stay as staff left them.
func (r *repository) ActivateScheduledBanners(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Banner{}).
		Where("active = ? AND start_date IS NOT NULL AND start_date <= ?", false, now).
		Where("end_date IS NULL OR end_date > ?", now).
		Update("active", true)
	return res.RowsAffected, res.Error
}
