package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
)

var percentBase = decimal.NewFromInt(100)

// Quote is the outcome of validating a promotion against a purchase amount.
type Quote struct {
	Promotion models.Promotion `json:"promotion"`
	Discount  decimal.Decimal  `json:"discount"`
}

// SweepResult reports how many rows an activation-window sweep touched.
type SweepResult struct {
	Banners    int64
	Promotions int64
}

// Service defines promotion and banner operations.
type Service interface {
	ValidatePromotion(ctx context.Context, code string, purchase decimal.Decimal) (*Quote, error)
	Redeem(ctx context.Context, code string, purchase decimal.Decimal) (*Quote, error)
	ActivePromotions(ctx context.Context) ([]models.Promotion, error)
	ActiveBanners(ctx context.Context) ([]models.Banner, error)
	DeactivateExpired(ctx context.Context) (SweepResult, error)
	ActivateScheduled(ctx context.Context) (SweepResult, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a promotions service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ValidatePromotion(ctx context.Context, code string, purchase decimal.Decimal) (*Quote, error) {
	promo, err := s.loadRedeemable(ctx, code, purchase)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Promotion: *promo,
		Discount:  computeDiscount(*promo, purchase),
	}, nil
}

func (s *service) Redeem(ctx context.Context, code string, purchase decimal.Decimal) (*Quote, error) {
	promo, err := s.loadRedeemable(ctx, code, purchase)
	if err != nil {
		return nil, err
	}

	// The guarded UPDATE re-checks the window and cap, so two concurrent
	// redemptions of the last slot cannot both succeed.
	ok, err := s.repo.IncrementUsage(ctx, promo.Code, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem promotion")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is no longer redeemable")
	}

	promo.UsageCount++
	return &Quote{
		Promotion: *promo,
		Discount:  computeDiscount(*promo, purchase),
	}, nil
}

func (s *service) ActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	promos, err := s.repo.ListPromotions(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}

	// The stored flag can lag behind the sweep; filter on derived validity.
	now := s.now()
	valid := promos[:0]
	for _, promo := range promos {
		if promo.IsValid(now) {
			valid = append(valid, promo)
		}
	}
	return valid, nil
}

func (s *service) ActiveBanners(ctx context.Context) ([]models.Banner, error) {
	banners, err := s.repo.ListBanners(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}

	now := s.now()
	visible := banners[:0]
	for _, banner := range banners {
		if banner.IsActiveNow(now) {
			visible = append(visible, banner)
		}
	}
	return visible, nil
}

func (s *service) DeactivateExpired(ctx context.Context) (SweepResult, error) {
	now := s.now()
	result := SweepResult{}

	banners, err := s.repo.DeactivateExpiredBanners(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate expired banners")
	}
	result.Banners = banners

	promos, err := s.repo.DeactivateExpiredPromotions(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate expired promotions")
	}
	result.Promotions = promos
	return result, nil
}

func (s *service) ActivateScheduled(ctx context.Context) (SweepResult, error) {
	now := s.now()
	result := SweepResult{}

	banners, err := s.repo.ActivateScheduledBanners(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate scheduled banners")
	}
	result.Banners = banners

	promos, err := s.repo.ActivateScheduledPromotions(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate scheduled promotions")
	}
	result.Promotions = promos
	return result, nil
}

func (s *service) loadRedeemable(ctx context.Context, code string, purchase decimal.Decimal) (*models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code required")
	}
	if purchase.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase amount cannot be negative")
	}

	promo, err := s.repo.FindPromotionByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}

	if !promo.IsValid(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is not active")
	}
	if promo.MinPurchase != nil && purchase.LessThan(*promo.MinPurchase) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("purchase below minimum of %s", promo.MinPurchase.StringFixed(2)))
	}
	return promo, nil
}

func computeDiscount(promo models.Promotion, purchase decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		discount = purchase.Mul(promo.DiscountValue).Div(percentBase).Round(2)
		if promo.MaxDiscount != nil && discount.GreaterThan(*promo.MaxDiscount) {
			discount = *promo.MaxDiscount
		}
	case enums.DiscountTypeFixed:
		discount = promo.DiscountValue
	}
	if discount.GreaterThan(purchase) {
		discount = purchase
	}
	return discount
}
