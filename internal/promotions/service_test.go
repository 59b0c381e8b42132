package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
)

type stubPromoRepo struct {
	promos  map[string]*models.Promotion
	banners []models.Banner

	incrementOK  bool
	incrementErr error

	deactivatedBanners  int64
	deactivatedPromos   int64
	activatedBanners    int64
	activatedPromotions int64
}

func newStubPromoRepo() *stubPromoRepo {
	return &stubPromoRepo{
		promos:      make(map[string]*models.Promotion),
		incrementOK: true,
	}
}

func (s *stubPromoRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPromoRepo) FindPromotionByCode(ctx context.Context, code string) (*models.Promotion, error) {
	promo, ok := s.promos[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return promo, nil
}

func (s *stubPromoRepo) IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error) {
	if s.incrementErr != nil {
		return false, s.incrementErr
	}
	if !s.incrementOK {
		return false, nil
	}
	if promo, ok := s.promos[code]; ok {
		promo.UsageCount++
	}
	return true, nil
}

func (s *stubPromoRepo) ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	out := make([]models.Promotion, 0, len(s.promos))
	for _, promo := range s.promos {
		if activeOnly && !promo.IsActive {
			continue
		}
		out = append(out, *promo)
	}
	return out, nil
}

func (s *stubPromoRepo) ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error) {
	out := make([]models.Banner, 0, len(s.banners))
	for _, banner := range s.banners {
		if activeOnly && !banner.Active {
			continue
		}
		out = append(out, banner)
	}
	return out, nil
}

func (s *stubPromoRepo) DeactivateExpiredPromotions(ctx context.Context, now time.Time) (int64, error) {
	return s.deactivatedPromos, nil
}

func (s *stubPromoRepo) ActivateScheduledPromotions(ctx context.Context, now time.Time) (int64, error) {
	return s.activatedPromotions, nil
}

func (s *stubPromoRepo) DeactivateExpiredBanners(ctx context.Context, now time.Time) (int64, error) {
	return s.deactivatedBanners, nil
}

func (s *stubPromoRepo) ActivateScheduledBanners(ctx context.Context, now time.Time) (int64, error) {
	return s.activatedBanners, nil
}

func seedPromo(repo *stubPromoRepo, code string, mutate func(*models.Promotion)) *models.Promotion {
	promo := &models.Promotion{
		ID:            uuid.New(),
		Code:          code,
		Title:         "Winter tires",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		StartDate:     time.Now().Add(-24 * time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}
	if mutate != nil {
		mutate(promo)
	}
	repo.promos[promo.Code] = promo
	return promo
}

func TestValidatePromotionPercentageDiscount(t *testing.T) {
	repo := newStubPromoRepo()
	seedPromo(repo, "WINTER10", nil)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}

	quote, err := svc.ValidatePromotion(context.Background(), "WINTER10", decimal.RequireFromString("200.00"))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !quote.Discount.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected discount %s", quote.Discount)
	}
}

func TestValidatePromotionMaxDiscountCap(t *testing.T) {
	repo := newStubPromoRepo()
	cap := decimal.RequireFromString("15.00")
	seedPromo(repo, "WINTER10", func(p *models.Promotion) {
		p.MaxDiscount = &cap
	})
	svc, _ := NewService(repo)

	quote, err := svc.ValidatePromotion(context.Background(), "WINTER10", decimal.RequireFromString("500.00"))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !quote.Discount.Equal(cap) {
		t.Fatalf("discount not capped: %s", quote.Discount)
	}
}

func TestValidatePromotionFixedNeverExceedsPurchase(t *testing.T) {
	repo := newStubPromoRepo()
	seedPromo(repo, "FLAT50", func(p *models.Promotion) {
		p.DiscountType = enums.DiscountTypeFixed
		p.DiscountValue = decimal.RequireFromString("50.00")
	})
	svc, _ := NewService(repo)

	quote, err := svc.ValidatePromotion(context.Background(), "FLAT50", decimal.RequireFromString("30.00"))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !quote.Discount.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("discount exceeds purchase: %s", quote.Discount)
	}
}

func TestValidatePromotionMinPurchase(t *testing.T) {
	repo := newStubPromoRepo()
	min := decimal.RequireFromString("100.00")
	seedPromo(repo, "BIG", func(p *models.Promotion) {
		p.MinPurchase = &min
	})
	svc, _ := NewService(repo)

	_, err := svc.ValidatePromotion(context.Background(), "BIG", decimal.RequireFromString("50.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestValidatePromotionOutsideWindow(t *testing.T) {
	repo := newStubPromoRepo()
	seedPromo(repo, "EXPIRED", func(p *models.Promotion) {
		p.StartDate = time.Now().Add(-48 * time.Hour)
		p.EndDate = time.Now().Add(-24 * time.Hour)
	})
	svc, _ := NewService(repo)

	_, err := svc.ValidatePromotion(context.Background(), "EXPIRED", decimal.RequireFromString("100.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestValidatePromotionUsageCapExhausted(t *testing.T) {
	repo := newStubPromoRepo()
	limit := 5
	seedPromo(repo, "CAPPED", func(p *models.Promotion) {
		p.UsageLimit = &limit
		p.UsageCount = 5
	})
	svc, _ := NewService(repo)

	_, err := svc.ValidatePromotion(context.Background(), "CAPPED", decimal.RequireFromString("100.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestValidatePromotionUnknownCode(t *testing.T) {
	repo := newStubPromoRepo()
	svc, _ := NewService(repo)

	_, err := svc.ValidatePromotion(context.Background(), "NOPE", decimal.Zero)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestRedeemIncrementsUsage(t *testing.T) {
	repo := newStubPromoRepo()
	promo := seedPromo(repo, "WINTER10", nil)
	svc, _ := NewService(repo)

	quote, err := svc.Redeem(context.Background(), "WINTER10", decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if promo.UsageCount != 1 {
		t.Fatalf("usage not incremented: %d", promo.UsageCount)
	}
	if quote.Promotion.UsageCount != 1 {
		t.Fatalf("quote does not reflect redemption: %d", quote.Promotion.UsageCount)
	}
}

func TestRedeemLosesGuardedUpdate(t *testing.T) {
	repo := newStubPromoRepo()
	seedPromo(repo, "WINTER10", nil)
	repo.incrementOK = false
	svc, _ := NewService(repo)

	_, err := svc.Redeem(context.Background(), "WINTER10", decimal.RequireFromString("100.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestActivePromotionsFiltersOnDerivedValidity(t *testing.T) {
	repo := newStubPromoRepo()
	seedPromo(repo, "GOOD", nil)
	// Flag still set but window already over: the sweep has not run yet.
	seedPromo(repo, "STALE", func(p *models.Promotion) {
		p.StartDate = time.Now().Add(-48 * time.Hour)
		p.EndDate = time.Now().Add(-1 * time.Hour)
	})
	svc, _ := NewService(repo)

	promos, err := svc.ActivePromotions(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(promos) != 1 || promos[0].Code != "GOOD" {
		t.Fatalf("derived filter failed: %+v", promos)
	}
}

func TestActiveBannersRespectsWindow(t *testing.T) {
	repo := newStubPromoRepo()
	future := time.Now().Add(24 * time.Hour)
	repo.banners = []models.Banner{
		{ID: uuid.New(), Title: "Now", Active: true},
		{ID: uuid.New(), Title: "Later", Active: true, StartDate: &future},
		{ID: uuid.New(), Title: "Off", Active: false},
	}
	svc, _ := NewService(repo)

	banners, err := svc.ActiveBanners(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(banners) != 1 || banners[0].Title != "Now" {
		t.Fatalf("window filter failed: %+v", banners)
	}
}

func TestSweepsReportCounts(t *testing.T) {
	repo := newStubPromoRepo()
	repo.deactivatedBanners = 2
	repo.deactivatedPromos = 3
	repo.activatedBanners = 1
	repo.activatedPromotions = 4
	svc, _ := NewService(repo)

	down, err := svc.DeactivateExpired(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if down.Banners != 2 || down.Promotions != 3 {
		t.Fatalf("unexpected deactivation counts %+v", down)
	}

	up, err := svc.ActivateScheduled(context.Background())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if up.Banners != 1 || up.Promotions != 4 {
		t.Fatalf("unexpected activation counts %+v", up)
	}
}
