package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
)

func setupPromoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	promotions := `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT,
  terms TEXT,
  discount_type TEXT NOT NULL,
  discount_value TEXT NOT NULL,
  min_purchase TEXT,
  max_discount TEXT,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	banners := `
CREATE TABLE IF NOT EXISTS banners (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  cta_text TEXT,
  image_url TEXT,
  url TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  display_order INTEGER NOT NULL DEFAULT 0,
  start_date DATETIME,
  end_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(promotions).Error)
	require.NoError(t, db.Exec(banners).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM promotions")
		db.Exec("DELETE FROM banners")
	})
	return db
}

func insertPromo(t *testing.T, db *gorm.DB, code string, active bool, start, end time.Time, usageLimit *int, usageCount int) *models.Promotion {
	t.Helper()

	promo := &models.Promotion{
		ID:            uuid.New(),
		Code:          code,
		Title:         code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		StartDate:     start,
		EndDate:       end,
		IsActive:      active,
		UsageLimit:    usageLimit,
		UsageCount:    usageCount,
	}
	require.NoError(t, db.Create(promo).Error)
	return promo
}

func insertBanner(t *testing.T, db *gorm.DB, title string, active bool, start, end *time.Time) *models.Banner {
	t.Helper()

	banner := &models.Banner{
		ID:        uuid.New(),
		Title:     title,
		CTAText:   "Shop Now",
		ImageURL:  "https://cdn.example/banner.png",
		URL:       "/catalog",
		Active:    active,
		StartDate: start,
		EndDate:   end,
	}
	require.NoError(t, db.Create(banner).Error)
	return banner
}

func TestRepoIncrementUsageGuards(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	limit := 2
	insertPromo(t, db, "CAP2", true, now.Add(-time.Hour), now.Add(time.Hour), &limit, 1)

	ok, err := repo.IncrementUsage(ctx, "CAP2", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// Cap reached: the guarded update must refuse a second redemption.
	ok, err = repo.IncrementUsage(ctx, "CAP2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	promo, err := repo.FindPromotionByCode(ctx, "CAP2")
	require.NoError(t, err)
	assert.Equal(t, 2, promo.UsageCount)
}

func TestRepoIncrementUsageOutsideWindow(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	insertPromo(t, db, "OLD", true, now.Add(-48*time.Hour), now.Add(-24*time.Hour), nil, 0)

	ok, err := repo.IncrementUsage(context.Background(), "OLD", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepoDeactivateExpiredPromotions(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	insertPromo(t, db, "OVER", true, now.Add(-48*time.Hour), now.Add(-time.Hour), nil, 0)
	insertPromo(t, db, "LIVE", true, now.Add(-time.Hour), now.Add(time.Hour), nil, 0)

	affected, err := repo.DeactivateExpiredPromotions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	over, err := repo.FindPromotionByCode(ctx, "OVER")
	require.NoError(t, err)
	assert.False(t, over.IsActive)

	live, err := repo.FindPromotionByCode(ctx, "LIVE")
	require.NoError(t, err)
	assert.True(t, live.IsActive)

	// Second run is a no-op.
	affected, err = repo.DeactivateExpiredPromotions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestRepoActivateScheduledPromotions(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	insertPromo(t, db, "DUE", false, now.Add(-time.Hour), now.Add(time.Hour), nil, 0)
	insertPromo(t, db, "FUTURE", false, now.Add(time.Hour), now.Add(48*time.Hour), nil, 0)

	affected, err := repo.ActivateScheduledPromotions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	due, err := repo.FindPromotionByCode(ctx, "DUE")
	require.NoError(t, err)
	assert.True(t, due.IsActive)
}

func TestRepoBannerSweeps(t *testing.T) {
	db := setupPromoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	earlier := now.Add(-48 * time.Hour)
	future := now.Add(24 * time.Hour)

	insertBanner(t, db, "expired", true, &earlier, &past)
	insertBanner(t, db, "evergreen", true, nil, nil)
	insertBanner(t, db, "due", false, &past, &future)
	insertBanner(t, db, "manual-off", false, nil, nil)

	deactivated, err := repo.DeactivateExpiredBanners(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deactivated)

	activated, err := repo.ActivateScheduledBanners(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)

	banners, err := repo.ListBanners(ctx, true)
	require.NoError(t, err)
	titles := make([]string, 0, len(banners))
	for _, banner := range banners {
		titles = append(titles, banner.Title)
	}
	assert.ElementsMatch(t, []string{"evergreen", "due"}, titles)
}
