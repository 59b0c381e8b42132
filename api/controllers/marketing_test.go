package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/internal/promotions"
	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
)

type stubPromotionsService struct {
	quote   *promotions.Quote
	banners []models.Banner
	promos  []models.Promotion
	err     error
}

func (s stubPromotionsService) ValidatePromotion(ctx context.Context, code string, purchase decimal.Decimal) (*promotions.Quote, error) {
	return s.quote, s.err
}

func (s stubPromotionsService) Redeem(ctx context.Context, code string, purchase decimal.Decimal) (*promotions.Quote, error) {
	return s.quote, s.err
}

func (s stubPromotionsService) ActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	return s.promos, s.err
}

func (s stubPromotionsService) ActiveBanners(ctx context.Context) ([]models.Banner, error) {
	return s.banners, s.err
}

func (s stubPromotionsService) DeactivateExpired(ctx context.Context) (promotions.SweepResult, error) {
	return promotions.SweepResult{}, s.err
}

func (s stubPromotionsService) ActivateScheduled(ctx context.Context) (promotions.SweepResult, error) {
	return promotions.SweepResult{}, s.err
}

func TestPromotionsValidateSuccess(t *testing.T) {
	quote := &promotions.Quote{Discount: decimal.RequireFromString("20.00")}
	handler := PromotionsValidate(stubPromotionsService{quote: quote}, nil)

	body := []byte(`{"code":"WINTER10","purchase":"200.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/promotions/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPromotionsValidateRequiresCode(t *testing.T) {
	handler := PromotionsValidate(stubPromotionsService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/promotions/validate", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPromotionsValidateMapsInactive(t *testing.T) {
	handler := PromotionsValidate(stubPromotionsService{
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is not active"),
	}, nil)

	body := []byte(`{"code":"EXPIRED"}`)
	req := httptest.NewRequest(http.MethodPost, "/promotions/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestPromotionsRedeemSuccess(t *testing.T) {
	quote := &promotions.Quote{Discount: decimal.RequireFromString("15.00")}
	handler := PromotionsRedeem(stubPromotionsService{quote: quote}, nil)

	body := []byte(`{"code":"WINTER10","purchase":"150.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/promotions/redeem", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPromotionsRedeemMapsUsageCap(t *testing.T) {
	handler := PromotionsRedeem(stubPromotionsService{
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "promotion usage limit reached"),
	}, nil)

	body := []byte(`{"code":"CAPPED","purchase":"80.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/promotions/redeem", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestBannersListSuccess(t *testing.T) {
	handler := BannersList(stubPromotionsService{banners: []models.Banner{{Title: "Sale"}}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/banners", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
