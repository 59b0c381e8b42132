package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/api/responses"
	"github.com/qitafauto/qitaf-backend/api/validators"
	"github.com/qitafauto/qitaf-backend/internal/promotions"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
)

type validatePromotionRequest struct {
	Code     string          `json:"code" validate:"required"`
	Purchase decimal.Decimal `json:"purchase"`
}

func BannersList(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banners, err := svc.ActiveBanners(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, banners)
	}
}

func PromotionsList(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := svc.ActivePromotions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

func PromotionsValidate(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validatePromotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.ValidatePromotion(r.Context(), req.Code, req.Purchase)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// PromotionsRedeem burns one use of a promotion code. Checkout calls it once
// the order total is known; the usage counter only moves here, never during
// validation.
func PromotionsRedeem(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validatePromotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Redeem(r.Context(), req.Code, req.Purchase)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
