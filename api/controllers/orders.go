package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qitafauto/qitaf-backend/api/middleware"
	"github.com/qitafauto/qitaf-backend/api/responses"
	"github.com/qitafauto/qitaf-backend/api/validators"
	internalorders "github.com/qitafauto/qitaf-backend/internal/orders"
	"github.com/qitafauto/qitaf-backend/pkg/enums"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/pagination"
	"github.com/qitafauto/qitaf-backend/pkg/types"
)

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	VariantID string `json:"variant_id" validate:"omitempty,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type addressRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

type createOrderRequest struct {
	Email           string             `json:"email" validate:"required,email"`
	Phone           string             `json:"phone"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
	ShippingAddress addressRequest     `json:"shipping_address"`
	BillingAddress  addressRequest     `json:"billing_address"`
	ShippingCost    decimal.Decimal    `json:"shipping_cost"`
	Tax             decimal.Decimal    `json:"tax"`
	Discount        decimal.Decimal    `json:"discount"`
	Notes           string             `json:"notes"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type cancelOrderRequest struct {
	Notes string `json:"notes"`
}

type recordPaymentRequest struct {
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status" validate:"required"`
}

type updateStatusRequest struct {
	Status            string     `json:"status" validate:"required"`
	Notes             string     `json:"notes"`
	TrackingNumber    *string    `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

func OrdersCreate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateInput{
			Email:           req.Email,
			Phone:           req.Phone,
			ShippingAddress: toAddress(req.ShippingAddress),
			BillingAddress:  toAddress(req.BillingAddress),
			ShippingCost:    req.ShippingCost,
			Tax:             req.Tax,
			Discount:        req.Discount,
			Notes:           req.Notes,
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		input.PaymentMethod = method

		// Guests can order; an authenticated request ties the order to its user.
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			input.UserID = &userID
		}

		for _, item := range req.Items {
			parsed, err := toItemInput(item)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, parsed)
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrdersGet(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := orderActorInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrdersHistory(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := orderActorInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

func OrdersList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := listFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Customers only ever see their own orders; staff can filter by user.
		if !middleware.IsStaffFromContext(r.Context()) {
			filters.UserID = &userID
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrdersCancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := orderActorInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Cancel(r.Context(), internalorders.CancelInput{
			OrderNumber: actor.OrderNumber,
			ActorUserID: actor.ActorUserID,
			ActorStaff:  actor.ActorStaff,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

func OrdersRecordPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := orderActorInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.RecordPaymentInput{
			OrderNumber:   actor.OrderNumber,
			ActorUserID:   actor.ActorUserID,
			ActorStaff:    actor.ActorStaff,
			TransactionID: req.TransactionID,
		}

		status, err := enums.ParsePaymentRecordStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}
		input.Status = status

		if req.Method != "" {
			method, err := enums.ParsePaymentMethod(req.Method)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.Method = method
		}

		payment, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

func OrdersUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderNumber, err := orderNumberParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		err = svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderNumber:       orderNumber,
			ActorUserID:       userID,
			Status:            status,
			Notes:             req.Notes,
			TrackingNumber:    req.TrackingNumber,
			EstimatedDelivery: req.EstimatedDelivery,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

func orderActorInput(r *http.Request) (internalorders.GetInput, error) {
	orderNumber, err := orderNumberParam(r)
	if err != nil {
		return internalorders.GetInput{}, err
	}

	userID, err := requireUserID(r)
	if err != nil {
		return internalorders.GetInput{}, err
	}
	return internalorders.GetInput{
		OrderNumber: orderNumber,
		ActorUserID: &userID,
		ActorStaff:  middleware.IsStaffFromContext(r.Context()),
	}, nil
}

func orderNumberParam(r *http.Request) (string, error) {
	orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
	if orderNumber == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	return orderNumber, nil
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func listFilters(r *http.Request) (internalorders.ListFilters, error) {
	filters := internalorders.ListFilters{}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		filters.PaymentStatus = &status
	}

	from, err := validators.ParseQueryTime(r, "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = from

	to, err := validators.ParseQueryTime(r, "date_to")
	if err != nil {
		return filters, err
	}
	filters.DateTo = to

	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user filter")
		}
		filters.UserID = &userID
	}
	return filters, nil
}

func toAddress(req addressRequest) types.Address {
	return types.Address{
		Name:       req.Name,
		Line:       req.Address,
		City:       req.City,
		Country:    req.Country,
		PostalCode: req.PostalCode,
	}
}

func toItemInput(req orderItemRequest) (internalorders.CreateItemInput, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return internalorders.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	item := internalorders.CreateItemInput{
		ProductID: productID,
		Quantity:  req.Quantity,
	}
	if req.VariantID != "" {
		variantID, err := uuid.Parse(req.VariantID)
		if err != nil {
			return internalorders.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
		}
		item.VariantID = &variantID
	}
	return item, nil
}
