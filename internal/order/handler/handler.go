package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-order-service/internal/order"
	"github.com/fekuna/omnipos-order-service/internal/order/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment"
	"github.com/fekuna/omnipos-order-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Routes(r chi.Router) {
	r.Post("/carts/price", h.PriceCart)
	r.Post("/discounts/propose", h.ProposeDiscount)
	r.Post("/discounts/confirm", h.ConfirmDiscount)
	r.Post("/payments/validate", h.ValidatePayment)
	r.Post("/payments/autofill", h.AutoFillPayment)
	r.Post("/orders", h.SubmitOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{order_id}", h.GetOrder)
	r.Put("/orders/{order_id}", h.ResubmitOrder)
	r.Post("/orders/{order_id}/complete", h.CompleteOrder)
	r.Post("/orders/{order_id}/cancel", h.CancelOrder)
}

// POST /api/v1/carts/price
func (h *OrderHandler) PriceCart(w http.ResponseWriter, r *http.Request) {
	var input dto.CartInput
	if !h.decode(w, r, &input) {
		return
	}

	totals, err := h.uc.PriceCart(r.Context(), &input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

// POST /api/v1/discounts/propose
func (h *OrderHandler) ProposeDiscount(w http.ResponseWriter, r *http.Request) {
	var input dto.ProposeDiscountInput
	if !h.decode(w, r, &input) {
		return
	}

	proposal, err := h.uc.ProposeDiscount(r.Context(), &input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proposal)
}

// POST /api/v1/discounts/confirm
func (h *OrderHandler) ConfirmDiscount(w http.ResponseWriter, r *http.Request) {
	var input dto.ConfirmDiscountInput
	if !h.decode(w, r, &input) {
		return
	}

	proposal, err := h.uc.ConfirmDiscount(r.Context(), &input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proposal)
}

// POST /api/v1/payments/validate
func (h *OrderHandler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	var input dto.ValidatePaymentInput
	if !h.decode(w, r, &input) {
		return
	}

	if err := h.uc.ValidatePayment(r.Context(), &input); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// POST /api/v1/payments/autofill
func (h *OrderHandler) AutoFillPayment(w http.ResponseWriter, r *http.Request) {
	var input dto.AutoFillPaymentInput
	if !h.decode(w, r, &input) {
		return
	}
	if !input.Tender.Valid() {
		respondError(w, http.StatusBadRequest, "validation", "unknown payment method")
		return
	}

	payments := input.Payments
	payment.AutoFill(input.Total, &payments, input.Tender)
	respondJSON(w, http.StatusOK, &dto.AutoFillPaymentResult{
		Payments:  payments,
		TotalPaid: payment.TotalPaid(&payments),
		Remaining: payment.Remaining(input.Total, &payments),
	})
}

// POST /api/v1/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var input dto.SubmitOrderInput
	if !h.decode(w, r, &input) {
		return
	}
	input.ID = ""

	ord, err := h.uc.SubmitOrder(r.Context(), &input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ord)
}

// PUT /api/v1/orders/{order_id}
func (h *OrderHandler) ResubmitOrder(w http.ResponseWriter, r *http.Request) {
	var input dto.SubmitOrderInput
	if !h.decode(w, r, &input) {
		return
	}
	input.ID = chi.URLParam(r, "order_id")

	ord, err := h.uc.SubmitOrder(r.Context(), &input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

// GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.uc.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

// GET /api/v1/orders?status=&seller_id=&page=&page_size=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filters := &dto.OrderFilters{
		Status:   r.URL.Query().Get("status"),
		SellerID: r.URL.Query().Get("seller_id"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 50),
	}

	orders, count, err := h.uc.ListOrders(r.Context(), filters)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  count,
	})
}

type completeOrderRequest struct {
	CashierID   string `json:"cashier_id"`
	CashierName string `json:"cashier_name"`
}

// POST /api/v1/orders/{order_id}/complete
func (h *OrderHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req completeOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.CashierID == "" {
		respondError(w, http.StatusBadRequest, "validation", "cashier_id is required")
		return
	}

	ord, err := h.uc.CompleteOrder(r.Context(), chi.URLParam(r, "order_id"), req.CashierID, req.CashierName)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.uc.CancelOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debug("failed to decode request body", zap.Error(err))
		respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}
