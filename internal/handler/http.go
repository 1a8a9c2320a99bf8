package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/retailcore/order-service/internal/entities"
	"github.com/retailcore/order-service/internal/middleware"
	"github.com/retailcore/order-service/internal/service"
	"github.com/retailcore/order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ListMyOrders(ctx context.Context, claims entities.AuthClaims) ([]entities.Order, error)
	ListOrders(ctx context.Context) ([]entities.Order, error)
	SetStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
	MarkPaid(ctx context.Context, orderID string, result entities.PaymentResult) (entities.Order, error)
	TrackOrder(ctx context.Context, orderID, email, phone string) (entities.Order, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Post("/track", h.TrackOrder)
		r.Get("/", h.ListOrders)
		r.With(middleware.RequireAuth).Get("/my", h.ListMyOrders)
		r.Get("/{order_id}", h.GetOrderByID)
		r.Put("/{order_id}/pay", h.MarkPaid)
		r.Put("/{order_id}/status", h.SetStatus)
	})
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PlaceOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		ordersRejected.WithLabelValues("bad_request").Inc()
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		ordersRejected.WithLabelValues("validation").Inc()
		utils.WriteValidationError(w, err)
		return
	}

	claims := middleware.ClaimsFromContext(ctx)
	order, err := h.svc.PlaceOrder(ctx, PlaceOrderRequestToInput(req, claims))

	switch {
	case err == nil:
		ordersPlaced.Inc()
		utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
	case errors.Is(err, entities.ErrEmptyCart):
		ordersRejected.WithLabelValues("empty_cart").Inc()
		utils.WriteError(w, "cart is empty", http.StatusBadRequest)
	case errors.Is(err, entities.ErrInvalidQuantity), errors.Is(err, service.ErrGuestContactRequired):
		ordersRejected.WithLabelValues("validation").Inc()
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrProductNotFound):
		ordersRejected.WithLabelValues("product_not_found").Inc()
		utils.WriteError(w, "product not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrInsufficientStock):
		ordersRejected.WithLabelValues("insufficient_stock").Inc()
		utils.WriteError(w, "insufficient stock", http.StatusBadRequest)
	default:
		ordersRejected.WithLabelValues("internal").Inc()
		h.logger.ErrorContext(ctx, "failed to place order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.GetOrderByID(ctx, orderID)

	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order", slog.Any("error", err), slog.String("order_id", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	orders, err := h.svc.ListMyOrders(ctx, *claims)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err), slog.String("user_id", claims.ID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.svc.ListOrders(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req StatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	status, err := entities.ParseStatus(req.Status)
	if err != nil {
		utils.WriteError(w, "unknown status", http.StatusConflict)
		return
	}

	order, err := h.svc.SetStatus(ctx, orderID, status)

	switch {
	case err == nil:
		statusUpdates.WithLabelValues(string(order.Status)).Inc()
		utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrInvalidTransition):
		utils.WriteError(w, "invalid status transition", http.StatusConflict)
	default:
		h.logger.ErrorContext(ctx, "failed to update status", slog.Any("error", err), slog.String("order_id", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req PayRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.MarkPaid(ctx, orderID, PayRequestToEntity(req))

	switch {
	case err == nil:
		utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "failed to mark order paid", slog.Any("error", err), slog.String("order_id", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

// TrackOrder is the anonymous tracking endpoint. A missing order and a
// verification mismatch produce the same response on purpose, so
// existing order ids cannot be probed.
func (h *HTTPHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TrackRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.TrackOrder(ctx, req.OrderID, req.Email, req.Phone)

	switch {
	case err == nil:
		utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
	case errors.Is(err, entities.ErrOrderNotFound), errors.Is(err, entities.ErrVerificationMismatch):
		utils.WriteError(w, "order not found or details do not match", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "failed to track order", slog.Any("error", err), slog.String("order_id", req.OrderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
