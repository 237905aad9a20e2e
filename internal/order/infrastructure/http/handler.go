package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/megamart/orderflow/internal/identity"
	"github.com/megamart/orderflow/internal/order/application"
	"github.com/megamart/orderflow/internal/order/domain"
	"github.com/megamart/orderflow/pkg/fault"
)

type Handler struct {
	log      *slog.Logger
	service  *application.Service
	resolver *identity.Resolver
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, resolver *identity.Resolver) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		resolver: resolver,
		tracer:   otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders/from-cart/{customerId}", h.createFromCart)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/user/{customerId}", h.listCustomerOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/tracking", h.getTracking)
	r.Put("/orders/{id}/status", h.updateStatus)
	r.Put("/orders/{id}/cancel", h.cancelOrder)
	r.Delete("/orders/{id}", h.removeOrder)
	r.Get("/processing-locations", h.listLocations)
	return r
}

type checkoutReq struct {
	Email        string                 `json:"email"`
	CustomerName string                 `json:"customerName"`
	Phone        string                 `json:"phone"`
	Shipping     domain.ShippingAddress `json:"shippingAddress"`
	PaymentType  domain.PaymentType     `json:"paymentType"`
}

func (h *Handler) createFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateFromCart")
	defer span.End()

	authUserID, err := strconv.ParseInt(chi.URLParam(r, "customerId"), 10, 64)
	if err != nil {
		writeError(w, fault.Invalid("customerId", "must be an integer"))
		return
	}
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Invalid("body", "invalid JSON"))
		return
	}

	// The auth id in the path may be stale; resolve it to the canonical
	// customer-record id before touching the cart.
	customerID, err := h.resolver.Resolve(ctx, identity.Session{AuthUserID: authUserID, Email: req.Email})
	if err != nil {
		writeError(w, err)
		return
	}

	o, err := h.service.CreateFromCart(ctx, application.CheckoutRequest{
		CustomerID:  customerID,
		Customer:    domain.CustomerInfo{Name: req.CustomerName, Email: req.Email, Phone: req.Phone},
		Shipping:    req.Shipping,
		PaymentType: req.PaymentType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	page, size := pagination(r)
	orders, err := h.service.ListAll(ctx, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "page": page})
}

func (h *Handler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCustomerOrders")
	defer span.End()

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerId"), 10, 64)
	if err != nil {
		writeError(w, fault.Invalid("customerId", "must be an integer"))
		return
	}
	page, size := pagination(r)
	orders, err := h.service.ListForCustomer(ctx, customerID, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "page": page})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	o, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) getTracking(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetTracking")
	defer span.End()

	entries, err := h.service.TrackingHistory(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trackingHistory": entries})
}

type updateStatusReq struct {
	Status     string `json:"status"`
	LocationID *int64 `json:"locationId,omitempty"`
	Notes      string `json:"notes,omitempty"`
	UpdatedBy  string `json:"updatedBy"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateStatus")
	defer span.End()

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Invalid("body", "invalid JSON"))
		return
	}
	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, fault.Invalid("status", err.Error()))
		return
	}
	actor := req.UpdatedBy
	if actor == "" {
		actor = string(domain.ActorAdmin)
	}

	o, err := h.service.Transition(ctx, chi.URLParam(r, "id"), target, req.LocationID, req.Notes, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CancelOrder")
	defer span.End()

	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Invalid("body", "invalid JSON"))
		return
	}
	res, err := h.service.CancelByCustomer(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "Your order has been cancelled. As this was a cash on delivery order, no refund is applicable."
	if res.RefundDue {
		msg = "Your order has been cancelled. Your refund will be processed within 3-5 business days."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":     res.Order,
		"refundDue": res.RefundDue,
		"message":   msg,
	})
}

type removeReq struct {
	Reason           string `json:"reason"`
	SendNotification bool   `json:"sendNotification"`
}

func (h *Handler) removeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveOrder")
	defer span.End()

	var req removeReq
	if r.Body != nil {
		// Body is optional; an empty one means no notification and no reason.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	res, err := h.service.Remove(ctx, chi.URLParam(r, "id"), req.Reason, req.SendNotification)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archived":         res.Archived,
		"autoDeleteDate":   res.AutoDeleteDate,
		"notificationSent": res.NotificationSent,
	})
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListLocations")
	defer span.End()

	locs, err := h.service.Locations(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locs})
}

func pagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case fault.IsNotFound(err):
		status = http.StatusNotFound
	case fault.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsInvalidTransition(err):
		status = http.StatusConflict
	case fault.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
