package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderapp "github.com/fashopdev/fashop/internal/order/application"
	orderdomain "github.com/fashopdev/fashop/internal/order/domain"
	"github.com/fashopdev/fashop/internal/payment/application"
	"github.com/fashopdev/fashop/internal/payment/domain"
)

// AttemptLister exposes the settlement attempt trail for one order.
type AttemptLister interface {
	Attempts(ctx context.Context, orderID int64) ([]domain.Attempt, error)
}

type Handler struct {
	log        *slog.Logger
	reconciler *application.Reconciler
	initiator  *application.Initiator
	orders     *orderapp.Service
	attempts   AttemptLister
	tracer     trace.Tracer
}

func NewHandler(log *slog.Logger, reconciler *application.Reconciler, initiator *application.Initiator, orders *orderapp.Service, attempts AttemptLister) *Handler {
	return &Handler{
		log:        log,
		reconciler: reconciler,
		initiator:  initiator,
		orders:     orders,
		attempts:   attempts,
		tracer:     otel.Tracer("payment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/payments/vnpay/return", h.gatewayReturn)
	r.Get("/payments/vnpay/ipn", h.gatewayIPN)
	r.Post("/payments/vnpay/ipn", h.gatewayIPN)
	r.Post("/payments/vnpay/initiate", h.initiate)
	r.Get("/orders/{code}", h.getOrder)
	r.Get("/orders/{code}/payments", h.orderPayments)
	return r
}

// gatewayReturn handles the browser redirect leg. Business-level failures
// still answer HTTP 200 with {success, message}; error status codes are
// reserved for transport faults.
func (h *Handler) gatewayReturn(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GatewayReturn")
	defer span.End()

	res := h.reconciler.Reconcile(ctx, r.URL.Query())
	success, message := res.BrowserMessage()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    success,
		"message":    message,
		"order_code": res.OrderCode,
	})
}

// gatewayIPN handles the server-to-server leg. The gateway parses the small
// {RspCode, Message} ack and stops retrying on any known code.
func (h *Handler) gatewayIPN(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GatewayIPN")
	defer span.End()

	params := r.URL.Query()
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil && len(r.PostForm) > 0 {
			params = r.PostForm
		}
	}

	res := h.reconciler.Reconcile(ctx, params)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res.GatewayAck())
}

type initiateReq struct {
	OrderID int64 `json:"order_id"`
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "InitiatePayment")
	defer span.End()

	var req initiateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	payURL, err := h.initiator.PaymentURL(ctx, req.OrderID, clientIP(r))
	switch {
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, application.ErrOrderNotPayable):
		http.Error(w, "order is not awaiting payment", http.StatusConflict)
		return
	case err != nil:
		h.log.Error("payment url build failed", "order_id", req.OrderID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"payment_url": payURL})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	ord, err := h.orders.GetByCode(ctx, chi.URLParam(r, "code"))
	if errors.Is(err, orderdomain.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("order lookup failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":         ord.Code,
		"status":       ord.Status,
		"subtotal_vnd": ord.SubtotalVND,
		"discount_vnd": ord.DiscountVND,
		"total_vnd":    ord.TotalVND,
		"items":        ord.Items,
	})
}

func (h *Handler) orderPayments(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "OrderPayments")
	defer span.End()

	ord, err := h.orders.GetByCode(ctx, chi.URLParam(r, "code"))
	if errors.Is(err, orderdomain.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("order lookup failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	attempts, err := h.attempts.Attempts(ctx, ord.ID)
	if err != nil {
		h.log.Error("attempt listing failed", "order_id", ord.ID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, map[string]any{
			"txn_ref":     a.TxnRef,
			"amount_vnd":  a.AmountVND,
			"bank_code":   a.BankCode,
			"status":      a.Status,
			"verified_at": a.VerifiedAt,
			"note":        a.Note,
			"created_at":  a.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"order_code": ord.Code,
		"attempts":   out,
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
