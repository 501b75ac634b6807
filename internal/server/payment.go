package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musij/internal/payments"
	"github.com/desertthunder/musij/internal/services"
	"github.com/desertthunder/musij/internal/shared"
)

// maxWebhookBody bounds the raw payload read for signature verification.
const maxWebhookBody = 1 << 20

// PaymentHandler serves checkout creation, session status and the webhook
// receiver. Sessions are registered locally at creation time so webhook
// deliveries have a row to transition.
type PaymentHandler struct {
	Service    *services.StripeService
	Sessions   payments.SessionStore
	Verifier   *payments.Verifier
	Dispatcher *payments.Dispatcher
	Logger     *log.Logger
}

func (h *PaymentHandler) Mount(r Router) {
	r.Handle(http.MethodPost, "/payment/create-checkout-session", http.HandlerFunc(h.CreateCheckout))
	r.Handle(http.MethodGet, "/payment/session/{id}", http.HandlerFunc(h.SessionStatus))
	r.Handle(http.MethodPost, "/payment/webhook", http.HandlerFunc(h.Webhook))
}

type createCheckoutRequest struct {
	PlanType string `json:"planType"`
	PlanName string `json:"planName"`
	Amount   int64  `json:"amount"`
	UserID   string `json:"userId"`
}

type createCheckoutResponse struct {
	Success        bool   `json:"success"`
	SessionID      string `json:"sessionId"`
	URL            string `json:"url"`
	PublishableKey string `json:"publishableKey"`
}

// CreateCheckout handles POST /payment/create-checkout-session.
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Stripe")
		return
	}

	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", shared.ErrInvalidInput)
		return
	}
	if req.PlanType == "" || req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "Plan type and amount are required", shared.ErrInvalidInput)
		return
	}

	checkout, err := h.Service.CreateCheckoutSession(r.Context(), services.CheckoutParams{
		PlanType: req.PlanType,
		PlanName: req.PlanName,
		Amount:   req.Amount,
		UserID:   req.UserID,
	})
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to create checkout session", err)
		return
	}

	session := &payments.Session{
		ID:        checkout.ID,
		UserID:    req.UserID,
		PlanType:  req.PlanType,
		PlanName:  req.PlanName,
		Amount:    req.Amount,
		Status:    payments.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := h.Sessions.Create(session); err != nil {
		h.Logger.Error("failed to register checkout session", "session", checkout.ID, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to create checkout session", err)
		return
	}

	writeJSON(w, http.StatusOK, createCheckoutResponse{
		Success:        true,
		SessionID:      checkout.ID,
		URL:            checkout.URL,
		PublishableKey: h.Service.PublishableKey(),
	})
}

type sessionStatusResponse struct {
	Success       bool              `json:"success"`
	Status        string            `json:"status"`
	CustomerEmail string            `json:"customerEmail"`
	AmountTotal   int64             `json:"amountTotal"`
	Metadata      map[string]string `json:"metadata"`
}

// SessionStatus handles GET /payment/session/{id}.
func (h *PaymentHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		respondUnconfigured(w, "Stripe")
		return
	}

	status, err := h.Service.RetrieveSession(r.Context(), r.PathValue("id"))
	if errors.Is(err, shared.ErrNotFound) {
		respondNotFound(w, "Session not found")
		return
	}
	if err != nil {
		respondUpstreamError(w, h.Logger, "Failed to retrieve session", err)
		return
	}

	writeJSON(w, http.StatusOK, sessionStatusResponse{
		Success:       true,
		Status:        status.Status,
		CustomerEmail: status.CustomerEmail,
		AmountTotal:   status.AmountTotal,
		Metadata:      status.Metadata,
	})
}

// Webhook handles POST /payment/webhook.
//
// The signature is verified over the raw bytes before any decoding, so the
// body must not pass through anything that could reserialize it.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		respondUnconfigured(w, "Stripe webhook")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read webhook payload", err)
		return
	}

	event, err := h.Verifier.Verify(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Logger.Warn("webhook signature verification failed", "err", err)
		respondError(w, http.StatusBadRequest, "Webhook signature verification failed", shared.ErrBadSignature)
		return
	}

	h.Dispatcher.Dispatch(event)

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
