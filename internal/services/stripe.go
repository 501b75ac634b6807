// Stripe API client for hosted checkout sessions
//
// Stripe charges in the smallest currency unit, so local amounts cross this
// boundary multiplied by a fixed factor. Session creation and retrieval must
// apply the inverse conversions consistently or the reported money is wrong.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/musij/internal/shared"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// currencyUnitFactor converts local currency amounts to Stripe's smallest
// currency unit and back.
const currencyUnitFactor = 100

const checkoutProductImage = "https://via.placeholder.com/300x300/2196F3/FFFFFF?text=Musij+Premium"

// CheckoutParams describes a checkout session to create.
type CheckoutParams struct {
	PlanType string
	PlanName string
	Amount   int64 // local currency units, converted here
	UserID   string
}

// CheckoutSession is the provider-assigned session handle.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionStatus is the normalized payment status report for one session.
type SessionStatus struct {
	Status        string            `json:"status"`
	CustomerEmail string            `json:"customerEmail"`
	AmountTotal   int64             `json:"amountTotal"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeSessionResponse struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// StripeService creates and retrieves hosted checkout sessions.
type StripeService struct {
	fetcher        Fetcher
	secretKey      string
	publishableKey string
	frontendURL    string
}

// NewStripeService creates a [StripeService].
func NewStripeService(fetcher Fetcher, secretKey, publishableKey, frontendURL string) (*StripeService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("missing stripe secret key: %w", shared.ErrMissingCredentials)
	}

	return &StripeService{
		fetcher:        fetcher,
		secretKey:      secretKey,
		publishableKey: publishableKey,
		frontendURL:    frontendURL,
	}, nil
}

// PublishableKey returns the client-side key echoed to checkout callers.
func (s *StripeService) PublishableKey() string {
	return s.publishableKey
}

// CreateCheckoutSession creates a hosted checkout for a subscription plan.
//
// The amount arrives in local currency units and is converted to Stripe's
// smallest unit exactly once, here.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("payment_method_types[0]", "card")
	form.Set("mode", "payment")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "idr")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.Amount*currencyUnitFactor, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Musij Premium - "+params.PlanName)
	form.Set("line_items[0][price_data][product_data][description]", params.PlanName+" subscription for Musij music streaming")
	form.Set("line_items[0][price_data][product_data][images][0]", checkoutProductImage)
	form.Set("success_url", s.frontendURL+"?success=true&session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", s.frontendURL+"?canceled=true")

	userID := params.UserID
	if userID == "" {
		userID = "guest"
	}
	form.Set("metadata[userId]", userID)
	form.Set("metadata[planType]", params.PlanType)
	form.Set("metadata[planName]", params.PlanName)

	resp, err := s.fetcher.Fetch(ctx, Request{
		Method: http.MethodPost,
		URL:    stripeBaseURL + "/checkout/sessions",
		Header: http.Header{
			"Authorization": {"Bearer " + s.secretKey},
			"Content-Type":  {"application/x-www-form-urlencoded"},
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return nil, err
	}

	var session stripeSessionResponse
	if err := json.Unmarshal(resp.Body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session response: %w", err)
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// RetrieveSession reports payment status for a session, converting the total
// back to local currency units.
func (s *StripeService) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	resp, err := s.fetcher.Fetch(ctx, Request{
		Method: http.MethodGet,
		URL:    stripeBaseURL + "/checkout/sessions/" + url.PathEscape(sessionID),
		Header: http.Header{"Authorization": {"Bearer " + s.secretKey}},
	})
	if err != nil {
		return nil, err
	}

	var session stripeSessionResponse
	if err := json.Unmarshal(resp.Body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	email := ""
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	metadata := session.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return &SessionStatus{
		Status:        session.PaymentStatus,
		CustomerEmail: email,
		AmountTotal:   session.AmountTotal / currencyUnitFactor,
		Metadata:      metadata,
	}, nil
}
