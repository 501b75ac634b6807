package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/musij/internal/cache"
	"github.com/desertthunder/musij/internal/payments"
	"github.com/desertthunder/musij/internal/services"
	"github.com/desertthunder/musij/internal/shared"
	mocks "github.com/desertthunder/musij/internal/testing"
)

const testWebhookSecret = "whsec_test_secret"

func testConfig() *shared.Config {
	cfg := shared.DefaultConfig()
	cfg.Credentials.Spotify.ClientID = "client_id"
	cfg.Credentials.Spotify.ClientSecret = "client_secret"
	cfg.Credentials.Genius.AccessToken = "genius_token"
	cfg.Credentials.LastFM.APIKey = "lastfm_key"
	cfg.Credentials.Stripe.SecretKey = "sk_test"
	cfg.Credentials.Stripe.PublishableKey = "pk_test"
	cfg.Credentials.Stripe.WebhookSecret = testWebhookSecret
	return cfg
}

// newTestServer wires a full server against a [mocks.MockFetcher] so handler
// tests exercise the real router, middleware, and envelope code.
func newTestServer(t *testing.T, fetcher services.Fetcher) (http.Handler, payments.SessionStore) {
	t.Helper()

	cfg := testConfig()
	logger := shared.NewLogger(io.Discard)

	memory := cache.NewMemory(cache.MemoryOpts{})
	t.Cleanup(memory.Close)

	spotify, err := services.NewSpotifyService(fetcher, memory, cfg.Credentials.Spotify.ClientID, cfg.Credentials.Spotify.ClientSecret)
	if err != nil {
		t.Fatalf("Failed to create spotify service: %v", err)
	}
	stripe, err := services.NewStripeService(fetcher, cfg.Credentials.Stripe.SecretKey, cfg.Credentials.Stripe.PublishableKey, cfg.Frontend.URL)
	if err != nil {
		t.Fatalf("Failed to create stripe service: %v", err)
	}

	store := payments.NewMemoryStore()

	srv := New(Deps{
		Config:      cfg,
		Logger:      logger,
		ReadThrough: cache.NewReadThrough(memory),
		Bandsintown: services.NewBandsintownService(fetcher, ""),
		Genius:      services.NewGeniusService(fetcher, cfg.Credentials.Genius.AccessToken),
		LastFM:      services.NewLastFMService(fetcher, cfg.Credentials.LastFM.APIKey),
		Spotify:     spotify,
		Stripe:      stripe,
		Sessions:    store,
		Verifier:    payments.NewVerifier(testWebhookSecret),
	})

	return srv.Handler(), store
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var envelope Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope
}

func TestRouting(t *testing.T) {
	handler, _ := newTestServer(t, mocks.NewMockFetcher())

	t.Run("Unknown Endpoint", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/nope", "")

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Success || envelope.Message != "Endpoint not found" {
			t.Errorf("Unexpected envelope: %+v", envelope)
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/health", "")

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", rec.Code)
		}
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodOptions, "/health", "")

		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Error("Expected CORS headers on preflight response")
		}
	})

	t.Run("Request ID Header", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/health", "")

		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("Expected X-Request-ID header")
		}
	})
}

func TestHealthHandler(t *testing.T) {
	handler, _ := newTestServer(t, mocks.NewMockFetcher())

	rec := doRequest(t, handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var health struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		APIs    map[string]bool `json:"apis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	if health.Status != "OK" {
		t.Errorf("Unexpected status: %s", health.Status)
	}
	for _, name := range []string{"stripe", "spotify", "genius", "lastfm", "bandsintown"} {
		if !health.APIs[name] {
			t.Errorf("Expected %s to report configured", name)
		}
	}
}

func TestEventsRoutes(t *testing.T) {
	t.Run("Lists Events And Caches", func(t *testing.T) {
		fetcher := mocks.NewMockFetcher().Respond("/artists/Radiohead/events", http.StatusOK, `[
			{"id": "1", "datetime": "2026-10-02T20:30:00", "venue": {"name": "The Forum", "city": "Jakarta", "country": "Indonesia"}}
		]`)
		handler, _ := newTestServer(t, fetcher)

		rec := doRequest(t, handler, http.MethodGet, "/events/artist/Radiohead", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		envelope := decodeEnvelope(t, rec)
		if !envelope.Success || envelope.FromCache == nil || *envelope.FromCache {
			t.Errorf("Expected fresh success envelope, got %+v", envelope)
		}

		rec = doRequest(t, handler, http.MethodGet, "/events/artist/Radiohead", "")
		envelope = decodeEnvelope(t, rec)
		if envelope.FromCache == nil || !*envelope.FromCache {
			t.Errorf("Expected second lookup served from cache, got %+v", envelope)
		}

		if len(fetcher.Requests) != 1 {
			t.Errorf("Expected a single upstream call, got %d", len(fetcher.Requests))
		}
	})

	t.Run("Unknown Artist Yields Empty Success", func(t *testing.T) {
		// No route registered: the mock answers 404.
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		rec := doRequest(t, handler, http.MethodGet, "/events/artist/nobody", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if !envelope.Success || envelope.Message != "No events found for this artist" {
			t.Errorf("Unexpected envelope: %+v", envelope)
		}
	})

	t.Run("No Upcoming Events", func(t *testing.T) {
		fetcher := mocks.NewMockFetcher().Respond("/events", http.StatusOK, `[]`)
		handler, _ := newTestServer(t, fetcher)

		rec := doRequest(t, handler, http.MethodGet, "/events/artist/quiet", "")
		envelope := decodeEnvelope(t, rec)
		if !envelope.Success || envelope.Message != "No upcoming events found" {
			t.Errorf("Unexpected envelope: %+v", envelope)
		}
	})
}

func TestLyricsRoutes(t *testing.T) {
	t.Run("Search Requires Query", func(t *testing.T) {
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		rec := doRequest(t, handler, http.MethodGet, "/lyrics/search", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Message != `Query parameter "q" is required` {
			t.Errorf("Unexpected message: %q", envelope.Message)
		}
	})

	t.Run("Song Requires Numeric ID", func(t *testing.T) {
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		rec := doRequest(t, handler, http.MethodGet, "/lyrics/song/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
	})

	t.Run("Missing Song Is 404", func(t *testing.T) {
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		rec := doRequest(t, handler, http.MethodGet, "/lyrics/song/99999", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Success || envelope.Message != "Song not found" {
			t.Errorf("Unexpected envelope: %+v", envelope)
		}
	})

	t.Run("Empty Search Results", func(t *testing.T) {
		fetcher := mocks.NewMockFetcher().Respond("/search", http.StatusOK, `{"response": {"hits": []}}`)
		handler, _ := newTestServer(t, fetcher)

		rec := doRequest(t, handler, http.MethodGet, "/lyrics/search?q=zzz", "")
		envelope := decodeEnvelope(t, rec)
		if !envelope.Success || envelope.Message != "No songs found" {
			t.Errorf("Unexpected envelope: %+v", envelope)
		}
	})
}

func TestArtistsRoutes(t *testing.T) {
	t.Run("Track Info Requires Both Parameters", func(t *testing.T) {
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		for _, path := range []string{"/artists/track-info", "/artists/track-info?artist=Radiohead", "/artists/track-info?track=Creep"} {
			rec := doRequest(t, handler, http.MethodGet, path, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400 for %s, got %d", path, rec.Code)
			}
		}
	})

	t.Run("Unknown Artist Is 404", func(t *testing.T) {
		fetcher := mocks.NewMockFetcher().Respond("ws.audioscrobbler.com", http.StatusOK, `{"error": 6, "message": "artist not found"}`)
		handler, _ := newTestServer(t, fetcher)

		rec := doRequest(t, handler, http.MethodGet, "/artists/info/zzzznotreal", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Success || envelope.Message != "Artist not found" {
			t.Errorf("Unexpected envelope: %+v", envelope)
		}
	})

	t.Run("Caches Artist Info", func(t *testing.T) {
		fetcher := mocks.NewMockFetcher().Respond("ws.audioscrobbler.com", `{
			"artist": {"name": "Radiohead", "stats": {"listeners": "1", "playcount": "2"}}
		}`)
		handler, _ := newTestServer(t, fetcher)

		doRequest(t, handler, http.MethodGet, "/artists/info/Radiohead", "")
		rec := doRequest(t, handler, http.MethodGet, "/artists/info/radiohead", "")

		envelope := decodeEnvelope(t, rec)
		if envelope.FromCache == nil || !*envelope.FromCache {
			t.Errorf("Expected case-folded key to hit the cache, got %+v", envelope)
		}
		if len(fetcher.Requests) != 1 {
			t.Errorf("Expected a single upstream call, got %d", len(fetcher.Requests))
		}
	})
}

func TestMusicRoutes(t *testing.T) {
	t.Run("Search Requires Query", func(t *testing.T) {
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		rec := doRequest(t, handler, http.MethodGet, "/music/search", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
	})

	t.Run("Recommendations Require A Seed", func(t *testing.T) {
		handler, _ := newTestServer(t, mocks.NewMockFetcher())

		rec := doRequest(t, handler, http.MethodGet, "/music/recommendations", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Message != "At least one of seed_tracks or seed_artists is required" {
			t.Errorf("Unexpected message: %q", envelope.Message)
		}
	})
}

func TestUnconfiguredProviders(t *testing.T) {
	cfg := testConfig()
	memory := cache.NewMemory(cache.MemoryOpts{})
	t.Cleanup(memory.Close)

	srv := New(Deps{
		Config:      cfg,
		Logger:      shared.NewLogger(io.Discard),
		ReadThrough: cache.NewReadThrough(memory),
		Sessions:    payments.NewMemoryStore(),
	})

	for _, path := range []string{
		"/events/artist/Radiohead",
		"/lyrics/search?q=test",
		"/artists/info/Radiohead",
		"/music/search?q=test",
		"/payment/session/cs_1",
	} {
		rec := doRequest(t, srv.Handler(), http.MethodGet, path, "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500 for %s, got %d", path, rec.Code)
		}
		envelope := decodeEnvelope(t, rec)
		if envelope.Success || !strings.Contains(envelope.Message, "not configured") {
			t.Errorf("Unexpected envelope for %s: %+v", path, envelope)
		}
	}
}

func TestPaymentRoutes(t *testing.T) {
	checkoutMock := func() *mocks.MockFetcher {
		return mocks.NewMockFetcher().Respond("/checkout/sessions", `{"id": "cs_test_1", "url": "https://checkout.stripe.com/cs_test_1"}`)
	}

	t.Run("Create Requires Plan And Amount", func(t *testing.T) {
		handler, _ := newTestServer(t, checkoutMock())

		for _, body := range []string{
			`{}`,
			`{"planType": "premium"}`,
			`{"planType": "premium", "amount": 0}`,
			`{"amount": 50000}`,
		} {
			rec := doRequest(t, handler, http.MethodPost, "/payment/create-checkout-session", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400 for body %s, got %d", body, rec.Code)
			}
		}
	})

	t.Run("Create Registers Pending Session", func(t *testing.T) {
		handler, store := newTestServer(t, checkoutMock())

		rec := doRequest(t, handler, http.MethodPost, "/payment/create-checkout-session",
			`{"planType": "premium", "planName": "Premium Monthly", "amount": 50000, "userId": "user42"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Success        bool   `json:"success"`
			SessionID      string `json:"sessionId"`
			URL            string `json:"url"`
			PublishableKey string `json:"publishableKey"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !resp.Success || resp.SessionID != "cs_test_1" || resp.PublishableKey != "pk_test" {
			t.Errorf("Unexpected response: %+v", resp)
		}

		session, err := store.Get("cs_test_1")
		if err != nil {
			t.Fatalf("Expected session registered, got %v", err)
		}
		if session.Status != payments.StatusPending {
			t.Errorf("Expected pending session, got %s", session.Status)
		}
		if session.UserID != "user42" || session.Amount != 50000 {
			t.Errorf("Unexpected session fields: %+v", session)
		}
	})

	t.Run("Webhook", func(t *testing.T) {
		completedBody := `{"id": "evt_1", "type": "checkout.session.completed", "data": {"object": {"id": "cs_test_1"}}}`

		signedRequest := func(t *testing.T, handler http.Handler, body, header string) *httptest.ResponseRecorder {
			t.Helper()
			req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
			req.Header.Set("Stripe-Signature", header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		t.Run("Valid Signature Completes Session", func(t *testing.T) {
			handler, store := newTestServer(t, checkoutMock())
			doRequest(t, handler, http.MethodPost, "/payment/create-checkout-session",
				`{"planType": "premium", "planName": "Premium Monthly", "amount": 50000}`)

			verifier := payments.NewVerifier(testWebhookSecret)
			rec := signedRequest(t, handler, completedBody, verifier.Sign([]byte(completedBody), time.Now()))

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"received":true`) {
				t.Errorf("Expected received ack, got %s", rec.Body.String())
			}

			session, err := store.Get("cs_test_1")
			if err != nil {
				t.Fatalf("Expected session, got %v", err)
			}
			if session.Status != payments.StatusCompleted {
				t.Errorf("Expected completed session, got %s", session.Status)
			}
		})

		t.Run("Duplicate Delivery Is Idempotent", func(t *testing.T) {
			handler, store := newTestServer(t, checkoutMock())
			doRequest(t, handler, http.MethodPost, "/payment/create-checkout-session",
				`{"planType": "premium", "planName": "Premium Monthly", "amount": 50000}`)

			verifier := payments.NewVerifier(testWebhookSecret)
			for i := 0; i < 3; i++ {
				rec := signedRequest(t, handler, completedBody, verifier.Sign([]byte(completedBody), time.Now()))
				if rec.Code != http.StatusOK {
					t.Fatalf("Expected status 200 on delivery %d, got %d", i, rec.Code)
				}
			}

			session, _ := store.Get("cs_test_1")
			if session.Status != payments.StatusCompleted {
				t.Errorf("Expected completed session, got %s", session.Status)
			}
		})

		t.Run("Expired After Completed Is Absorbed", func(t *testing.T) {
			handler, store := newTestServer(t, checkoutMock())
			doRequest(t, handler, http.MethodPost, "/payment/create-checkout-session",
				`{"planType": "premium", "planName": "Premium Monthly", "amount": 50000}`)

			verifier := payments.NewVerifier(testWebhookSecret)
			signedRequest(t, handler, completedBody, verifier.Sign([]byte(completedBody), time.Now()))

			expiredBody := `{"id": "evt_2", "type": "checkout.session.expired", "data": {"object": {"id": "cs_test_1"}}}`
			rec := signedRequest(t, handler, expiredBody, verifier.Sign([]byte(expiredBody), time.Now()))
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rec.Code)
			}

			session, _ := store.Get("cs_test_1")
			if session.Status != payments.StatusCompleted {
				t.Errorf("Expected terminal state preserved, got %s", session.Status)
			}
		})

		t.Run("Invalid Signature Is Rejected", func(t *testing.T) {
			handler, store := newTestServer(t, checkoutMock())
			doRequest(t, handler, http.MethodPost, "/payment/create-checkout-session",
				`{"planType": "premium", "planName": "Premium Monthly", "amount": 50000}`)

			wrong := payments.NewVerifier("whsec_other")
			rec := signedRequest(t, handler, completedBody, wrong.Sign([]byte(completedBody), time.Now()))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}

			session, _ := store.Get("cs_test_1")
			if session.Status != payments.StatusPending {
				t.Errorf("Rejected webhook must not touch the session, got %s", session.Status)
			}
		})

		t.Run("Missing Signature Is Rejected", func(t *testing.T) {
			handler, _ := newTestServer(t, checkoutMock())

			rec := signedRequest(t, handler, completedBody, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})

		t.Run("Unknown Event Type Is Acknowledged", func(t *testing.T) {
			handler, _ := newTestServer(t, checkoutMock())

			body := `{"id": "evt_3", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`
			verifier := payments.NewVerifier(testWebhookSecret)
			rec := signedRequest(t, handler, body, verifier.Sign([]byte(body), time.Now()))

			if rec.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rec.Code)
			}
		})
	})

	t.Run("Session Status", func(t *testing.T) {
		fetcher := mocks.NewMockFetcher().Respond("/checkout/sessions/cs_test_1", `{
			"id": "cs_test_1",
			"payment_status": "paid",
			"amount_total": 5000000,
			"metadata": {"planType": "premium"},
			"customer_details": {"email": "user@example.com"}
		}`)
		handler, _ := newTestServer(t, fetcher)

		rec := doRequest(t, handler, http.MethodGet, "/payment/session/cs_test_1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}

		var resp struct {
			Success     bool   `json:"success"`
			Status      string `json:"status"`
			AmountTotal int64  `json:"amountTotal"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !resp.Success || resp.Status != "paid" || resp.AmountTotal != 50000 {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})
}
