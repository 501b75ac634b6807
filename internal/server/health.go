package server

import (
	"net/http"
	"time"

	"github.com/desertthunder/musij/internal/shared"
)

// HealthHandler reports process liveness and which providers are configured.
type HealthHandler struct {
	Config *shared.Config
}

func (h *HealthHandler) Mount(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(h.Health))
}

type healthResponse struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	APIs      map[string]bool `json:"apis"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	creds := h.Config.Credentials

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Message:   "Musij Backend API is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		APIs: map[string]bool{
			"stripe":      creds.Stripe.SecretKey != "",
			"spotify":     creds.Spotify.ClientID != "" && creds.Spotify.ClientSecret != "",
			"genius":      creds.Genius.AccessToken != "",
			"lastfm":      creds.LastFM.APIKey != "",
			"bandsintown": true,
		},
	})
}
