package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musij/internal/shared"
)

// EventType identifies a known webhook event kind. The set is closed; any
// other type string is acknowledged and ignored.
type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventCheckoutExpired   EventType = "checkout.session.expired"
)

// Event is a verified webhook delivery.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// signatureTolerance bounds how old a signed timestamp may be before the
// delivery is treated as a replay.
const signatureTolerance = 5 * time.Minute

// Verifier authenticates webhook deliveries signed with the provider scheme:
// a Stripe-Signature header of the form "t=<unix>,v1=<hex>" where v1 is the
// HMAC-SHA256 of "<t>.<raw body>" under the shared signing secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a [Verifier] for the given signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify authenticates rawBody against the signature header and parses the
// event.
//
// rawBody must be the exact bytes received on the wire; the signature is
// computed over them, and any intermediate parse-and-reserialize breaks it.
// Every failure maps to [shared.ErrBadSignature] so callers reject the whole
// delivery without touching session state.
func (v *Verifier) Verify(rawBody []byte, sigHeader string) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", shared.ErrBadSignature)
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("%w: no matching v1 signature", shared.ErrBadSignature)
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", shared.ErrBadSignature)
	}

	return &event, nil
}

// Sign produces a valid signature header for rawBody at the given time.
// Used by tests and by local tooling that replays deliveries.
func (v *Verifier) Sign(rawBody []byte, at time.Time) string {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(rawBody)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func parseSignatureHeader(header string) (timestamp int64, signatures []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", shared.ErrBadSignature)
	}

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", shared.ErrBadSignature)
			}
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: incomplete signature header", shared.ErrBadSignature)
	}

	return timestamp, signatures, nil
}

// Dispatcher applies verified events to a session store.
type Dispatcher struct {
	store  SessionStore
	logger *log.Logger
}

// NewDispatcher creates a [Dispatcher] over the given store.
func NewDispatcher(store SessionStore, logger *log.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

// Dispatch routes a verified event to the store.
//
// Unknown event types and unknown session ids are logged and swallowed: the
// provider retries deliveries we reject, and neither case is actionable.
func (d *Dispatcher) Dispatch(event *Event) {
	sessionID := event.Data.Object.ID

	switch event.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		applied, err := d.store.ApplyEvent(sessionID, event.Type)
		switch {
		case err != nil:
			d.logger.Warn("webhook for unknown session", "session_id", sessionID, "type", event.Type)
		case applied:
			d.logger.Info("session transitioned", "session_id", sessionID, "type", event.Type)
		default:
			d.logger.Debug("duplicate webhook ignored", "session_id", sessionID, "type", event.Type)
		}
	default:
		d.logger.Info("unhandled event type", "type", event.Type)
	}
}
