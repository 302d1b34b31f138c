// Package notifications delivers ledger events to an external webhook receiver.
package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	SignatureHeader = "X-Ledger-Signature"
	EventHeader     = "X-Ledger-Event"
)

// ErrUnavailable is returned while the breaker is open and requests are not attempted.
var ErrUnavailable = errors.New("webhook receiver unavailable")

type Sender struct {
	client  *http.Client
	secret  string
	breaker *gobreaker.CircuitBreaker
}

// NewSender builds a sender whose breaker opens after tripAfter consecutive
// failures and probes the receiver again after cooldown.
func NewSender(secret string, timeout time.Duration, tripAfter uint32, cooldown time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if tripAfter == 0 {
		tripAfter = 5
	}

	settings := gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Webhook breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Sender{
		client:  &http.Client{Timeout: timeout},
		secret:  secret,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Sign returns the hex HMAC-SHA256 of body prefixed with the algorithm name.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Send posts the JSON payload to url. Any non-2xx answer is an error.
func (s *Sender) Send(ctx context.Context, url, eventType string, payload []byte) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.post(ctx, url, eventType, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (s *Sender) post(ctx context.Context, url, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ledger-Webhook/1.0")
	req.Header.Set(EventHeader, eventType)
	req.Header.Set(SignatureHeader, Sign(s.secret, payload))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return fmt.Errorf("webhook receiver returned status %d", resp.StatusCode)
}
