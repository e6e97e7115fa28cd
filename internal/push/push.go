package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/duetapp/duet/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a device token is no longer valid and should
// be pruned (404 Not Found or 410 Gone from the push service).
var ErrExpired = errors.New("device token expired")

// Payload is the JSON delivered to the device.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Tag   string            `json:"tag,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Config holds VAPID configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

// Service sends web push notifications to registered device tokens.
type Service struct {
	publicKey  string
	privateKey string
	subscriber string
	httpClient *http.Client
}

type Option func(*Service)

// WithHTTPClient overrides the HTTP client used for push delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// NewService creates a push service with VAPID keys.
func NewService(cfg Config, opts ...Option) *Service {
	s := &Service{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subscriber: cfg.Subscriber,
	}
	if s.subscriber == "" {
		s.subscriber = "mailto:noreply@duet.app"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VAPIDPublicKey returns the public key for client-side registration.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send delivers one payload to one device token.
func (s *Service) Send(tok *model.DeviceToken, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	opts := &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subscriber,
		TTL:             86400,
	}
	if s.httpClient != nil {
		opts.HTTPClient = s.httpClient
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: tok.Endpoint,
		Keys: webpush.Keys{
			P256dh: tok.P256dhKey,
			Auth:   tok.AuthKey,
		},
	}, opts)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// Result is the outcome of one token in a multicast send.
type Result struct {
	Token model.DeviceToken
	Err   error
}

// SendAll delivers the payload to every token and reports the per-token
// outcome. Callers prune tokens whose Err is ErrExpired.
func (s *Service) SendAll(tokens []model.DeviceToken, payload Payload) []Result {
	results := make([]Result, 0, len(tokens))
	for _, tok := range tokens {
		results = append(results, Result{Token: tok, Err: s.Send(&tok, payload)})
	}
	return results
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
