// Package otp issues and checks the short-lived codes gating PIN setup.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/dtv/mobank/internal/notification"
)

// Store persists at most one live code per user. Writing for a user replaces
// any prior entry; entries vanish on their own once the TTL passes.
type Store interface {
	Put(ctx context.Context, userID, code string, ttl time.Duration) error
	// Get returns the live code for the user, or "" when none exists or it
	// has expired.
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// Registry issues, dispatches and consumes one-time codes.
type Registry struct {
	store    Store
	notifier notification.Notifier
	ttl      time.Duration
}

// NewRegistry builds an OTP registry. ttl is the validity window of each code.
func NewRegistry(store Store, notifier notification.Notifier, ttl time.Duration) *Registry {
	return &Registry{store: store, notifier: notifier, ttl: ttl}
}

// Request generates a fresh 6-digit code for the user, stores it (replacing
// any earlier live code) and emails it to the given address. A dispatch
// failure is returned to the caller; there is no retry.
func (r *Registry) Request(ctx context.Context, userID, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	if err := r.store.Put(ctx, userID, code, r.ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	minutes := int(r.ttl.Minutes())
	err = r.notifier.Send(ctx, notification.Message{
		Kind:    notification.KindOTP,
		To:      email,
		Subject: "Your PIN setup code",
		Body:    fmt.Sprintf("Your one-time code is %s. It expires in %d minutes.", code, minutes),
	})
	if err != nil {
		return "", fmt.Errorf("dispatch otp: %w", err)
	}

	return code, nil
}

// Consume reports whether submitted matches the user's live code. Only a
// match deletes the entry, so a wrong attempt does not burn the code and a
// later correct submission inside the window still succeeds.
func (r *Registry) Consume(ctx context.Context, userID, submitted string) (bool, error) {
	stored, err := r.store.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("lookup otp: %w", err)
	}
	if stored == "" || stored != submitted {
		return false, nil
	}

	if err := r.store.Delete(ctx, userID); err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return true, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
