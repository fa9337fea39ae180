package odin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-care-reminders/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier adapta Client a auth.AuthVerifier.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || !v.client.IsConfigured() {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	if strings.TrimSpace(token) == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("odin verify failed: %w", err)
	}
	return claims, nil
}
