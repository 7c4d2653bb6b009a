package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TokenVerifier is the part of TokenService the gateway depends on.
type TokenVerifier interface {
	Verify(raw string) (*Claims, error)
}

// Gateway turns an Authorization header into a Principal and gates it
// through the configured voters. It never touches the user store.
type Gateway struct {
	tokens TokenVerifier
	voters []Voter
}

// NewGateway builds a gateway. Without explicit voters only the role rule
// applies.
func NewGateway(tokens TokenVerifier, voters ...Voter) *Gateway {
	if len(voters) == 0 {
		voters = []Voter{RoleVoter{}}
	}
	return &Gateway{tokens: tokens, voters: voters}
}

// Authenticate verifies a "Bearer <token>" header value. Every failure
// matches ErrUnauthenticated; the cause (ErrMissingToken, ErrInvalidToken,
// ErrExpiredToken) is wrapped too so it can be logged.
func (g *Gateway) Authenticate(header string) (Principal, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMissingToken)
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return PrincipalFromClaims(claims), nil
}

// Authorize returns ErrForbidden unless the voters allow p.
func (g *Gateway) Authorize(p Principal, policy Policy, target Target) error {
	if Aggregate(p, policy, target, g.voters...) != Allow {
		return ErrForbidden
	}
	return nil
}

// FailureReason is a short label for an authentication failure, used in
// logs and metrics. It is never sent to clients.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

func bearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

type principalKey struct{}

// WithPrincipal stores p in ctx for downstream handlers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal set by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
