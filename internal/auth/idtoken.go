package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// IDTokenVerifier checks a token minted by the external identity provider
// and returns its subject.
type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// GoogleVerifier validates Google-signed ID tokens for one audience.
type GoogleVerifier struct {
	Audience string
}

func (v GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New("missing id token")
	}
	if strings.TrimSpace(v.Audience) == "" {
		return "", errors.New("id token audience not configured")
	}

	payload, err := idtoken.Validate(ctx, token, v.Audience)
	if err != nil {
		return "", err
	}
	if payload.Subject == "" {
		return "", fmt.Errorf("id token has no subject")
	}
	return payload.Subject, nil
}
