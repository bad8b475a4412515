package ometa

import (
	"context"
	"fmt"
	"os"
)

// Provider supplies the bearer token attached to every request.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// NoAuth is the default provider and sends no Authorization header.
type NoAuth struct{}

func (NoAuth) Token(ctx context.Context) (string, error) {
	return "", nil
}

// StaticToken sends a fixed bearer token.
type StaticToken struct {
	Value string
}

func (s StaticToken) Token(ctx context.Context) (string, error) {
	return s.Value, nil
}

const tokenEnvVar = "METADATA_AUTH_TOKEN"

// NewProvider builds a Provider from the configured auth_provider_type.
// Providers other than no-auth use a static token from the config secret or
// the METADATA_AUTH_TOKEN environment variable; token exchange happens
// outside this tool.
func NewProvider(providerType, secret string) (Provider, error) {
	switch providerType {
	case "", "no-auth":
		return NoAuth{}, nil
	case "google", "okta", "auth0":
		if secret == "" {
			secret = os.Getenv(tokenEnvVar)
		}
		if secret == "" {
			return nil, fmt.Errorf("auth provider %q requires a token via secret_key or %s", providerType, tokenEnvVar)
		}
		return StaticToken{Value: secret}, nil
	default:
		return nil, fmt.Errorf("unknown auth provider type: %s", providerType)
	}
}
