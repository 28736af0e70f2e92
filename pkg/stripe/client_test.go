package stripe

import (
	"context"
	"testing"

	"github.com/oxbryte/openly-backend/pkg/config"
)

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.StripeConfig
	}{
		{name: "missingAPIKey", cfg: config.StripeConfig{Secret: "whsec_x", Env: "test"}},
		{name: "missingSecret", cfg: config.StripeConfig{APIKey: "sk_test_x", Env: "test"}},
		{name: "badEnv", cfg: config.StripeConfig{APIKey: "sk_test_x", Secret: "whsec_x", Env: "staging"}},
		{name: "liveKeyInTestEnv", cfg: config.StripeConfig{APIKey: "sk_live_x", Secret: "whsec_x", Env: "test"}},
		{name: "testKeyInLiveEnv", cfg: config.StripeConfig{APIKey: "sk_test_x", Secret: "whsec_x", Env: "live"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(ctx, tt.cfg, nil); err == nil {
				t.Fatalf("expected config error")
			}
		})
	}
}

func TestNewClientAcceptsTestKey(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_test_123",
		Secret: "whsec_123",
		Env:    "test",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("expected test environment, got %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_123" {
		t.Fatalf("unexpected signing secret")
	}
}
