package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	EnvGatewayAPIKey = "AURA_GATEWAY_API_KEY"
	// EnvLegacyGatewayAPIKey 是旧部署里使用的变量名，仅作兜底。
	EnvLegacyGatewayAPIKey = "LOVABLE_API_KEY"
)

type envProvider struct{}

func (p *envProvider) APIKey(ctx context.Context) (string, error) {
	for _, name := range []string{EnvGatewayAPIKey, EnvLegacyGatewayAPIKey} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%s is not set", EnvGatewayAPIKey)
}
