package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type authFile struct {
	GatewayAPIKey string `json:"gateway_api_key"`
}

func ReadAPIKeyFromPath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read auth file: %w", err)
	}

	var auth authFile
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", fmt.Errorf("failed to parse auth file: %w", err)
	}

	key := strings.TrimSpace(auth.GatewayAPIKey)
	if key == "" {
		return "", fmt.Errorf("auth file missing gateway_api_key")
	}
	return key, nil
}

// DefaultFilePath 返回 ~/.config/aurachat/auth.json。
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "aurachat", "auth.json"), nil
}

type fileProvider struct {
	path string
}

// 每次调用都重新读取，文件轮换后无需重启。
func (p *fileProvider) APIKey(ctx context.Context) (string, error) {
	path := p.path
	if path == "" {
		var err error
		path, err = DefaultFilePath()
		if err != nil {
			return "", err
		}
	}
	return ReadAPIKeyFromPath(path)
}
