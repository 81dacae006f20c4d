package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAPIKeyFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"gateway_api_key": " sk_file "}`), 0o600))

	key, err := ReadAPIKeyFromPath(p)
	require.NoError(t, err)
	require.Equal(t, "sk_file", key)

	require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o600))
	_, err = ReadAPIKeyFromPath(p)
	require.Error(t, err)

	_, err = ReadAPIKeyFromPath(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestEnvProvider(t *testing.T) {
	t.Setenv(EnvGatewayAPIKey, "")
	t.Setenv(EnvLegacyGatewayAPIKey, "sk_legacy")

	p := &envProvider{}
	key, err := p.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk_legacy", key)

	t.Setenv(EnvGatewayAPIKey, "sk_env")
	key, err = p.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk_env", key)

	t.Setenv(EnvGatewayAPIKey, "")
	t.Setenv(EnvLegacyGatewayAPIKey, "")
	_, err = p.APIKey(context.Background())
	require.Error(t, err)
}

func TestNewProvider_AutoFallsBackToFile(t *testing.T) {
	// 隔离真实 HOME，避免读取到开发机上的配置。
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvGatewayAPIKey, "")
	t.Setenv(EnvLegacyGatewayAPIKey, "")

	p := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"gateway_api_key":"sk_file"}`), 0o600))

	provider, err := NewProvider("auto", p)
	require.NoError(t, err)
	key, err := provider.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk_file", key)

	provider, err = NewProvider("auto", "")
	require.NoError(t, err)
	_, err = provider.APIKey(context.Background())
	require.Error(t, err)
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider("codex", "")
	require.Error(t, err)

	p, err := NewProvider("", "")
	require.NoError(t, err)
	require.IsType(t, &envProvider{}, p)
}
