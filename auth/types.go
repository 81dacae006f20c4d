package auth

import "context"

// Provider 用于从不同来源读取 AI 网关的 API Key。
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
	SourceAuto Source = "auto"
)
