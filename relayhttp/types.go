package relayhttp

import (
	"context"
	"net/http"

	"github.com/LubyRuffy/aurachat/openaiapi"
	"go.uber.org/zap"
)

// APIKeyProvider 提供访问 AI 网关所需的 API Key。
type APIKeyProvider func(ctx context.Context) (apiKey string, err error)

type Config struct {
	// BasePath 仅用于 Gin 注册路由时拼接路径，默认 "/functions/v1"。
	BasePath string
	// GatewayURL AI 网关 chat completions 地址，默认 aurachat.DefaultGatewayURL。
	GatewayURL string
	// Model 转发时使用的模型，默认 aurachat.DefaultModelID；请求里带了受支持的 model 时以请求为准。
	Model string
	// HTTPClient 访问网关用，nil 时内部使用 &http.Client{}。
	HTTPClient *http.Client
	// FetchClient 抓取链接附件用，nil 时使用带超时的默认 client。
	FetchClient *http.Client
	// APIKeyProvider 为空或返回空值时，请求会以 500 失败。
	APIKeyProvider APIKeyProvider
	// SystemPrompt 为空时使用 DefaultSystemPrompt。
	SystemPrompt string
	// AllowOrigins CORS 允许的来源，为空或包含 "*" 时允许所有来源。
	AllowOrigins []string
	// MaxLinkChars 链接正文最多保留的字符数，默认 8000。
	MaxLinkChars int
	Logger       *zap.Logger
}

// relayRequest 是客户端发来的请求体。
type relayRequest struct {
	Messages []openaiapi.OpenAIMessage `json:"messages"`
	Model    string                    `json:"model,omitempty"`
}
