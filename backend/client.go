package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/LubyRuffy/aurachat/openaiapi"
	"github.com/LubyRuffy/aurachat/sse"
	"go.uber.org/zap"
)

// ClientConfig 配置聊天客户端。Endpoint 既可以是 aura-chat 中继，也可以直接是网关的 chat completions 地址。
type ClientConfig struct {
	Endpoint string
	// APIKey 放在 Authorization: Bearer 中；中继场景下是 publishable key，可为空。
	APIKey string
	// Model 可选；为空时由中继决定。
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client 发起流式聊天请求并把事件流组装成助手回复。
type Client struct {
	config ClientConfig
}

func NewClient(config ClientConfig) (*Client, error) {
	if strings.TrimSpace(config.Endpoint) == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Client{config: config}, nil
}

// Send 把完整对话历史发给上游，每拿到一段增量就用完整内容回调 onUpdate，返回最终回复。
//
// 429/402 分别返回 ErrRateLimited/ErrCreditsExhausted，其余非 2xx 返回包装了 ErrChatFailed 的 *StatusError。
// 读流中途出错时返回错误，调用方应丢弃本轮未完成的消息。
func (c *Client) Send(ctx context.Context, messages []openaiapi.OpenAIMessage, onUpdate sse.UpdateFunc) (string, error) {
	return c.send(ctx, openaiapi.OpenAIChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   true,
	}, onUpdate)
}

func (c *Client) send(ctx context.Context, payload openaiapi.OpenAIChatRequest, onUpdate sse.UpdateFunc) (string, error) {
	if len(payload.Messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if key := strings.TrimSpace(c.config.APIKey); key != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", key))
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		statusErr := newStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
		c.config.Logger.Warn("chat request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", statusErr.Message),
		)
		return "", statusErr
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return "", fmt.Errorf("%w: no response body", ErrChatFailed)
	}

	assembler := sse.NewAssembler(onUpdate)
	if err := assembler.Consume(ctx, resp.Body); err != nil {
		return "", fmt.Errorf("chat stream interrupted: %w", err)
	}
	c.config.Logger.Debug("chat stream finished",
		zap.Bool("sentinel", assembler.State().Done),
		zap.Int("updates", assembler.Updates()),
		zap.Int("length", len(assembler.Content())),
	)
	return assembler.Content(), nil
}
