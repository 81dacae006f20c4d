package relayhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LubyRuffy/aurachat"
	"github.com/LubyRuffy/aurachat/openaiapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-Id"

	msgRateLimited      = "Rate limit exceeded. Please try again in a moment."
	msgCreditsExhausted = "AI credits exhausted. Please add credits to your workspace."
	msgKeyMissing       = "gateway API key not configured"

	defaultFetchTimeout = 15 * time.Second
	relayReadSize       = 4 << 10
)

// Handler 返回 aura-chat 中继的 http.HandlerFunc。
func Handler(cfg Config) (http.HandlerFunc, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	h := &relayHandler{
		config:   resolved,
		expander: newAttachmentExpander(resolved.FetchClient, resolved.MaxLinkChars, resolved.Logger),
	}
	return h.handleChat, nil
}

type resolvedConfig struct {
	GatewayURL     string
	Model          string
	HTTPClient     *http.Client
	FetchClient    *http.Client
	APIKeyProvider APIKeyProvider
	SystemPrompt   string
	MaxLinkChars   int
	Logger         *zap.Logger
}

func resolveConfig(cfg Config) (resolvedConfig, error) {
	gatewayURL := strings.TrimSpace(cfg.GatewayURL)
	if gatewayURL == "" {
		gatewayURL = aurachat.DefaultGatewayURL
	}

	model := aurachat.NormalizeModelID(cfg.Model)
	if model == "" {
		model = aurachat.DefaultModelID
	}
	if !aurachat.IsSupportedModelID(model) {
		return resolvedConfig{}, fmt.Errorf("unsupported model: %s", cfg.Model)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	fetchClient := cfg.FetchClient
	if fetchClient == nil {
		fetchClient = &http.Client{Timeout: defaultFetchTimeout}
	}

	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return resolvedConfig{
		GatewayURL:     gatewayURL,
		Model:          model,
		HTTPClient:     client,
		FetchClient:    fetchClient,
		APIKeyProvider: cfg.APIKeyProvider,
		SystemPrompt:   prompt,
		MaxLinkChars:   cfg.MaxLinkChars,
		Logger:         logger,
	}, nil
}

type relayHandler struct {
	config   resolvedConfig
	expander *attachmentExpander
}

func (h *relayHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(requestIDHeader, requestID)
	log := h.config.Logger.With(zap.String("request_id", requestID))

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}

	apiKey, err := h.apiKey(r.Context())
	if err != nil {
		log.Error("gateway api key unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgKeyMissing)
		return
	}

	messages, err := h.expander.expandMessages(r.Context(), req.Messages)
	if err != nil {
		log.Warn("expand attachments aborted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	model := h.config.Model
	if aurachat.IsSupportedModelID(req.Model) {
		model = aurachat.NormalizeModelID(req.Model)
	}
	payload := openaiapi.OpenAIChatRequest{
		Model:    model,
		Messages: append([]openaiapi.OpenAIMessage{{Role: "system", Content: h.config.SystemPrompt}}, messages...),
		Stream:   true,
	}

	resp, err := h.forward(r.Context(), apiKey, payload)
	if err != nil {
		log.Error("gateway request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Warn("gateway rate limited")
		writeError(w, http.StatusTooManyRequests, msgRateLimited)
		return
	case resp.StatusCode == http.StatusPaymentRequired:
		log.Warn("gateway credits exhausted")
		writeError(w, http.StatusPaymentRequired, msgCreditsExhausted)
		return
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		log.Error("gateway error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(body))),
		)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("AI Gateway error: %d", resp.StatusCode))
		return
	}

	log.Info("relaying chat stream",
		zap.String("model", model),
		zap.Int("messages", len(payload.Messages)),
	)
	h.relayStream(w, resp.Body, log)
}

func (h *relayHandler) apiKey(ctx context.Context) (string, error) {
	if h.config.APIKeyProvider == nil {
		return "", errors.New("no api key provider")
	}
	key, err := h.config.APIKeyProvider(ctx)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("empty api key")
	}
	return key, nil
}

func (h *relayHandler) forward(ctx context.Context, apiKey string, payload openaiapi.OpenAIChatRequest) (*http.Response, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.GatewayURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	return h.config.HTTPClient.Do(req)
}

// relayStream 把网关响应体原样写回客户端，每读到一块就 flush；
// 同时用 streamTap 旁路统计组装结果，只用于日志。
func (h *relayHandler) relayStream(w http.ResponseWriter, body io.Reader, log *zap.Logger) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	tap := newStreamTap(tapBufferLimit)
	buf := make([]byte, relayReadSize)
	var written int64
	for {
		n, err := body.Read(buf)
		if n > 0 {
			tap.feed(buf[:n])
			if _, werr := w.Write(buf[:n]); werr != nil {
				log.Warn("client went away", zap.Error(werr))
				return
			}
			written += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("gateway stream interrupted", zap.Error(err), zap.Int64("bytes", written))
				return
			}
			break
		}
	}
	tap.finish()
	log.Info("chat stream relayed", append([]zap.Field{zap.Int64("bytes", written)}, tap.fields()...)...)
}
