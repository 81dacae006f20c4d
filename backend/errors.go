package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited 对应上游 429，不自动重试。
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrCreditsExhausted 对应上游 402。
	ErrCreditsExhausted = errors.New("credits exhausted")
	// ErrChatFailed 是其余非 2xx 状态以及无响应体的情况。
	ErrChatFailed = errors.New("failed to start chat stream")
)

// StatusError 描述一次非 2xx 响应。
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	switch {
	case msg != "" && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %s", e.Err.Error(), e.Status, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s (status %d)", e.Err.Error(), e.Status)
	default:
		return fmt.Sprintf("chat request failed with status %d: %s", e.Status, msg)
	}
}

func (e *StatusError) Unwrap() error { return e.Err }

func newStatusError(status int, body string) *StatusError {
	var kind error
	switch status {
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusPaymentRequired:
		kind = ErrCreditsExhausted
	default:
		kind = ErrChatFailed
	}
	return &StatusError{Status: status, Message: body, Err: kind}
}

// UserMessage 把错误翻译为展示给用户的标题与描述，限流与额度不足各自有独立文案。
func UserMessage(err error) (title, description string) {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded", "Please wait a moment before sending another message."
	case errors.Is(err, ErrCreditsExhausted):
		return "Credits exhausted", "Please add credits to continue using AURA."
	default:
		return "Error", "Failed to get response from AURA. Please try again."
	}
}
