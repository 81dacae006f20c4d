package openaiapi

import "strings"

// ==================== 请求结构 ====================

const (
	AttachmentTypeLink = "link"
	AttachmentTypeFile = "file"

	ContentPartText     = "text"
	ContentPartImageURL = "image_url"
)

// OpenAIAttachment 客户端随消息上传的附件，由中继展开后再转发给网关。
type OpenAIAttachment struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Data     string `json:"data,omitempty"` // data URL
	MimeType string `json:"mimeType,omitempty"`
}

// OpenAIMessage 消息格式。Content 可以是字符串，也可以是 []OpenAIContentPart（多模态）。
type OpenAIMessage struct {
	Role        string             `json:"role"`
	Content     any                `json:"content"`
	Attachments []OpenAIAttachment `json:"attachments,omitempty"`
}

// OpenAIContentPart 多模态内容片段。
type OpenAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *OpenAIImageURL `json:"image_url,omitempty"`
}

type OpenAIImageURL struct {
	URL string `json:"url"`
}

// OpenAITool 工具定义。
type OpenAITool struct {
	Type     string             `json:"type"`
	Function OpenAIToolFunction `json:"function"`
}

// OpenAIToolFunction 工具函数定义。
type OpenAIToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// OpenAIChatRequest 聊天请求。发给中继时 Model 可省略。
type OpenAIChatRequest struct {
	Model    string          `json:"model,omitempty"`
	Messages []OpenAIMessage `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
	Tools    []OpenAITool    `json:"tools,omitempty"`
}

// ==================== 模型列表 ====================

// OpenAIModel 模型信息。
type OpenAIModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Name    string `json:"name,omitempty"`
}

// OpenAIModelList 模型列表响应。
type OpenAIModelList struct {
	Object string        `json:"object"`
	Data   []OpenAIModel `json:"data"`
}

// ==================== 错误结构 ====================

// ErrorResponse 中继返回的错误体，例如 {"error":"Rate limit exceeded. ..."}。
type ErrorResponse struct {
	Error string `json:"error"`
}

// ==================== 辅助函数 ====================

// MessageText 取出消息内容中的纯文本部分，兼容字符串与多模态两种写法。
func MessageText(content any) string {
	switch value := content.(type) {
	case nil:
		return ""
	case string:
		return value
	case []OpenAIContentPart:
		var builder strings.Builder
		for _, part := range value {
			if part.Type == ContentPartText {
				builder.WriteString(part.Text)
			}
		}
		return builder.String()
	case []any:
		var builder strings.Builder
		for _, item := range value {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if partType, _ := part["type"].(string); partType != ContentPartText {
				continue
			}
			if text, ok := part["text"].(string); ok {
				builder.WriteString(text)
			}
		}
		return builder.String()
	default:
		return ""
	}
}
