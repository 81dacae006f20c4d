package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LubyRuffy/aurachat/openaiapi"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel 是基于 aura-chat 流式接口的 ToolCallingChatModel 实现。
type ChatModel struct {
	client *Client
	tools  []openaiapi.OpenAITool
}

func NewChatModel(config ClientConfig) (*ChatModel, error) {
	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ChatModel{client: client}, nil
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einoModel.Option) (*schema.Message, error) {
	content, err := m.client.send(ctx, m.buildRequest(input), nil)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream 每拿到一段增量就发出一条只含该增量的消息。
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(input)
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no valid messages to send")
	}

	sr, sw := schema.Pipe[*schema.Message](64)
	go func() {
		defer sw.Close()
		sent := 0
		_, err := m.client.send(ctx, req, func(content string) {
			if len(content) <= sent {
				return
			}
			delta := content[sent:]
			sent = len(content)
			sw.Send(&schema.Message{Role: schema.Assistant, Content: delta}, nil)
		})
		if err != nil {
			sw.Send(nil, err)
		}
	}()
	return sr, nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (einoModel.ToolCallingChatModel, error) {
	converted, err := openAIToolsFromToolInfos(tools)
	if err != nil {
		return nil, err
	}
	cloned := *m
	cloned.tools = converted
	return &cloned, nil
}

func (m *ChatModel) buildRequest(input []*schema.Message) openaiapi.OpenAIChatRequest {
	messages := make([]openaiapi.OpenAIMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil || msg.Role == schema.Tool {
			continue
		}
		content := resolveMessageContent(msg)
		if content == "" {
			continue
		}
		messages = append(messages, openaiapi.OpenAIMessage{
			Role:    string(msg.Role),
			Content: content,
		})
	}
	return openaiapi.OpenAIChatRequest{
		Model:    m.client.config.Model,
		Messages: messages,
		Stream:   true,
		Tools:    m.tools,
	}
}

func resolveMessageContent(msg *schema.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	if len(msg.UserInputMultiContent) > 0 {
		var builder strings.Builder
		for _, part := range msg.UserInputMultiContent {
			if part.Type == schema.ChatMessagePartTypeText {
				builder.WriteString(part.Text)
			}
		}
		return builder.String()
	}
	return ""
}

func openAIToolsFromToolInfos(tools []*schema.ToolInfo) ([]openaiapi.OpenAITool, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	out := make([]openaiapi.OpenAITool, 0, len(tools))
	for _, tool := range tools {
		if tool == nil || strings.TrimSpace(tool.Name) == "" {
			continue
		}
		fn := openaiapi.OpenAIToolFunction{
			Name:        strings.TrimSpace(tool.Name),
			Description: tool.Desc,
		}
		if tool.ParamsOneOf != nil {
			js, err := tool.ParamsOneOf.ToJSONSchema()
			if err != nil {
				return nil, fmt.Errorf("failed to convert parameters of tool %s: %w", fn.Name, err)
			}
			if js != nil {
				raw, err := json.Marshal(js)
				if err != nil {
					return nil, fmt.Errorf("failed to encode parameters of tool %s: %w", fn.Name, err)
				}
				if err := json.Unmarshal(raw, &fn.Parameters); err != nil {
					return nil, fmt.Errorf("failed to decode parameters of tool %s: %w", fn.Name, err)
				}
			}
		}
		out = append(out, openaiapi.OpenAITool{Type: "function", Function: fn})
	}
	return out, nil
}
