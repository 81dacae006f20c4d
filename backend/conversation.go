package backend

import (
	"context"
	"sync"

	"github.com/LubyRuffy/aurachat/openaiapi"
)

// Greeting 是新会话的第一条助手消息。
const Greeting = "Hi! I'm **AURA**, your AI campus companion. 🌱\n\n" +
	"I can help you with:\n" +
	"📚 Study plans & concept explanations\n" +
	"💼 Career guidance & placement prep\n" +
	"📝 Document generation (letters, certificates)\n" +
	"💪 Wellness check-ins & motivation\n" +
	"📅 Task planning & reminders\n\n" +
	"Try a quick action below or just tell me what's on your mind!"

// Conversation 保存一次聊天会话的消息列表。最后一条助手消息在流式输出期间会被反复整体替换。
type Conversation struct {
	mu       sync.Mutex
	messages []openaiapi.OpenAIMessage
	pending  bool
}

func NewConversation() *Conversation {
	return &Conversation{
		messages: []openaiapi.OpenAIMessage{{Role: "assistant", Content: Greeting}},
	}
}

// Messages 返回消息列表的拷贝。
func (c *Conversation) Messages() []openaiapi.OpenAIMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]openaiapi.OpenAIMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Append(msg openaiapi.OpenAIMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// BeginAssistant 追加一条空的助手消息作为占位。
func (c *Conversation) BeginAssistant() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, openaiapi.OpenAIMessage{Role: "assistant", Content: ""})
	c.pending = true
}

// UpdateAssistant 用完整内容替换占位消息；没有占位时忽略。
func (c *Conversation) UpdateAssistant(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending || len(c.messages) == 0 {
		return
	}
	c.messages[len(c.messages)-1] = openaiapi.OpenAIMessage{Role: "assistant", Content: content}
}

// DiscardAssistant 移除占位消息，用于本轮失败的情况。
func (c *Conversation) DiscardAssistant() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending || len(c.messages) == 0 {
		return
	}
	c.messages = c.messages[:len(c.messages)-1]
	c.pending = false
}

func (c *Conversation) commitAssistant() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
}

// Turn 发送一条用户消息并流式接收回复。失败时占位消息会被移除，不会留下半截回复。
func (c *Conversation) Turn(ctx context.Context, client *Client, user openaiapi.OpenAIMessage, onUpdate func(content string)) (string, error) {
	history := append(c.Messages(), user)
	c.Append(user)
	c.BeginAssistant()

	content, err := client.Send(ctx, history, func(content string) {
		c.UpdateAssistant(content)
		if onUpdate != nil {
			onUpdate(content)
		}
	})
	if err != nil {
		c.DiscardAssistant()
		return "", err
	}
	c.UpdateAssistant(content)
	c.commitAssistant()
	return content, nil
}
