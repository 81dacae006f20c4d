package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LubyRuffy/aurachat/openaiapi"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

// deltaEvent 构造网关风格的 chat.completion.chunk 事件。
func deltaEvent(t *testing.T, content string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion.chunk",
		"model":  "google/gemini-2.5-flash",
		"choices": []any{map[string]any{
			"index": 0,
			"delta": map[string]any{"role": "assistant", "content": content},
		}},
	})
	require.NoError(t, err)
	return append(append([]byte("data: "), data...), '\n', '\n')
}

func writeDeltas(t *testing.T, w http.ResponseWriter, deltas ...string) {
	t.Helper()
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	for _, delta := range deltas {
		_, _ = w.Write(deltaEvent(t, delta))
		if flusher != nil {
			flusher.Flush()
		}
	}
	_, _ = io.WriteString(w, "data: [DONE]\n\n")
}

func newStreamServer(t *testing.T, check func(r *http.Request, req openaiapi.OpenAIChatRequest), deltas ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiapi.OpenAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(r, req)
		}
		writeDeltas(t, w, deltas...)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSend_AssemblesStream(t *testing.T) {
	srv := newStreamServer(t, func(r *http.Request, req openaiapi.OpenAIChatRequest) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer pk_test", r.Header.Get("Authorization"))
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.True(t, req.Stream)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "user", req.Messages[1].Role)
	}, "Hel", "lo", " Rohan")

	client, err := NewClient(ClientConfig{Endpoint: srv.URL, APIKey: "pk_test", HTTPClient: srv.Client()})
	require.NoError(t, err)

	var updates []string
	content, err := client.Send(context.Background(), []openaiapi.OpenAIMessage{
		{Role: "assistant", Content: Greeting},
		{Role: "user", Content: "hi"},
	}, func(content string) {
		updates = append(updates, content)
	})
	require.NoError(t, err)
	require.Equal(t, "Hello Rohan", content)
	require.Equal(t, []string{"Hel", "Hello", "Hello Rohan"}, updates)
}

func TestClientSend_StatusErrors(t *testing.T) {
	cases := []struct {
		status    int
		wantErr   error
		wantTitle string
	}{
		{status: http.StatusTooManyRequests, wantErr: ErrRateLimited, wantTitle: "Rate limit exceeded"},
		{status: http.StatusPaymentRequired, wantErr: ErrCreditsExhausted, wantTitle: "Credits exhausted"},
		{status: http.StatusInternalServerError, wantErr: ErrChatFailed, wantTitle: "Error"},
		{status: http.StatusBadRequest, wantErr: ErrChatFailed, wantTitle: "Error"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"error":"nope"}`)
			}))
			t.Cleanup(srv.Close)

			client, err := NewClient(ClientConfig{Endpoint: srv.URL, HTTPClient: srv.Client()})
			require.NoError(t, err)

			called := false
			_, err = client.Send(context.Background(), []openaiapi.OpenAIMessage{{Role: "user", Content: "hi"}}, func(string) {
				called = true
			})
			require.ErrorIs(t, err, tc.wantErr)
			require.False(t, called)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			require.Equal(t, tc.status, statusErr.Status)
			require.Equal(t, `{"error":"nope"}`, statusErr.Message)

			title, desc := UserMessage(err)
			require.Equal(t, tc.wantTitle, title)
			require.NotEmpty(t, desc)
		})
	}
}

func TestClientSend_TransportErrorMidStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, buf, err := hj.Hijack()
		require.NoError(t, err)
		defer conn.Close()
		event := deltaEvent(t, "partial")
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nContent-Length: 4096\r\n\r\n")
		_, _ = buf.Write(event)
		_ = buf.Flush()
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{Endpoint: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	conv := NewConversation()
	var seen []string
	_, err = conv.Turn(context.Background(), client, openaiapi.OpenAIMessage{Role: "user", Content: "hi"}, func(content string) {
		seen = append(seen, content)
	})
	require.Error(t, err)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, []string{"partial"}, seen)

	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[1].Role)
}

func TestConversationTurn_Success(t *testing.T) {
	srv := newStreamServer(t, func(r *http.Request, req openaiapi.OpenAIChatRequest) {
		require.Len(t, req.Messages, 2)
		require.Equal(t, Greeting, openaiapi.MessageText(req.Messages[0].Content))
	}, "Take ", "a breath 🌙")

	client, err := NewClient(ClientConfig{Endpoint: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	conv := NewConversation()
	var lastSeen string
	content, err := conv.Turn(context.Background(), client, openaiapi.OpenAIMessage{Role: "user", Content: "I'm stressed"}, func(content string) {
		lastSeen = content
		msgs := conv.Messages()
		require.Equal(t, content, msgs[len(msgs)-1].Content)
	})
	require.NoError(t, err)
	require.Equal(t, "Take a breath 🌙", content)
	require.Equal(t, content, lastSeen)

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "assistant", msgs[2].Role)
	require.Equal(t, content, msgs[2].Content)

	// 已提交的回复不会被后续的 DiscardAssistant 删掉
	conv.DiscardAssistant()
	require.Len(t, conv.Messages(), 3)
}

func TestConversationTurn_RateLimitedLeavesNoPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{Endpoint: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	conv := NewConversation()
	_, err = conv.Turn(context.Background(), client, openaiapi.OpenAIMessage{Role: "user", Content: "hi"}, nil)
	require.ErrorIs(t, err, ErrRateLimited)
	msgs := conv.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[1].Role)
}

func TestChatModel_StreamEmitsDeltas(t *testing.T) {
	srv := newStreamServer(t, func(r *http.Request, req openaiapi.OpenAIChatRequest) {
		require.Equal(t, "google/gemini-2.5-pro", req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
	}, "a", "b", "c")

	m, err := NewChatModel(ClientConfig{Endpoint: srv.URL, Model: "google/gemini-2.5-pro", HTTPClient: srv.Client()})
	require.NoError(t, err)

	sr, err := m.Stream(context.Background(), []*schema.Message{
		schema.SystemMessage("be kind"),
		schema.UserMessage("hi"),
		nil,
	})
	require.NoError(t, err)
	defer sr.Close()

	var deltas []string
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		deltas = append(deltas, msg.Content)
	}
	require.Equal(t, []string{"a", "b", "c"}, deltas)
}

func TestChatModel_GenerateAndStatusError(t *testing.T) {
	srv := newStreamServer(t, nil, "pong")
	m, err := NewChatModel(ClientConfig{Endpoint: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("ping")})
	require.NoError(t, err)
	require.Equal(t, schema.Assistant, msg.Role)
	require.Equal(t, "pong", msg.Content)

	_, err = m.Generate(context.Background(), []*schema.Message{{Role: schema.User}})
	require.Error(t, err)

	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	t.Cleanup(limited.Close)
	m, err = NewChatModel(ClientConfig{Endpoint: limited.URL, HTTPClient: limited.Client()})
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("ping")})
	require.ErrorIs(t, err, ErrCreditsExhausted)
}

func TestChatModel_WithToolsForwardsFunctions(t *testing.T) {
	var got []openaiapi.OpenAITool
	srv := newStreamServer(t, func(r *http.Request, req openaiapi.OpenAIChatRequest) {
		got = req.Tools
	}, "ok")

	m, err := NewChatModel(ClientConfig{Endpoint: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	withTools, err := m.WithTools([]*schema.ToolInfo{
		{
			Name: "deadline_lookup",
			Desc: "look up upcoming deadlines",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"course": {Type: schema.String, Desc: "course code", Required: true},
			}),
		},
		{Name: " "},
		nil,
	})
	require.NoError(t, err)

	_, err = withTools.Generate(context.Background(), []*schema.Message{schema.UserMessage("deadlines?")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "function", got[0].Type)
	require.Equal(t, "deadline_lookup", got[0].Function.Name)
	require.Contains(t, got[0].Function.Parameters, "properties")

	// 原模型不受影响
	require.Empty(t, m.tools)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(ClientConfig{Endpoint: "  "})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "endpoint"))
}
