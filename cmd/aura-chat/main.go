package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/LubyRuffy/aurachat"
	"github.com/LubyRuffy/aurachat/backend"
	"github.com/LubyRuffy/aurachat/openaiapi"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultAgentName        = "aura"
	defaultAgentDescription = "AURA campus companion"
)

var (
	endpoint   string
	apiKey     string
	model      string
	input      string
	direct     bool
	flashcards bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "aura-chat",
	Short: "Chat with AURA from the terminal",
	Long: `aura-chat sends the conversation to an aura-chat relay and renders the reply as it streams.

Examples:
  # One question, then exit
  aura-chat --input "Explain recursion with flashcards" --flashcards

  # Interactive session against a local relay
  aura-chat --endpoint http://127.0.0.1:8080/functions/v1/aura-chat`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&endpoint, "endpoint", "http://127.0.0.1:8080"+aurachat.DefaultRelayBasePath+"/"+aurachat.RelayFunctionName, "aura-chat relay url")
	f.StringVar(&apiKey, "api-key", os.Getenv("AURA_CLIENT_KEY"), "bearer key sent to the relay")
	f.StringVar(&model, "model", "", "model id, empty lets the relay decide")
	f.StringVarP(&input, "input", "i", "", "single message; reads stdin line by line when empty")
	f.BoolVar(&direct, "direct", false, "drive the stream assembler directly instead of the eino agent runner")
	f.BoolVar(&flashcards, "flashcards", false, "print parsed flashcards after each reply")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// turnFunc 执行一轮对话，流式期间用完整内容回调 onUpdate，返回最终回复。
type turnFunc func(ctx context.Context, text string, onUpdate func(content string)) (string, error)

func runChat(cmd *cobra.Command, _ []string) error {
	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	if model != "" && !aurachat.IsSupportedModelID(model) {
		return fmt.Errorf("unsupported model: %s", model)
	}
	clientCfg := backend.ClientConfig{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Model:    aurachat.NormalizeModelID(model),
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var turn turnFunc
	var err error
	if direct {
		turn, err = newDirectTurn(clientCfg)
	} else {
		turn, err = newAgentTurn(ctx, clientCfg)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, backend.Greeting)
	fmt.Fprintln(out)

	if input != "" {
		chatOnce(ctx, out, turn, input)
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/exit" || text == "/quit" {
			return nil
		}
		chatOnce(ctx, out, turn, text)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func chatOnce(ctx context.Context, out io.Writer, turn turnFunc, text string) {
	r := newRenderer(out)
	reply, err := turn(ctx, text, r.Update)
	fmt.Fprintln(out)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		title, desc := backend.UserMessage(err)
		fmt.Fprintf(out, "[%s] %s\n", title, desc)
		return
	}
	if flashcards {
		printFlashcards(out, reply)
	}
	fmt.Fprintln(out)
}

// newDirectTurn 直接使用 Conversation + Client，失败时会话里不会残留半截回复。
func newDirectTurn(cfg backend.ClientConfig) (turnFunc, error) {
	client, err := backend.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	conv := backend.NewConversation()
	return func(ctx context.Context, text string, onUpdate func(string)) (string, error) {
		return conv.Turn(ctx, client, openaiapi.OpenAIMessage{Role: "user", Content: text}, onUpdate)
	}, nil
}

// newAgentTurn 通过 eino adk 的 Runner 驱动 backend.ChatModel，自己维护历史消息。
func newAgentTurn(ctx context.Context, cfg backend.ClientConfig) (turnFunc, error) {
	m, err := backend.NewChatModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("create model failed: %w", err)
	}
	agent, err := adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:        defaultAgentName,
		Description: defaultAgentDescription,
		Model:       m,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent failed: %w", err)
	}
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           agent,
		EnableStreaming: true,
	})

	history := []adk.Message{schema.AssistantMessage(backend.Greeting, nil)}
	return func(ctx context.Context, text string, onUpdate func(string)) (string, error) {
		msgs := append(append([]adk.Message{}, history...), schema.UserMessage(text))
		reply, err := runAgent(ctx, runner, msgs, onUpdate)
		if err != nil {
			return "", err
		}
		history = append(msgs, schema.AssistantMessage(reply, nil))
		return reply, nil
	}, nil
}

func runAgent(ctx context.Context, runner *adk.Runner, msgs []adk.Message, onUpdate func(string)) (string, error) {
	var sb strings.Builder
	iter := runner.Run(ctx, msgs)
	for {
		ev, ok := iter.Next()
		if !ok {
			break
		}
		if ev.Err != nil {
			return "", ev.Err
		}
		if ev.Output == nil || ev.Output.MessageOutput == nil {
			continue
		}
		mo := ev.Output.MessageOutput
		if !mo.IsStreaming {
			if mo.Message != nil && mo.Message.Content != "" {
				sb.WriteString(mo.Message.Content)
				onUpdate(sb.String())
			}
			continue
		}
		if mo.MessageStream == nil {
			continue
		}
		err := func() error {
			defer mo.MessageStream.Close()
			for {
				chunk, err := mo.MessageStream.Recv()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if chunk != nil && chunk.Content != "" {
					sb.WriteString(chunk.Content)
					onUpdate(sb.String())
				}
			}
		}()
		if err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
