package relayhttp

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/LubyRuffy/aurachat/openaiapi"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	linkUserAgent       = "Mozilla/5.0 (compatible; AuraBot/1.0)"
	defaultMaxLinkChars = 8000
	maxLinkBodyBytes    = 2 << 20
	expandConcurrency   = 4
)

type attachmentExpander struct {
	client   *http.Client
	maxChars int
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

func newAttachmentExpander(client *http.Client, maxChars int, logger *zap.Logger) *attachmentExpander {
	if maxChars <= 0 {
		maxChars = defaultMaxLinkChars
	}
	return &attachmentExpander{
		client:   client,
		maxChars: maxChars,
		policy:   bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true),
		logger:   logger,
	}
}

// expandMessages 并发展开每条消息的附件，返回顺序与输入一致，返回的消息不再带 attachments。
func (e *attachmentExpander) expandMessages(ctx context.Context, messages []openaiapi.OpenAIMessage) ([]openaiapi.OpenAIMessage, error) {
	out := make([]openaiapi.OpenAIMessage, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(expandConcurrency)
	for i := range messages {
		i := i
		g.Go(func() error {
			out[i] = e.expandMessage(gctx, messages[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *attachmentExpander) expandMessage(ctx context.Context, msg openaiapi.OpenAIMessage) openaiapi.OpenAIMessage {
	if len(msg.Attachments) == 0 {
		return openaiapi.OpenAIMessage{Role: msg.Role, Content: msg.Content}
	}

	var builder strings.Builder
	builder.WriteString("\n\n[Attachments:\n")
	var images []openaiapi.OpenAIContentPart
	for _, att := range msg.Attachments {
		switch att.Type {
		case openaiapi.AttachmentTypeLink:
			builder.WriteString(e.describeLink(ctx, att.URL))
		case openaiapi.AttachmentTypeFile:
			if strings.HasPrefix(att.MimeType, "image/") {
				images = append(images, openaiapi.OpenAIContentPart{
					Type:     openaiapi.ContentPartImageURL,
					ImageURL: &openaiapi.OpenAIImageURL{URL: att.Data},
				})
				fmt.Fprintf(&builder, "- Image: %s\n", att.Name)
			} else {
				fmt.Fprintf(&builder, "- File: %s (%s)\n", att.Name, att.MimeType)
			}
		}
	}
	builder.WriteString("]")

	text := openaiapi.MessageText(msg.Content) + builder.String()
	if len(images) == 0 {
		return openaiapi.OpenAIMessage{Role: msg.Role, Content: text}
	}
	parts := make([]openaiapi.OpenAIContentPart, 0, len(images)+1)
	parts = append(parts, openaiapi.OpenAIContentPart{Type: openaiapi.ContentPartText, Text: text})
	parts = append(parts, images...)
	return openaiapi.OpenAIMessage{Role: msg.Role, Content: parts}
}

// describeLink 抓取链接正文，失败时只留下说明，不影响整个请求。
func (e *attachmentExpander) describeLink(ctx context.Context, url string) string {
	log := e.logger.With(zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Warn("invalid link attachment", zap.Error(err))
		return fmt.Sprintf("- Link: %s (Error fetching content)\n", url)
	}
	req.Header.Set("User-Agent", linkUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		log.Warn("fetch link attachment failed", zap.Error(err))
		return fmt.Sprintf("- Link: %s (Error fetching content)\n", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn("fetch link attachment rejected", zap.Int("status", resp.StatusCode))
		return fmt.Sprintf("- Link: %s (Failed to fetch: %d)\n", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLinkBodyBytes))
	if err != nil {
		log.Warn("read link attachment failed", zap.Error(err))
		return fmt.Sprintf("- Link: %s (Error fetching content)\n", url)
	}
	log.Debug("link attachment fetched", zap.Int("bytes", len(body)))
	return fmt.Sprintf("- Link: %s\n  Content:\n%s\n\n", url, e.htmlToText(string(body)))
}

// htmlToText 去掉标签（script/style 连同内容一起去掉），合并空白并截断到 maxChars 个字符。
func (e *attachmentExpander) htmlToText(doc string) string {
	text := html.UnescapeString(e.policy.Sanitize(doc))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > e.maxChars {
		text = string(runes[:e.maxChars])
	}
	return text
}
