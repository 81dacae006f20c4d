package relayhttp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func tapDelta(content string) []byte {
	data, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": content}}},
	})
	return []byte("data: " + string(data) + "\n\n")
}

func TestStreamTap_Counts(t *testing.T) {
	tap := newStreamTap(0)
	tap.feed([]byte(": OPENROUTER PROCESSING\n\n"))
	tap.feed(tapDelta("你好"))
	tap.feed([]byte("data: [DONE]\n\n"))
	tap.finish()

	require.False(t, tap.abandoned)
	require.Equal(t, "你好", tap.asm.Content())
	require.Len(t, tap.fields(), 2)
}

func TestStreamTap_AbandonsAfterMalformedLine(t *testing.T) {
	const limit = 4 << 10
	tap := newStreamTap(limit)
	tap.feed([]byte("data: {broken\n"))

	event := tapDelta("x")
	for i := 0; i < 10000; i++ {
		tap.feed(event)
	}
	require.True(t, tap.abandoned)
	require.LessOrEqual(t, tap.asm.Buffered(), limit+len(event))

	tap.finish()
	require.Empty(t, tap.asm.Content())
	require.Len(t, tap.fields(), 1)
}

func TestStreamTap_ShortMalformedStreamStillFlushes(t *testing.T) {
	tap := newStreamTap(0)
	tap.feed([]byte("data: {broken\n" + strings.Repeat(string(tapDelta("a")), 3)))
	tap.finish()
	require.False(t, tap.abandoned)
	require.Equal(t, "aaa", tap.asm.Content())
}
