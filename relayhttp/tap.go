package relayhttp

import (
	"github.com/LubyRuffy/aurachat/sse"
	"go.uber.org/zap"
)

const tapBufferLimit = 64 << 10

// streamTap 旁路组装转发中的事件流，只用于日志。
// 上游出现一条坏行后 Assembler 会一直缓存到流结束，超过 limit 就放弃统计，转发本身不受影响。
type streamTap struct {
	asm       *sse.Assembler
	limit     int
	abandoned bool
}

func newStreamTap(limit int) *streamTap {
	if limit <= 0 {
		limit = tapBufferLimit
	}
	return &streamTap{asm: sse.NewAssembler(nil), limit: limit}
}

func (t *streamTap) feed(p []byte) {
	if t.abandoned {
		return
	}
	t.asm.Feed(p)
	if t.asm.Buffered() > t.limit {
		t.asm.Stop()
		t.abandoned = true
	}
}

func (t *streamTap) finish() {
	if !t.abandoned {
		t.asm.Finish()
	}
}

func (t *streamTap) fields() []zap.Field {
	if t.abandoned {
		return []zap.Field{zap.Bool("tap_abandoned", true)}
	}
	return []zap.Field{
		zap.Int("chars", len([]rune(t.asm.Content()))),
		zap.Bool("sentinel", t.asm.State().Done),
	}
}
