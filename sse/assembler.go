package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
	deltaPath    = "choices.0.delta.content"

	readChunkSize = 4 << 10
)

// UpdateFunc 在每次拿到非空增量后被调用，参数是到目前为止的完整内容（不是增量本身），
// 调用方应整体替换而不是追加。
type UpdateFunc func(content string)

// State 是 Assembler 的流状态快照。
type State struct {
	// Buffer 是已解码但还没切成完整行的文本。
	Buffer string
	// Done 表示已经看到 [DONE]。
	Done bool
	// Exhausted 表示上游已读完并做过收尾处理。
	Exhausted bool
}

// ErrStopped 表示调用方通过 Stop 放弃了这条流，Consume 不再继续读取。
var ErrStopped = errors.New("sse: stream stopped")

// Assembler 组装一次聊天回复的事件流。每轮对话独占一个 Assembler，不支持并发 Feed。
type Assembler struct {
	onUpdate UpdateFunc
	dec      *textDecoder

	buffer []byte
	// stuck 表示 buffer 开头是一条完整但 JSON 解析失败的 data 行。
	// 这一行的内容不会再变，Finish 之前后续数据只追加不再切行。
	stuck bool

	content   strings.Builder
	done      bool
	exhausted bool
	updates   int

	stopped atomic.Bool
}

func NewAssembler(onUpdate UpdateFunc) *Assembler {
	return &Assembler{
		onUpdate: onUpdate,
		dec:      newTextDecoder(),
	}
}

// Feed 处理一次读到的原始数据块。看到 [DONE] 之后再 Feed 不会有任何效果。
func (a *Assembler) Feed(chunk []byte) {
	a.feed(context.Background(), chunk)
}

func (a *Assembler) feed(ctx context.Context, chunk []byte) {
	if a.done || a.exhausted || a.stopped.Load() {
		return
	}
	a.buffer = append(a.buffer, a.dec.decode(chunk, false)...)
	if a.stuck {
		return
	}

	for !a.stopped.Load() {
		idx := bytes.IndexByte(a.buffer, '\n')
		if idx < 0 {
			return
		}
		line := string(a.buffer[:idx])

		payload, ok := eventPayload(line)
		if ok && payload == doneSentinel {
			// [DONE] 是硬结束，缓冲区里剩下的内容直接丢弃
			a.done = true
			a.buffer = nil
			return
		}
		if ok && !gjson.Valid(payload) {
			// 这一行留在缓冲区里，等 Finish 时再处理
			a.stuck = true
			return
		}
		a.buffer = a.buffer[idx+1:]
		if ok {
			a.appendDelta(ctx, payload)
		}
	}
}

// Finish 在上游读完后调用：把缓冲区剩余内容按行再过一遍，解析失败的行直接忽略。
// 这一阶段遇到 [DONE] 同样是硬结束：不会跳过它继续解析后面的行，和流式阶段的规则一致。
// 已看到 [DONE] 时什么都不做。可重复调用。
func (a *Assembler) Finish() {
	a.finish(context.Background())
}

func (a *Assembler) finish(ctx context.Context) {
	if a.exhausted {
		return
	}
	a.exhausted = true
	if a.done || a.stopped.Load() {
		return
	}

	rest := string(a.buffer) + a.dec.decode(nil, true)
	a.buffer = nil
	a.stuck = false
	if strings.TrimSpace(rest) == "" {
		return
	}
	for _, line := range strings.Split(rest, "\n") {
		if a.stopped.Load() {
			return
		}
		payload, ok := eventPayload(line)
		if !ok {
			continue
		}
		if payload == doneSentinel {
			a.done = true
			return
		}
		if !gjson.Valid(payload) {
			continue
		}
		a.appendDelta(ctx, payload)
	}
}

// Consume 循环读取 r 直到看到 [DONE]、读完或出错。
// ctx 结束后不再读取也不再回调，返回 ctx.Err()；Stop 之后同样不再读取，返回 ErrStopped。
// 读错误原样返回，由调用方丢弃本轮未完成的消息。
func (a *Assembler) Consume(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readChunkSize)
	for !a.done {
		if err := a.interrupted(ctx); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if ierr := a.interrupted(ctx); ierr != nil {
			return ierr
		}
		if n > 0 {
			a.feed(ctx, buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.finish(ctx)
				return a.interrupted(ctx)
			}
			return err
		}
	}
	return nil
}

func (a *Assembler) interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		a.Stop()
		return err
	}
	if a.stopped.Load() {
		return ErrStopped
	}
	return nil
}

// Stop 表示调用方不再关心这条流，之后不会再有回调，Consume 也不会再发起读取。
// 可以在其他 goroutine 调用；正阻塞在 Read 上的 Consume 会在这次 Read 返回后退出。
func (a *Assembler) Stop() {
	a.stopped.Store(true)
}

// Content 返回当前已组装的内容。
func (a *Assembler) Content() string {
	return a.content.String()
}

// Done 表示流已经结束：看到了 [DONE]，或者上游已读完。
func (a *Assembler) Done() bool {
	return a.done || a.exhausted
}

// Updates 返回回调次数。
func (a *Assembler) Updates() int {
	return a.updates
}

// Buffered 返回缓冲区里尚未切出的字节数。
func (a *Assembler) Buffered() int {
	return len(a.buffer)
}

func (a *Assembler) State() State {
	return State{Buffer: string(a.buffer), Done: a.done, Exhausted: a.exhausted}
}

func (a *Assembler) appendDelta(ctx context.Context, payload string) {
	delta := gjson.Get(payload, deltaPath)
	if delta.Type != gjson.String || delta.Str == "" {
		return
	}
	a.content.WriteString(delta.Str)
	a.emit(ctx)
}

func (a *Assembler) emit(ctx context.Context) {
	if ctx.Err() != nil {
		a.Stop()
	}
	if a.stopped.Load() || a.onUpdate == nil {
		return
	}
	a.updates++
	a.onUpdate(a.content.String())
}

// eventPayload 取出 `data: ` 行的负载。空行、注释行、非 data 行以及没有负载的 data 行返回 false。
func eventPayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" {
		return "", false
	}
	return payload, true
}
