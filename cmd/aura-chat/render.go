package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/LubyRuffy/aurachat/flashcard"
)

// renderer 把逐次增长的完整回复写到终端，只输出新增的部分。
type renderer struct {
	w       io.Writer
	printed string
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w}
}

func (r *renderer) Update(content string) {
	if !strings.HasPrefix(content, r.printed) {
		// 内容只追加不改写，走到这里说明上游换了一条回复，整体重画
		fmt.Fprint(r.w, "\n")
		r.printed = ""
	}
	fmt.Fprint(r.w, content[len(r.printed):])
	r.printed = content
}

func printFlashcards(w io.Writer, content string) {
	cards := flashcard.Parse(content)
	if len(cards) == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- %d flashcard(s) ---\n", len(cards))
	for i, c := range cards {
		fmt.Fprintf(w, "[%d] Q: %s\n", i+1, c.Front)
		for _, line := range c.Back {
			fmt.Fprintf(w, "    - %s\n", line)
		}
	}
}
