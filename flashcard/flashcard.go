// Package flashcard 从助手回复里提取闪卡。
//
// 助手按如下格式输出闪卡，每张卡从标题开始，到下一张卡的标题（或文本末尾）结束：
//
//	**Flashcard 1: What is a BST?**
//	- A binary tree
//	- Left < node < right
package flashcard

import (
	"regexp"
	"strings"
)

var (
	headerPattern = regexp.MustCompile(`\*\*Flashcard \d+:(.*?)\*\*`)
	bulletPrefix  = regexp.MustCompile(`^[*\-]\s*`)
)

// Card 是一张闪卡：正面是问题，背面是若干要点。
type Card struct {
	Front string   `json:"front"`
	Back  []string `json:"back"`
}

// Parse 提取 content 中的闪卡。没有正面或没有要点的卡会被丢弃；一张都没有时返回 nil。
func Parse(content string) []Card {
	matches := headerPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	var cards []Card
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		front := strings.TrimSpace(content[m[2]:m[3]])
		back := backLines(content[m[1]:end])
		if front == "" || len(back) == 0 {
			continue
		}
		cards = append(cards, Card{Front: front, Back: back})
	}
	return cards
}

func backLines(body string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "-") {
			continue
		}
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
