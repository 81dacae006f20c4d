// Package sse 把 chat completions 的 text/event-stream 响应体组装成持续增长的助手消息。
//
// 上游按 `data: <json>\n` 逐行推送增量，`data: [DONE]` 表示正常结束，`:` 开头的行是注释，
// 空行是事件分隔。网络读到的每一块数据都不保证落在行或事件边界上，Assembler 负责缓冲、
// 切行、解析与拼接，并在每次拿到非空增量后把“当前完整内容”回调给调用方。
//
//	a := sse.NewAssembler(func(content string) {
//		// 用 content 整体替换界面上的最后一条消息
//	})
//	if err := a.Consume(ctx, resp.Body); err != nil {
//		// 丢弃本轮未完成的消息
//	}
package sse
