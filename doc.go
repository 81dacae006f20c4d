// Package aurachat 是校园陪伴助手 AURA 的聊天核心。
//
// 该仓库主要包含以下能力：
//  1. sse：把任意切分的 text/event-stream 响应体组装成持续增长的助手消息
//  2. backend：调用聊天中继（或直接调用 AI 网关）的客户端，以及可供 Eino/ADK 使用的 ChatModel
//  3. relayhttp：aura-chat 中继，负责附件展开、系统提示词注入与网关流式转发
//  4. flashcard：从助手回复中提取闪卡
package aurachat
