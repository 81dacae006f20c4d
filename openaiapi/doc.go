// Package openaiapi 提供 chat completions 接口（AI 网关与 aura-chat 中继共用）的数据结构与辅助函数。
//
// 该包只关注协议层：请求 JSON 结构（含多模态内容与附件）、模型列表、错误结构。
// 流式响应的事件不在这里建模，读取端用 sse 包按路径取 choices[0].delta.content。
package openaiapi
