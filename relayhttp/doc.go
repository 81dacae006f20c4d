// Package relayhttp 提供 aura-chat 中继：接收客户端的对话历史，展开附件、注入系统提示词后
// 以流式方式转发给 AI 网关，并把网关的 text/event-stream 响应原样回传。
//
// 该包对外只暴露：
// - net/http 形式的 handler
// - Gin 路由注册方法（含 CORS 预检）
//
// 网关 API Key 仅通过回调注入（APIKeyProvider），该包不会读取环境变量或本地文件。
//
// 使用示例：
//
//	// net/http
//	h, _ := relayhttp.Handler(relayhttp.Config{
//		APIKeyProvider: func(ctx context.Context) (string, error) { return apiKey, nil },
//	})
//	mux.HandleFunc("/functions/v1/aura-chat", h)
//
//	// gin
//	_ = relayhttp.RegisterGinRoutes(r, relayhttp.Config{
//		BasePath:       "/functions/v1",
//		APIKeyProvider: func(ctx context.Context) (string, error) { return apiKey, nil },
//	})
package relayhttp
