package aurachat

import "strings"

const (
	// DefaultGatewayURL 是 AI 网关 chat completions 接口的默认地址。
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	// DefaultModelID 是中继转发时默认使用的模型。
	DefaultModelID = "google/gemini-2.5-flash"

	// DefaultRelayBasePath 与 RelayFunctionName 组成中继的默认路由 /functions/v1/aura-chat。
	DefaultRelayBasePath = "/functions/v1"
	RelayFunctionName    = "aura-chat"

	// ModelNamespace 是对外暴露的命名空间，客户端可带可不带。
	ModelNamespace = "aura/"
)

type PresetModel struct {
	ID   string
	Name string
}

// 顺序即中继 GET {base}/models 的输出顺序，默认模型放第一位。
var presetModels = []PresetModel{
	{ID: DefaultModelID, Name: "Gemini 2.5 Flash"},
	{ID: "google/gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
	{ID: "google/gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite"},
	{ID: "openai/gpt-5", Name: "GPT-5"},
	{ID: "openai/gpt-5-mini", Name: "GPT-5 Mini"},
	{ID: "openai/gpt-5-nano", Name: "GPT-5 Nano"},
}

// PresetModels 返回网关支持的模型列表，返回的 ID 使用 ModelNamespace。
func PresetModels() []PresetModel {
	out := make([]PresetModel, 0, len(presetModels))
	for _, m := range presetModels {
		out = append(out, PresetModel{ID: ModelNamespace + m.ID, Name: m.Name})
	}
	return out
}

// NormalizeModelID 去掉 ModelNamespace，还原为网关需要的真实 ID。
func NormalizeModelID(modelID string) string {
	trimmed := strings.TrimSpace(modelID)
	return strings.TrimPrefix(trimmed, ModelNamespace)
}

// IsSupportedModelID 判断是否为受支持的模型 ID（支持带 namespace 的写法）。
func IsSupportedModelID(modelID string) bool {
	normalized := NormalizeModelID(modelID)
	if normalized == "" {
		return false
	}
	for _, m := range presetModels {
		if m.ID == normalized {
			return true
		}
	}
	return false
}
