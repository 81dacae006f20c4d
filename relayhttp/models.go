package relayhttp

import (
	"net/http"
	"time"

	"github.com/LubyRuffy/aurachat"
	"github.com/LubyRuffy/aurachat/openaiapi"
)

const modelOwner = "ai-gateway"

// handleModels 列出中继接受的模型，ID 带 aurachat.ModelNamespace，请求里的 model 可以直接用这些值。
func handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	presetModels := aurachat.PresetModels()
	modelsList := make([]openaiapi.OpenAIModel, 0, len(presetModels))
	now := time.Now().Unix()
	for _, m := range presetModels {
		modelsList = append(modelsList, openaiapi.OpenAIModel{
			ID:      m.ID,
			Object:  "model",
			Created: now,
			OwnedBy: modelOwner,
			Name:    m.Name,
		})
	}
	writeJSON(w, http.StatusOK, openaiapi.OpenAIModelList{
		Object: "list",
		Data:   modelsList,
	})
}
