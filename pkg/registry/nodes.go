package registry

import (
	"net/http"

	"github.com/dukex/updlflow/pkg/nodes/arscene"
	"github.com/dukex/updlflow/pkg/nodes/chatmodel"
	"github.com/dukex/updlflow/pkg/nodes/httprequest"
	"github.com/dukex/updlflow/pkg/nodes/llmchain"
	"github.com/dukex/updlflow/pkg/nodes/log"
	"github.com/dukex/updlflow/pkg/nodes/prompttemplate"
	"github.com/dukex/updlflow/pkg/nodes/transform"
	"github.com/dukex/updlflow/pkg/nodes/updl"
)

// NodeDeps are the process wide dependencies of the built-in nodes.
type NodeDeps struct {
	// OpenAIAPIKey is used by chat model nodes that do not set their own key.
	OpenAIAPIKey string
	// HTTPClient backs httpRequest nodes; nil uses a client with no timeout.
	HTTPClient *http.Client
	// ChatModel builds chat model clients; nil uses the OpenAI client.
	ChatModel chatmodel.Constructor
}

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes(deps NodeDeps) {
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	construct := deps.ChatModel
	if construct == nil {
		construct = chatmodel.NewOpenAIModel
	}

	// Utility and tool nodes
	r.RegisterNode(log.NewLogNodeFactory())
	r.RegisterNode(transform.NewTransformNodeFactory())
	r.RegisterNode(httprequest.NewHTTPRequestNodeFactory(client))

	// Text flows
	r.RegisterNode(prompttemplate.NewPromptTemplateNodeFactory())
	r.RegisterNode(chatmodel.NewChatModelNodeFactory(deps.OpenAIAPIKey, construct))
	r.RegisterNode(llmchain.NewLLMChainNodeFactory())

	// UPDL and AR flows
	r.RegisterNode(updl.NewObjectNodeFactory())
	r.RegisterNode(updl.NewCameraNodeFactory())
	r.RegisterNode(updl.NewLightNodeFactory())
	r.RegisterNode(updl.NewSceneNodeFactory())
	r.RegisterNode(arscene.NewARSceneNodeFactory())
}
