package llmchain

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

type LLMChainNodeFactory struct{}

func NewLLMChainNodeFactory() protocol.NodeFactory {
	return &LLMChainNodeFactory{}
}

func (f *LLMChainNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return &LLMChainNode{}, nil
}

func (f *LLMChainNodeFactory) ID() string {
	return "llmChain"
}

func (f *LLMChainNodeFactory) Name() string {
	return "LLM Chain"
}

func (f *LLMChainNodeFactory) Description() string {
	return "Runs a prompt template against a chat model and returns the answer"
}

func (f *LLMChainNodeFactory) Category() models.Category {
	return models.CategoryChain
}

func (f *LLMChainNodeFactory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "LLM Chain",
		Properties: map[string]*models.Property{
			"model":  {Description: "Chat model, connect a chatOpenAI node"},
			"prompt": {Description: "Prompt, connect a promptTemplate node or write a template"},
			"cache":  {Type: "boolean", Description: "Cache answers in the shared cache", Default: false},
		},
		Required: []string{"model", "prompt"},
	}
}
