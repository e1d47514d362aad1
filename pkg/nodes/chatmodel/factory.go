package chatmodel

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

// ChatModelNodeFactory creates chatOpenAI nodes.
type ChatModelNodeFactory struct {
	apiKey    string
	construct Constructor
}

// NewChatModelNodeFactory creates the factory. apiKey is used when a node does not set one;
// a nil construct uses NewOpenAIModel.
func NewChatModelNodeFactory(apiKey string, construct Constructor) protocol.NodeFactory {
	if construct == nil {
		construct = NewOpenAIModel
	}

	return &ChatModelNodeFactory{apiKey: apiKey, construct: construct}
}

func (f *ChatModelNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return &ChatModelNode{apiKey: f.apiKey, construct: f.construct}, nil
}

func (f *ChatModelNodeFactory) ID() string {
	return "chatOpenAI"
}

func (f *ChatModelNodeFactory) Name() string {
	return "ChatOpenAI"
}

func (f *ChatModelNodeFactory) Description() string {
	return "OpenAI compatible chat model used by chains"
}

func (f *ChatModelNodeFactory) Category() models.Category {
	return models.CategoryLLM
}

func (f *ChatModelNodeFactory) Schema() *models.JSONSchema {
	minTemp, maxTemp := 0.0, 2.0
	minTokens := 1.0

	return &models.JSONSchema{
		Type:  "object",
		Title: "ChatOpenAI",
		Properties: map[string]*models.Property{
			"modelName":   {Type: "string", Default: defaultModel},
			"apiKey":      {Type: "string", Description: "API key, usually {{$vars.OPENAI_API_KEY}}"},
			"baseURL":     {Type: "string", Description: "Base URL of an OpenAI compatible API"},
			"temperature": {Type: "number", Minimum: &minTemp, Maximum: &maxTemp},
			"maxTokens":   {Type: "integer", Minimum: &minTokens},
		},
	}
}
