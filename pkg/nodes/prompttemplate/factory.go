package prompttemplate

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

type PromptTemplateNodeFactory struct{}

func NewPromptTemplateNodeFactory() protocol.NodeFactory {
	return &PromptTemplateNodeFactory{}
}

func (f *PromptTemplateNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return &PromptTemplateNode{}, nil
}

func (f *PromptTemplateNodeFactory) ID() string {
	return "promptTemplate"
}

func (f *PromptTemplateNodeFactory) Name() string {
	return "Prompt Template"
}

func (f *PromptTemplateNodeFactory) Description() string {
	return "Builds a chat prompt from a template with {placeholders} filled by prompt values and the question"
}

func (f *PromptTemplateNodeFactory) Category() models.Category {
	return models.CategoryPrompt
}

func (f *PromptTemplateNodeFactory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Prompt Template",
		Properties: map[string]*models.Property{
			"template": {
				Type:        "string",
				Description: "User message template, e.g. 'Answer {question} as {persona}'",
			},
			"systemMessage": {
				Type:        "string",
				Description: "Optional system message",
			},
			"promptValues": {
				Type:        "object",
				Description: "Values for the template placeholders. Values may reference other nodes.",
			},
		},
		Required: []string{"template"},
	}
}
