// Package prompttemplate provides a node that builds chat prompts for downstream chains.
package prompttemplate

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

// HistoryKey is the template key receiving prior conversation messages.
const HistoryKey = "history"

// Config is the resolved configuration of a prompt template node.
type Config struct {
	Template      string         `json:"template"`
	SystemMessage string         `json:"systemMessage,omitempty"`
	PromptValues  map[string]any `json:"promptValues,omitempty"`
}

// Prompt is the output of a prompt template node. Templates use {name}
// placeholders; {question} is always available.
type Prompt struct {
	Template string
	Values   map[string]any

	tmpl prompt.ChatTemplate
}

// NewPrompt compiles a prompt from a system message and a user template.
func NewPrompt(cfg Config) *Prompt {
	messages := make([]schema.MessagesTemplate, 0, 3)
	if cfg.SystemMessage != "" {
		messages = append(messages, schema.SystemMessage(cfg.SystemMessage))
	}

	messages = append(messages,
		schema.MessagesPlaceholder(HistoryKey, true),
		schema.UserMessage(cfg.Template),
	)

	values := map[string]any{}
	if cfg.PromptValues != nil {
		values = maps.Clone(cfg.PromptValues)
	}

	return &Prompt{
		Template: cfg.Template,
		Values:   values,
		tmpl:     prompt.FromMessages(schema.FString, messages...),
	}
}

// Format renders the prompt. The question and history fill the matching keys
// unless the prompt values already set them.
func (p *Prompt) Format(ctx context.Context, question string, history []*schema.Message) ([]*schema.Message, error) {
	values := map[string]any{"question": question}
	maps.Copy(values, p.Values)

	for key, value := range values {
		if _, ok := value.(string); !ok {
			values[key] = fmt.Sprint(value)
		}
	}

	values[HistoryKey] = history

	messages, err := p.tmpl.Format(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("failed to format prompt: %w", err)
	}

	return messages, nil
}

// HistoryMessages converts stored chat history into model messages.
func HistoryMessages(history []models.HistoryMessage) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history))

	for _, msg := range history {
		if msg.Role == models.RoleAPI {
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		} else {
			messages = append(messages, schema.UserMessage(msg.Content))
		}
	}

	return messages
}

type PromptTemplateNode struct{}

func (n *PromptTemplateNode) Init(_ context.Context, data *models.NodeData, _ string, _ *protocol.Options) (any, error) {
	var cfg Config
	if err := models.DecodeInputs(data.Inputs, &cfg); err != nil {
		return nil, err
	}

	if cfg.Template == "" {
		return nil, errors.New("missing required field 'template'")
	}

	return NewPrompt(cfg), nil
}

// Run formats the prompt with the request question and returns the user message text.
func (n *PromptTemplateNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	out, err := n.Init(ctx, data, input, opts)
	if err != nil {
		return nil, err
	}

	question := input
	if opts != nil && question == "" {
		question = opts.Question
	}

	messages, err := out.(*Prompt).Format(ctx, question, nil)
	if err != nil {
		return nil, err
	}

	return messages[len(messages)-1].Content, nil
}
