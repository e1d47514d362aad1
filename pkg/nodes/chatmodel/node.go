// Package chatmodel provides the chatOpenAI node, an OpenAI compatible chat model.
package chatmodel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

const defaultModel = "gpt-4o-mini"

// Config is the resolved configuration of a chat model node.
type Config struct {
	ModelName   string   `json:"modelName"`
	APIKey      string   `json:"apiKey,omitempty"`
	BaseURL     string   `json:"baseURL,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
}

// cacheKey identifies a client configuration without exposing the key.
func (c Config) cacheKey() string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s|%s|%s", c.ModelName, c.BaseURL, c.APIKey)

	if c.Temperature != nil {
		_, _ = fmt.Fprintf(h, "|t=%g", *c.Temperature)
	}

	if c.MaxTokens != nil {
		_, _ = fmt.Fprintf(h, "|m=%d", *c.MaxTokens)
	}

	return "chatOpenAI:" + hex.EncodeToString(h.Sum(nil))
}

// Constructor builds a chat model client.
type Constructor func(ctx context.Context, cfg *openai.ChatModelConfig) (model.BaseChatModel, error)

// NewOpenAIModel builds an eino OpenAI chat model.
func NewOpenAIModel(ctx context.Context, cfg *openai.ChatModelConfig) (model.BaseChatModel, error) {
	m, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return m, nil
}

// ChatModelNode outputs a chat model client for downstream chains.
type ChatModelNode struct {
	apiKey    string
	construct Constructor
}

func (n *ChatModelNode) config(data *models.NodeData) (Config, error) {
	cfg := Config{ModelName: defaultModel}
	if err := models.DecodeInputs(data.Inputs, &cfg); err != nil {
		return cfg, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = n.apiKey
	}

	if cfg.APIKey == "" {
		return cfg, errors.New("missing OpenAI API key")
	}

	return cfg, nil
}

// Init returns the client. Clients are shared between invocations with the same configuration.
func (n *ChatModelNode) Init(ctx context.Context, data *models.NodeData, _ string, opts *protocol.Options) (any, error) {
	cfg, err := n.config(data)
	if err != nil {
		return nil, err
	}

	create := func() (any, error) {
		return n.construct(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ModelName,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	}

	if opts == nil || opts.Instances == nil {
		return create()
	}

	instance, err := opts.Instances.GetOrCreate(cfg.cacheKey(), create)
	if err != nil {
		return nil, err
	}

	opts.Log().DebugContext(ctx, "Using chat model", "node_id", data.ID, "model", cfg.ModelName)

	return instance, nil
}

// Run answers the question directly when the model ends a flow.
func (n *ChatModelNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	instance, err := n.Init(ctx, data, input, opts)
	if err != nil {
		return nil, err
	}

	question := input
	if question == "" && opts != nil {
		question = opts.Question
	}

	msg, err := instance.(model.BaseChatModel).Generate(ctx, []*schema.Message{schema.UserMessage(question)})
	if err != nil {
		return nil, fmt.Errorf("chat model generation failed: %w", err)
	}

	return msg.Content, nil
}
