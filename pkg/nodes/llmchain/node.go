// Package llmchain provides the llmChain node, which runs a prompt through a chat model.
package llmchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dukex/updlflow/pkg/cache"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/nodes/prompttemplate"
	"github.com/dukex/updlflow/pkg/protocol"
)

const defaultCacheTTL = time.Hour

var (
	ErrMissingModel  = errors.New("llm chain requires a chat model input")
	ErrMissingPrompt = errors.New("llm chain requires a prompt input")
)

// LLMChainNode formats its prompt and asks its model for an answer.
type LLMChainNode struct{}

type chain struct {
	model    model.BaseChatModel
	prompt   *prompttemplate.Prompt
	useCache bool
}

func parse(data *models.NodeData) (*chain, error) {
	m, ok := data.Inputs["model"].(model.BaseChatModel)
	if !ok {
		return nil, ErrMissingModel
	}

	var p *prompttemplate.Prompt

	switch v := data.Inputs["prompt"].(type) {
	case *prompttemplate.Prompt:
		p = v
	case string:
		if v == "" {
			return nil, ErrMissingPrompt
		}

		p = prompttemplate.NewPrompt(prompttemplate.Config{Template: v})
	default:
		return nil, ErrMissingPrompt
	}

	useCache, _ := data.Inputs["cache"].(bool)

	return &chain{model: m, prompt: p, useCache: useCache}, nil
}

func question(input string, opts *protocol.Options) string {
	if input != "" || opts == nil {
		return input
	}

	return opts.Question
}

// Init runs the chain and returns the answer so downstream nodes can use it.
func (n *LLMChainNode) Init(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	c, err := parse(data)
	if err != nil {
		return nil, err
	}

	return c.run(ctx, question(input, opts), opts, false)
}

// Run produces the flow answer, streaming tokens when the caller asked for it.
func (n *LLMChainNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	c, err := parse(data)
	if err != nil {
		return nil, err
	}

	return c.run(ctx, question(input, opts), opts, opts.Streaming())
}

func (c *chain) run(ctx context.Context, q string, opts *protocol.Options, stream bool) (string, error) {
	var history []models.HistoryMessage
	if opts != nil {
		history = opts.ChatHistory
	}

	messages, err := c.prompt.Format(ctx, q, prompttemplate.HistoryMessages(history))
	if err != nil {
		return "", err
	}

	var pool cache.Pool
	if c.useCache && opts != nil {
		pool = opts.Cache
	}

	key := ""
	if pool != nil {
		key = cacheKey(messages)

		if cached, err := pool.Get(ctx, key); err == nil {
			opts.Log().DebugContext(ctx, "Using cached chain answer")

			return string(cached), nil
		} else if !cache.IsMiss(err) {
			opts.Log().WarnContext(ctx, "Chain cache unavailable", "error", err)
		}
	}

	var answer string
	if stream {
		answer, err = c.stream(ctx, messages, opts)
	} else {
		var msg *schema.Message

		msg, err = c.model.Generate(ctx, messages)
		if msg != nil {
			answer = msg.Content
		}
	}

	if err != nil {
		return "", fmt.Errorf("chat model generation failed: %w", err)
	}

	if pool != nil {
		if err := pool.Set(ctx, key, []byte(answer), defaultCacheTTL); err != nil {
			opts.Log().WarnContext(ctx, "Failed to cache chain answer", "error", err)
		}
	}

	return answer, nil
}

func (c *chain) stream(ctx context.Context, messages []*schema.Message, opts *protocol.Options) (string, error) {
	reader, err := c.model.Stream(ctx, messages)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	opts.Streamer.StreamStart(ctx, opts.ChatID)
	defer opts.Streamer.StreamEnd(ctx, opts.ChatID)

	var sb strings.Builder

	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", err
		}

		sb.WriteString(chunk.Content)
		opts.Streamer.StreamToken(ctx, opts.ChatID, chunk.Content)
	}

	return sb.String(), nil
}

func cacheKey(messages []*schema.Message) string {
	raw, _ := json.Marshal(messages)
	sum := sha256.Sum256(raw)

	return "llmChain:" + hex.EncodeToString(sum[:])
}
