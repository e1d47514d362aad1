package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel answers with a fixed reply and records the prompts it received.
// With Hold set it blocks until the call context ends and returns its cause.
type FakeChatModel struct {
	Reply string
	Err   error
	Hold  bool

	mu    sync.Mutex
	calls [][]*schema.Message
}

var _ model.BaseChatModel = (*FakeChatModel)(nil)

func (m *FakeChatModel) record(input []*schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, input)
}

func (m *FakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.record(input)

	if m.Hold {
		<-ctx.Done()

		return nil, context.Cause(ctx)
	}

	if m.Err != nil {
		return nil, m.Err
	}

	return schema.AssistantMessage(m.Reply, nil), nil
}

// Stream emits the reply word by word.
func (m *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)

	if m.Hold {
		<-ctx.Done()

		return nil, context.Cause(ctx)
	}

	if m.Err != nil {
		return nil, m.Err
	}

	words := strings.SplitAfter(m.Reply, " ")
	chunks := make([]*schema.Message, 0, len(words))

	for _, w := range words {
		chunks = append(chunks, schema.AssistantMessage(w, nil))
	}

	return schema.StreamReaderFromArray(chunks), nil
}

// Calls returns the prompts received so far.
func (m *FakeChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([][]*schema.Message(nil), m.calls...)
}
