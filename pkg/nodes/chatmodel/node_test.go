package chatmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/dukex/updlflow/pkg/cache"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeConstructor(fake *testutil.FakeChatModel, seen *[]*openai.ChatModelConfig) Constructor {
	return func(_ context.Context, cfg *openai.ChatModelConfig) (model.BaseChatModel, error) {
		*seen = append(*seen, cfg)

		return fake, nil
	}
}

func TestChatModelNode_InitCachesInstance(t *testing.T) {
	fake := &testutil.FakeChatModel{Reply: "ok"}

	var seen []*openai.ChatModelConfig

	factory := NewChatModelNodeFactory("default-key", fakeConstructor(fake, &seen))
	opts := &protocol.Options{Instances: cache.NewInstances()}
	data := &models.NodeData{ID: "chatOpenAI_0", Inputs: map[string]any{"modelName": "gpt-4o", "temperature": 0.2}}

	for range 2 {
		node, err := factory.Create(t.Context())
		require.NoError(t, err)

		out, err := node.Init(t.Context(), data, "", opts)
		require.NoError(t, err)
		assert.Same(t, fake, out)
	}

	require.Len(t, seen, 1)
	assert.Equal(t, "gpt-4o", seen[0].Model)
	assert.Equal(t, "default-key", seen[0].APIKey)
	require.NotNil(t, seen[0].Temperature)
	assert.InDelta(t, 0.2, *seen[0].Temperature, 0.0001)
	assert.Equal(t, 1, opts.Instances.Len())
}

func TestChatModelNode_DistinctConfigs(t *testing.T) {
	fake := &testutil.FakeChatModel{}

	var seen []*openai.ChatModelConfig

	node := &ChatModelNode{apiKey: "k", construct: fakeConstructor(fake, &seen)}
	opts := &protocol.Options{Instances: cache.NewInstances()}

	_, err := node.Init(t.Context(), &models.NodeData{Inputs: map[string]any{"modelName": "a"}}, "", opts)
	require.NoError(t, err)
	_, err = node.Init(t.Context(), &models.NodeData{Inputs: map[string]any{"modelName": "b"}}, "", opts)
	require.NoError(t, err)

	assert.Len(t, seen, 2)

	// Without an instance pool every call builds a client.
	_, err = node.Init(t.Context(), &models.NodeData{Inputs: map[string]any{}}, "", nil)
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Equal(t, defaultModel, seen[2].Model)
}

func TestChatModelNode_Errors(t *testing.T) {
	node := &ChatModelNode{construct: func(context.Context, *openai.ChatModelConfig) (model.BaseChatModel, error) {
		return nil, errors.New("boom")
	}}

	_, err := node.Init(t.Context(), &models.NodeData{Inputs: map[string]any{}}, "", nil)
	assert.ErrorContains(t, err, "API key")

	_, err = node.Init(t.Context(), &models.NodeData{Inputs: map[string]any{"apiKey": "k"}}, "", nil)
	assert.ErrorContains(t, err, "boom")
}

func TestChatModelNode_Run(t *testing.T) {
	fake := &testutil.FakeChatModel{Reply: "Paris"}

	var seen []*openai.ChatModelConfig

	node := &ChatModelNode{apiKey: "k", construct: fakeConstructor(fake, &seen)}

	out, err := node.Run(t.Context(), &models.NodeData{Inputs: map[string]any{}}, "", &protocol.Options{Question: "Capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Capital of France?", calls[0][0].Content)
}
