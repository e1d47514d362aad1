// Package speech converts audio uploads to text.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrEmptyAudio is returned when there is nothing to transcribe.
var ErrEmptyAudio = errors.New("audio is empty")

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, name, mime string, audio []byte) (string, error)
}

// OpenAITranscriber uses the OpenAI transcription endpoint.
type OpenAITranscriber struct {
	client openai.Client
	model  openai.AudioModel
}

// NewOpenAITranscriber creates a whisper transcriber. Options such as the
// base url and http client are passed to the OpenAI client.
func NewOpenAITranscriber(apiKey string, opts ...option.RequestOption) *OpenAITranscriber {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &OpenAITranscriber{
		client: openai.NewClient(opts...),
		model:  openai.AudioModelWhisper1,
	}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, name, mime string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	if name == "" {
		name = "audio.webm"
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), name, mime),
		Model: t.model,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	return resp.Text, nil
}
