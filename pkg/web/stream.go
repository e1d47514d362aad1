package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dukex/updlflow/pkg/protocol"
)

// Server-sent event names.
const (
	EventStart    = "start"
	EventToken    = "token"
	EventEnd      = "end"
	EventMetadata = "metadata"
	EventError    = "error"
)

// sseStreamer writes streamed tokens as server-sent events. The first failed
// flush means the client went away and cancels the prediction.
type sseStreamer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	cancel context.CancelFunc
	closed bool
}

var _ protocol.Streamer = (*sseStreamer)(nil)

func newSSEStreamer(w *bufio.Writer, cancel context.CancelFunc) *sseStreamer {
	return &sseStreamer{w: w, cancel: cancel}
}

func (s *sseStreamer) StreamStart(_ context.Context, chatID string) {
	s.send(EventStart, map[string]string{"chatId": chatID})
}

func (s *sseStreamer) StreamToken(_ context.Context, _ string, token string) {
	s.send(EventToken, token)
}

func (s *sseStreamer) StreamEnd(_ context.Context, chatID string) {
	s.send(EventEnd, map[string]string{"chatId": chatID})
}

func (s *sseStreamer) send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte(`""`)
	}

	_, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	if err == nil {
		err = s.w.Flush()
	}

	if err != nil {
		s.closed = true
		s.cancel()
	}
}
