package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/updlflow/pkg/auth"
	"github.com/dukex/updlflow/pkg/events"
	"github.com/dukex/updlflow/pkg/graph"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/otelhelper"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/storage"
	"github.com/dukex/updlflow/pkg/variables"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// PredictOption customizes one Predict call.
type PredictOption func(*predictConfig)

type predictConfig struct {
	streamer protocol.Streamer
	skipAuth bool
}

// WithStreamer publishes partial results when the request asks for streaming.
func WithStreamer(s protocol.Streamer) PredictOption {
	return func(c *predictConfig) {
		c.streamer = s
	}
}

// WithoutAuthorization skips the API key check, for trusted local callers.
func WithoutAuthorization() PredictOption {
	return func(c *predictConfig) {
		c.skipAuth = true
	}
}

// Orchestrator runs a stored flow end to end for one prediction request.
type Orchestrator struct {
	rt          *Runtime
	persistence persistence.Persistence
	executor    *Executor
	dispatcher  *Dispatcher
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewOrchestrator creates an orchestrator that loads flows and chat history
// from p and runs predictions on rt.
func NewOrchestrator(rt *Runtime, p persistence.Persistence) *Orchestrator {
	return &Orchestrator{
		rt:          rt,
		persistence: p,
		executor:    NewExecutor(rt),
		dispatcher:  NewDispatcher(rt),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      rt.Logger.With("module", "flow_orchestrator"),
	}
}

// invocation is the state of one Predict call.
type invocation struct {
	flow      *models.Flow
	req       *models.PredictionRequest
	chatID    string
	sessionID string
	messageID string
	question  string
	uploads   []models.Upload
	files     string
	history   []models.HistoryMessage
	streamer  protocol.Streamer
	logger    *slog.Logger
}

// Predict authorizes the caller, preprocesses uploads, runs the flow graph and
// returns the result of its ending node. The invocation can be aborted
// through the cancellation registry under (flowID, chatId) while it runs.
func (o *Orchestrator) Predict(ctx context.Context, flowID, apiKey string, req *models.PredictionRequest, opts ...PredictOption) (*models.ExecutionResult, error) {
	const op = "predict"

	cfg := &predictConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if req == nil {
		return nil, newError(KindValidation, op, ErrInvalidRequest)
	}

	if err := o.validate.Struct(req); err != nil {
		return nil, &Error{Kind: KindValidation, Op: op, Message: err.Error(), Err: ErrInvalidRequest}
	}

	if strings.TrimSpace(req.Question) == "" && !req.HasAudio() {
		return nil, newError(KindValidation, op, ErrMissingQuestion)
	}

	flow, err := o.persistence.FlowRepository().GetByID(ctx, flowID)
	if err != nil {
		return nil, newError(KindExecution, op, err)
	}

	if flow == nil {
		return nil, &Error{Kind: KindNotFound, Op: op, Message: "flow " + flowID, Err: persistence.ErrFlowNotFound}
	}

	if !cfg.skipAuth {
		if err := auth.VerifyAPIKey(flow.APIKeyHash, apiKey); err != nil {
			return nil, newError(KindUnauthorized, op, err)
		}
	}

	inv := &invocation{
		flow:      flow,
		req:       req,
		chatID:    req.ChatID,
		sessionID: req.SessionID,
		messageID: uuid.NewString(),
		question:  req.Question,
	}

	if inv.chatID == "" {
		inv.chatID = uuid.NewString()
	}

	if inv.sessionID == "" {
		inv.sessionID = inv.chatID
	}

	if req.Streaming {
		inv.streamer = cfg.streamer
	}

	inv.logger = o.logger.With("flow_id", flow.ID, "chat_id", inv.chatID, "message_id", inv.messageID)

	ctx, handle := o.rt.Cancellation.Add(ctx, flow.ID, inv.chatID)
	defer handle.Remove()

	ctx, span := otelhelper.StartSpan(ctx, o.rt.Tracer, "flow.predict",
		attribute.String(otelhelper.FlowIDKey, flow.ID),
		attribute.String(otelhelper.FlowTypeKey, string(flow.Type)),
		attribute.String(otelhelper.ChatIDKey, inv.chatID),
		attribute.String(otelhelper.MessageIDKey, inv.messageID),
	)
	defer span.End()

	start := time.Now()

	inv.logger.InfoContext(ctx, "Starting prediction", "flow_type", flow.Type, "streaming", inv.streamer != nil)

	result, terminal, err := o.run(ctx, inv)
	if err != nil {
		otelhelper.SetError(span, err)
		o.failed(ctx, inv, err, time.Since(start))

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.TerminalKey, terminal.ID))
	o.persistMessages(ctx, inv, result)

	duration := time.Since(start)
	inv.logger.InfoContext(ctx, "Prediction completed", "terminal_node", terminal.ID, "duration", duration)

	o.rt.Telemetry.Emit(ctx, flow.ID, events.PredictionSent{
		BaseEvent:    events.NewBaseEvent(events.PredictionSentEvent, flow.ID, inv.chatID),
		MessageID:    inv.messageID,
		FlowType:     string(flow.Type),
		TerminalNode: terminal.ID,
		Streaming:    inv.streamer != nil,
		DurationMs:   duration.Milliseconds(),
	})

	return result, nil
}

// Abort cancels the invocation running for the flow and chat.
func (o *Orchestrator) Abort(flowID, chatID string) bool {
	aborted := o.rt.Cancellation.Abort(flowID, chatID, ErrAborted)
	if aborted {
		o.logger.Info("Aborted prediction", "flow_id", flowID, "chat_id", chatID)
	}

	return aborted
}

func (o *Orchestrator) run(ctx context.Context, inv *invocation) (*models.ExecutionResult, *models.Node, error) {
	const op = "predict"

	if err := o.preprocess(ctx, inv); err != nil {
		return nil, nil, err
	}

	if err := o.loadHistory(ctx, inv); err != nil {
		return nil, nil, err
	}

	stored, err := o.storedVariables(ctx)
	if err != nil {
		return nil, nil, newError(KindExecution, op, err)
	}

	if ctx.Err() != nil {
		return nil, nil, cancelled(ctx, op, "", "")
	}

	data := inv.flow.FlowData
	if err := models.ValidateFlowData(data); err != nil {
		return nil, nil, newError(KindValidation, op, err)
	}

	forward, err := graph.ConstructGraphs(data.Nodes, data.Edges, false)
	if err != nil {
		return nil, nil, graphError(op, err)
	}

	reverse, err := graph.ConstructGraphs(data.Nodes, data.Edges, true)
	if err != nil {
		return nil, nil, graphError(op, err)
	}

	domain := graph.DomainFor(inv.flow.Type)

	candidates := graph.GetEndingNodes(forward.DependencyCounts, forward, data.Nodes, domain)
	if len(candidates) == 0 {
		return nil, nil, &Error{Kind: KindNotFound, Op: op, Message: "domain " + domain.Name, Err: ErrNoEndingNode}
	}

	terminalIDs := make([]string, 0, len(candidates))
	for _, n := range candidates {
		terminalIDs = append(terminalIDs, n.ID)
	}

	starting, err := graph.UnionStartingNodes(reverse, terminalIDs)
	if err != nil {
		return nil, nil, graphError(op, err)
	}

	config := &models.FlowConfig{
		FlowID:         inv.flow.ID,
		ChatID:         inv.chatID,
		SessionID:      inv.sessionID,
		MessageID:      inv.messageID,
		ChatHistory:    inv.history,
		OverrideConfig: inv.req.OverrideConfig,
	}

	state := &Invocation{
		Flow: data,
		Scope: &variables.Scope{
			Outputs:        make(map[string]any, len(data.Nodes)),
			Question:       inv.question,
			ChatHistory:    inv.history,
			Config:         config,
			FileAttachment: inv.files,
			Variables:      stored,
			Overrides:      variables.OverrideVars(inv.req.OverrideConfig, inv.flow.Override),
		},
		Overrides: inv.req.OverrideConfig,
		Settings:  inv.flow.Override,
		Options: &protocol.Options{
			FlowID:         inv.flow.ID,
			ChatID:         inv.chatID,
			SessionID:      inv.sessionID,
			MessageID:      inv.messageID,
			Question:       inv.question,
			ChatHistory:    inv.history,
			Uploads:        inv.uploads,
			FileAttachment: inv.files,
			Cache:          o.rt.Cache,
			Instances:      o.rt.Instances,
			Logger:         inv.logger,
			Streamer:       inv.streamer,
		},
	}

	inv.logger.DebugContext(ctx, "Resolved flow graph", "candidates", terminalIDs, "starting_nodes", len(starting.IDs))

	executed, err := o.executor.BuildFlow(ctx, BuildFlowParams{
		Invocation: state,
		Starting:   starting,
		Terminals:  candidates,
	})
	if err != nil {
		return nil, nil, err
	}

	terminal, output, err := o.dispatcher.InitEndingNode(ctx, DispatchParams{
		Invocation: state,
		Candidates: candidates,
		Domain:     domain,
	})
	if err != nil {
		return nil, nil, err
	}

	result := &models.ExecutionResult{
		ChatID:        inv.chatID,
		SessionID:     inv.sessionID,
		MessageID:     inv.messageID,
		FlowVariables: flowVariables(append(executed, &models.ExecutedNode{Node: terminal, Output: output})),
	}

	if domain.Name == graph.TextDomain.Name {
		text := stringify(output)
		result.Text = &text
	} else {
		result.Scene = output
	}

	return result, terminal, nil
}

// preprocess stores uploaded payloads, collects text attachments and
// transcribes audio into the question.
func (o *Orchestrator) preprocess(ctx context.Context, inv *invocation) error {
	const op = "preprocess"

	uploads := make([]models.Upload, 0, len(inv.req.Uploads))

	var attachments []string

	for _, upload := range inv.req.Uploads {
		if upload.Data == "" || (upload.Type != models.UploadTypeFile && upload.Type != models.UploadTypeAudio) {
			uploads = append(uploads, upload)
			continue
		}

		mime, raw, err := storage.DecodeData(upload.Data)
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Message: "upload " + upload.Name, Err: err}
		}

		if upload.Mime == "" {
			upload.Mime = mime
		}

		if upload.IsAudio() {
			if err := o.transcribe(ctx, inv, upload, raw); err != nil {
				return err
			}
		} else if isText(upload.Mime) {
			attachments = append(attachments, string(raw))
		}

		if o.rt.Storage == nil {
			return newError(KindValidation, op, ErrStorageUnavailable)
		}

		name, err := o.rt.Storage.Save(ctx, inv.flow.ID, inv.chatID, upload.Name, raw)
		if err != nil {
			return newError(KindExecution, op, err)
		}

		uploads = append(uploads, models.Upload{
			Type: models.UploadTypeStoredFile,
			Name: name,
			Mime: upload.Mime,
			Data: models.StoredFilePrefix + name,
		})
	}

	inv.uploads = uploads
	inv.files = strings.Join(attachments, "\n\n")

	if strings.TrimSpace(inv.question) == "" {
		return newError(KindValidation, op, ErrMissingQuestion)
	}

	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, inv *invocation, upload models.Upload, raw []byte) error {
	const op = "transcribe"

	if o.rt.Transcriber == nil {
		return newError(KindValidation, op, ErrSpeechUnavailable)
	}

	text, err := o.rt.Transcriber.Transcribe(ctx, upload.Name, upload.Mime, raw)
	if err != nil {
		return newError(KindExecution, op, err)
	}

	inv.logger.DebugContext(ctx, "Transcribed audio upload", "upload", upload.Name)

	if text != "" {
		inv.question = text
	}

	return nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, inv *invocation) error {
	if len(inv.req.History) > 0 {
		inv.history = inv.req.History
		return nil
	}

	messages, err := o.persistence.ChatMessageRepository().GetByChat(ctx, inv.flow.ID, inv.chatID)
	if err != nil {
		return newError(KindExecution, "load_history", err)
	}

	inv.history = make([]models.HistoryMessage, 0, len(messages))
	for _, m := range messages {
		inv.history = append(inv.history, models.HistoryMessage{Role: m.Role, Content: m.Content})
	}

	return nil
}

func (o *Orchestrator) storedVariables(ctx context.Context) (map[string]any, error) {
	stored, err := o.persistence.VariableRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(stored))
	for _, v := range stored {
		values[v.Name] = v.Value
	}

	return values, nil
}

// persistMessages records the exchange. Failures are logged only.
func (o *Orchestrator) persistMessages(ctx context.Context, inv *invocation, result *models.ExecutionResult) {
	repo := o.persistence.ChatMessageRepository()
	ctx = context.WithoutCancel(ctx)

	answer := stringify(result.Scene)
	if result.Text != nil {
		answer = *result.Text
	}

	messages := []*models.ChatMessage{
		{FlowID: inv.flow.ID, ChatID: inv.chatID, SessionID: inv.sessionID, Role: models.RoleUser, Content: inv.question},
		{ID: inv.messageID, FlowID: inv.flow.ID, ChatID: inv.chatID, SessionID: inv.sessionID, Role: models.RoleAPI, Content: answer},
	}

	for _, m := range messages {
		if err := repo.Add(ctx, m); err != nil {
			inv.logger.WarnContext(ctx, "Failed to store chat message", "role", m.Role, "error", err)
		}
	}
}

func (o *Orchestrator) failed(ctx context.Context, inv *invocation, err error, duration time.Duration) {
	base := events.NewBaseEvent(events.PredictionFailedEvent, inv.flow.ID, inv.chatID)

	if IsCancelled(err) {
		inv.logger.InfoContext(ctx, "Prediction cancelled", "cause", err)

		base.Type = events.PredictionAbortedEvent
		o.rt.Telemetry.Emit(ctx, inv.flow.ID, events.PredictionAborted{BaseEvent: base})

		return
	}

	inv.logger.ErrorContext(ctx, "Prediction failed", "error", err)

	event := events.PredictionFailed{
		BaseEvent:  base,
		MessageID:  inv.messageID,
		Kind:       string(KindOf(err)),
		Error:      err.Error(),
		DurationMs: duration.Milliseconds(),
	}

	var e *Error
	if errors.As(err, &e) {
		event.NodeID = e.NodeID
	}

	o.rt.Telemetry.Emit(ctx, inv.flow.ID, event)
}

// flowVariables collects the outputs of nodes exposing them.
func flowVariables(executed []*models.ExecutedNode) map[string]any {
	var vars map[string]any

	for _, n := range executed {
		if n.Node == nil || n.Node.Data == nil || n.Node.Data.ExposeAs == "" {
			continue
		}

		if vars == nil {
			vars = make(map[string]any)
		}

		vars[n.Node.Data.ExposeAs] = n.Output
	}

	return vars
}

func isText(mime string) bool {
	return strings.HasPrefix(mime, "text/") || mime == "application/json"
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(raw)
}
