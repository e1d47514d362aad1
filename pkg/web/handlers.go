package web

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/updlflow/pkg/engine"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/registry"
	"github.com/dukex/updlflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// HeaderAPIKey carries the flow API key when no bearer token is sent.
const HeaderAPIKey = "X-API-Key"

type APIHandlers struct {
	flowService       *services.Flow
	variableService   *services.Variable
	chatService       *services.ChatMessage
	deploymentService *services.Deployment
	orchestrator      *engine.Orchestrator
	validator         *validator.Validate
	registry          *registry.Registry
	logger            *slog.Logger
}

// NewAPIHandlers creates the flow API handlers.
func NewAPIHandlers(
	flowService *services.Flow,
	variableService *services.Variable,
	chatService *services.ChatMessage,
	deploymentService *services.Deployment,
	orchestrator *engine.Orchestrator,
	validator *validator.Validate,
	registry *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		flowService:       flowService,
		variableService:   variableService,
		chatService:       chatService,
		deploymentService: deploymentService,
		orchestrator:      orchestrator,
		validator:         validator,
		registry:          registry,
		logger:            logger.With("module", "web"),
	}
}

// Register mounts every handler on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Post("/prediction/:id", h.Predict)

	f := router.Group("/chatflows")
	f.Get("/", h.GetFlows)
	f.Post("/", h.CreateFlow)
	f.Get("/:id", h.GetFlow)
	f.Put("/:id", h.UpdateFlow)
	f.Delete("/:id", h.DeleteFlow)
	f.Post("/:id/apikey", h.RotateAPIKey)
	f.Delete("/:id/apikey", h.RevokeAPIKey)
	f.Post("/:id/deploy", h.DeployFlow)
	f.Delete("/:id/deploy", h.UndeployFlow)
	f.Post("/:id/abort/:chatId", h.AbortPrediction)

	v := router.Group("/variables")
	v.Get("/", h.GetVariables)
	v.Post("/", h.CreateVariable)
	v.Put("/:id", h.UpdateVariable)
	v.Delete("/:id", h.DeleteVariable)

	router.Get("/chatmessages/:id", h.GetChatMessages)
	router.Delete("/chatmessages/:id", h.DeleteChatMessages)
	router.Get("/nodes", h.GetNodes)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.flowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "updlflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "updlflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Predict runs a flow. Streaming requests answer with server-sent events:
// start, token and end around the streamed answer, then metadata with the
// final result, or error.
func (h *APIHandlers) Predict(c fiber.Ctx) error {
	flowID := c.Params("id")

	var req models.PredictionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	apiKey := requestAPIKey(c)

	if !req.Streaming {
		ctx, cancel := context.WithCancelCause(c.Context())
		defer cancel(nil)

		chatID := req.ChatID
		stop := cancelOnClose(c.RequestCtx().Conn(), cancel, func() {
			h.logger.InfoContext(ctx, "Client disconnected, cancelling prediction", "flow_id", flowID, "chat_id", chatID)
		})

		result, err := h.orchestrator.Predict(ctx, flowID, apiKey, &req)
		stop()

		if err != nil {
			return handleEngineError(c, err)
		}

		return c.JSON(result)
	}

	if _, err := h.flowService.FetchByID(c.Context(), flowID); err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	logger := h.logger.With("flow_id", flowID)

	c.RequestCtx().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		streamer := newSSEStreamer(w, cancel)

		result, err := h.orchestrator.Predict(ctx, flowID, apiKey, &req, engine.WithStreamer(streamer))
		if err != nil {
			status, kind := engineStatus(err)
			logger.WarnContext(ctx, "Streaming prediction failed", "status", status, "error", err)
			streamer.send(EventError, fiber.Map{"status": status, "type": kind, "detail": err.Error()})

			return
		}

		streamer.send(EventMetadata, result)
	})

	return nil
}

func (h *APIHandlers) AbortPrediction(c fiber.Ctx) error {
	flowID := c.Params("id")
	chatID := c.Params("chatId")

	return c.JSON(AbortResponse{
		FlowID:  flowID,
		ChatID:  chatID,
		Aborted: h.orchestrator.Abort(flowID, chatID),
	})
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.flowService.List(c.Context(), models.FlowType(c.Query("type")))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flows)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	flow, err := h.flowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	req, err := h.bindFlow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.flowService.Create(c.Context(), req.ToFlow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	req, err := h.bindFlow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.flowService.Update(c.Context(), c.Params("id"), req.ToFlow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	if err := h.flowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RotateAPIKey(c fiber.Ctx) error {
	id := c.Params("id")

	key, err := h.flowService.RotateAPIKey(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(APIKeyResponse{FlowID: id, APIKey: key})
}

func (h *APIHandlers) RevokeAPIKey(c fiber.Ctx) error {
	if err := h.flowService.RevokeAPIKey(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DeployFlow(c fiber.Ctx) error {
	flow, err := h.deploymentService.Deploy(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) UndeployFlow(c fiber.Ctx) error {
	flow, err := h.deploymentService.Undeploy(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) GetVariables(c fiber.Ctx) error {
	variables, err := h.variableService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(variables)
}

func (h *APIHandlers) CreateVariable(c fiber.Ctx) error {
	variable, err := h.bindVariable(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.variableService.Create(c.Context(), variable)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateVariable(c fiber.Ctx) error {
	variable, err := h.bindVariable(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.variableService.Update(c.Context(), c.Params("id"), variable)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteVariable(c fiber.Ctx) error {
	if err := h.variableService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetChatMessages(c fiber.Ctx) error {
	messages, err := h.chatService.List(c.Context(), c.Params("id"), c.Query("chatId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(messages)
}

func (h *APIHandlers) DeleteChatMessages(c fiber.Ctx) error {
	if _, err := h.flowService.FetchByID(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	if err := h.chatService.Clear(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	return c.JSON(h.registry.Describe())
}

func (h *APIHandlers) bindFlow(c fiber.Ctx) (*FlowRequest, error) {
	var req FlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, errInvalidJSON
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return &req, nil
}

func (h *APIHandlers) bindVariable(c fiber.Ctx) (*models.Variable, error) {
	var req VariableRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, errInvalidJSON
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return &models.Variable{Name: req.Name, Value: req.Value, Type: req.Type}, nil
}

// requestAPIKey reads a bearer token, falling back to the X-API-Key header.
func requestAPIKey(c fiber.Ctx) string {
	if token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return c.Get(HeaderAPIKey)
}
