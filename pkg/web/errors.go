package web

import (
	"errors"

	"github.com/dukex/updlflow/pkg/engine"
	"github.com/dukex/updlflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// StatusClientClosedRequest is returned for predictions aborted by the caller.
const StatusClientClosedRequest = 499

var errInvalidJSON = errors.New("invalid JSON format")

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, services.ErrFlowNotFound):
		return problem(c, fiber.StatusNotFound, "flow_not_found", "flow not found")

	case errors.Is(err, services.ErrVariableNotFound):
		return problem(c, fiber.StatusNotFound, "variable_not_found", "variable not found")

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	default:
		return internalError(c, err)
	}
}

// engineStatus maps an engine error kind to its HTTP status and problem type.
func engineStatus(err error) (int, string) {
	switch engine.KindOf(err) {
	case engine.KindValidation:
		return fiber.StatusBadRequest, "validation_error"
	case engine.KindNotFound:
		return fiber.StatusNotFound, "not_found"
	case engine.KindUnauthorized:
		return fiber.StatusUnauthorized, "unauthorized"
	case engine.KindCancelled:
		return StatusClientClosedRequest, "cancelled"
	default:
		return fiber.StatusInternalServerError, "execution_error"
	}
}

// handleEngineError renders a prediction failure. Execution errors name the
// failing node.
func handleEngineError(c fiber.Ctx, err error) error {
	status, kind := engineStatus(err)

	return problem(c, status, kind, err.Error())
}
