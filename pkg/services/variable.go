package services

import (
	"context"
	"fmt"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

const defaultVariableType = "static"

type Variable struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewVariable creates a new variable service.
func NewVariable(persistence persistence.Persistence) *Variable {
	return &Variable{
		persistence: persistence,
		validate:    validator.New(),
	}
}

// List returns every stored variable ordered by name.
func (v *Variable) List(ctx context.Context) ([]*models.Variable, error) {
	variables, err := v.persistence.VariableRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get variables: %w", err)
	}

	return variables, nil
}

// Create stores a new variable. Names must be unique.
func (v *Variable) Create(ctx context.Context, variable *models.Variable) (*models.Variable, error) {
	if variable == nil {
		return nil, NewValidationError("CreateVariable", "VARIABLE_NIL", "variable cannot be nil", ErrInvalidRequest)
	}

	variable.ID = ""

	return v.save(ctx, "CreateVariable", variable)
}

// Update changes the name, value or type of an existing variable.
func (v *Variable) Update(ctx context.Context, id string, variable *models.Variable) (*models.Variable, error) {
	if variable == nil {
		return nil, NewValidationError("UpdateVariable", "VARIABLE_NIL", "variable cannot be nil", ErrInvalidRequest)
	}

	existing, err := v.find(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = variable.Name
	existing.Value = variable.Value
	existing.Type = variable.Type

	return v.save(ctx, "UpdateVariable", existing)
}

// Delete removes a variable by ID.
func (v *Variable) Delete(ctx context.Context, id string) error {
	if err := v.persistence.VariableRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete variable: %w", err)
	}

	return nil
}

func (v *Variable) find(ctx context.Context, id string) (*models.Variable, error) {
	variables, err := v.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, variable := range variables {
		if variable.ID == id {
			return variable, nil
		}
	}

	return nil, &persistence.VariableError{Op: "Find", Name: id, Err: ErrVariableNotFound}
}

func (v *Variable) save(ctx context.Context, op string, variable *models.Variable) (*models.Variable, error) {
	if variable.Type == "" {
		variable.Type = defaultVariableType
	}

	if err := v.validate.Struct(variable); err != nil {
		return nil, NewValidationError(op, "INVALID_VARIABLE", err.Error(), fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	if err := v.persistence.VariableRepository().Save(ctx, variable); err != nil {
		return nil, fmt.Errorf("failed to save variable: %w", err)
	}

	return variable, nil
}
