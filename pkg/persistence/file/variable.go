package file

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/google/uuid"
)

// VariableRepository keeps every variable in a single file.
type VariableRepository struct {
	root string
	mu   sync.Mutex
}

func NewVariableRepository(root string) *VariableRepository {
	return &VariableRepository{root: root}
}

func (vr *VariableRepository) file() string {
	return path.Join(vr.root, "variables.json")
}

func (vr *VariableRepository) read() ([]*models.Variable, error) {
	var variables []*models.Variable
	if _, err := readJSON(vr.file(), &variables); err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}

	return variables, nil
}

// GetAll returns the variables ordered by name.
func (vr *VariableRepository) GetAll(_ context.Context) ([]*models.Variable, error) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	variables, err := vr.read()
	if err != nil {
		return nil, err
	}

	sort.Slice(variables, func(i, j int) bool { return variables[i].Name < variables[j].Name })

	if variables == nil {
		variables = []*models.Variable{}
	}

	return variables, nil
}

// Save creates or updates a variable. Names are unique.
func (vr *VariableRepository) Save(_ context.Context, variable *models.Variable) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	variables, err := vr.read()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if variable.ID == "" {
		variable.ID = uuid.NewString()
	}

	if variable.CreatedAt.IsZero() {
		variable.CreatedAt = now
	}

	variable.UpdatedAt = now

	replaced := false

	for i, existing := range variables {
		if existing.ID == variable.ID {
			variables[i] = variable
			replaced = true

			continue
		}

		if existing.Name == variable.Name {
			return &persistence.VariableError{Op: "Save", Name: variable.Name, Err: persistence.ErrVariableAlreadyExists}
		}
	}

	if !replaced {
		variables = append(variables, variable)
	}

	return writeJSON(vr.file(), variables)
}

func (vr *VariableRepository) Delete(_ context.Context, id string) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	variables, err := vr.read()
	if err != nil {
		return err
	}

	for i, existing := range variables {
		if existing.ID == id {
			return writeJSON(vr.file(), append(variables[:i], variables[i+1:]...))
		}
	}

	return &persistence.VariableError{Op: "Delete", Name: id, Err: persistence.ErrVariableNotFound}
}
